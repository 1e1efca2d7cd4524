package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseRelief(t *testing.T) {
	r, err := ParseRelief("none")
	require.NoError(t, err)
	assert.False(t, r.Enabled())
	assert.Equal(t, "none", r.String())

	r, err = ParseRelief("3")
	require.NoError(t, err)
	assert.True(t, r.Enabled())
	assert.Equal(t, "3", r.String())

	for _, bad := range []string{"0", "-1", "three", ""} {
		_, err := ParseRelief(bad)
		assert.Error(t, err, "ParseRelief(%q)", bad)
	}
}

func TestRunConfig_YAML_ReliefNoneAndInteger(t *testing.T) {
	var cfg RunConfig
	require.NoError(t, yaml.Unmarshal([]byte("rounds: 20\nrelief: 3\n"), &cfg))
	assert.Equal(t, RunConfig{Rounds: 20, Relief: 3}, cfg)

	cfg = RunConfig{}
	require.NoError(t, yaml.Unmarshal([]byte("rounds: 10000\nrelief: none\nrepresentation: residue\n"), &cfg))
	assert.Equal(t, RunConfig{Rounds: 10000, Relief: ReliefNone, Representation: RepresentationResidue}, cfg)

	data, err := yaml.Marshal(RunConfig{Rounds: 5})
	require.NoError(t, err)
	assert.Contains(t, string(data), "relief: none")
}

func TestRunConfig_ResolvedRepresentation(t *testing.T) {
	tests := []struct {
		cfg  RunConfig
		want Representation
	}{
		{RunConfig{Relief: 3}, RepresentationExact},
		{RunConfig{Relief: ReliefNone}, RepresentationResidue},
		{RunConfig{Relief: 3, Representation: RepresentationAuto}, RepresentationExact},
		{RunConfig{Relief: ReliefNone, Representation: RepresentationExact}, RepresentationExact},
		{RunConfig{Relief: 3, Representation: RepresentationResidue}, RepresentationResidue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cfg.ResolvedRepresentation(), "%+v", tt.cfg)
	}
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  RunConfig
		code ErrorCode // empty = valid
	}{
		{"relief profile", Profiles[ProfileRelief], ""},
		{"bounded profile", Profiles[ProfileBounded], ""},
		{"negative rounds", RunConfig{Rounds: -1}, ErrCodeInvalidRunConfig},
		{"unknown representation", RunConfig{Representation: "float"}, ErrCodeInvalidRunConfig},
		{"negative drain guard", RunConfig{MaxDrainInspections: -1}, ErrCodeInvalidRunConfig},
		{"negative top k", RunConfig{TopK: -2}, ErrCodeInvalidRunConfig},
		{"relief with residue", RunConfig{Relief: 3, Representation: RepresentationResidue}, ErrCodeReliefWithResidue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.code, cerr.Code)
		})
	}
}

func TestRunConfig_Defaults(t *testing.T) {
	var cfg RunConfig
	assert.Equal(t, DefaultTopK, cfg.EffectiveTopK())
	assert.Equal(t, DefaultMaxDrainInspections, cfg.maxDrainInspections())

	cfg = RunConfig{TopK: 3, MaxDrainInspections: 10}
	assert.Equal(t, 3, cfg.EffectiveTopK())
	assert.Equal(t, int64(10), cfg.maxDrainInspections())
}

func TestValidateHandlers(t *testing.T) {
	mutate := func(fn func(defs []HandlerDef) []HandlerDef) []HandlerDef {
		return fn(exampleDefs())
	}
	tests := []struct {
		name      string
		defs      []HandlerDef
		code      ErrorCode
		handlerID int
	}{
		{"empty", nil, ErrCodeNoHandlers, noHandler},
		{"gap in ids", mutate(func(d []HandlerDef) []HandlerDef { d[2].ID = 5; return d }), ErrCodeNonContiguousID, 5},
		{"out of order", mutate(func(d []HandlerDef) []HandlerDef { d[0], d[1] = d[1], d[0]; return d }), ErrCodeNonContiguousID, 1},
		{"zero divisor", mutate(func(d []HandlerDef) []HandlerDef { d[3].Divisor = 0; return d }), ErrCodeZeroDivisor, 3},
		{"dangling true route", mutate(func(d []HandlerDef) []HandlerDef { d[1].IfTrue = 4; return d }), ErrCodeDanglingRoute, 1},
		{"negative false route", mutate(func(d []HandlerDef) []HandlerDef { d[0].IfFalse = -1; return d }), ErrCodeDanglingRoute, 0},
		{"bad operator", mutate(func(d []HandlerDef) []HandlerDef { d[2].Operation.Operator = "/"; return d }), ErrCodeUnsupportedOperator, 2},
		{"self loop", mutate(func(d []HandlerDef) []HandlerDef { d[3].IfTrue, d[3].IfFalse = 3, 3; return d }), ErrCodeSelfLoop, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHandlers(tt.defs)
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.code, cerr.Code)
			assert.Equal(t, tt.handlerID, cerr.HandlerID)
		})
	}

	assert.NoError(t, ValidateHandlers(exampleDefs()))
	assert.NoError(t, ValidateHandlers(pairDefs()), "one self route is allowed")
}

func TestValidateHandlers_SelfLoop_OnlyWhenReachable(t *testing.T) {
	idle := HandlerDef{ID: 4, Operation: Operation{Operator: OpAdd, Operand: LiteralOperand(0)}, Divisor: 2, IfTrue: 4, IfFalse: 4}

	// GIVEN a self-looping handler with no items that nothing routes to
	// THEN it is accepted
	defs := append(exampleDefs(), idle)
	require.NoError(t, ValidateHandlers(defs))

	// GIVEN the same handler holding an item
	withItem := idle
	withItem.Items = []uint64{1}
	err := ValidateHandlers(append(exampleDefs(), withItem))

	// THEN it is rejected before any round
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrCodeSelfLoop, cerr.Code)
	assert.Equal(t, 4, cerr.HandlerID)

	// GIVEN the idle handler as another handler's route target
	routed := append(exampleDefs(), idle)
	routed[3].IfTrue = 4
	err = ValidateHandlers(routed)

	// THEN it is rejected as well
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ErrCodeSelfLoop, cerr.Code)
}

func TestEngine_IdleSelfLoopingHandler_NeverInspects(t *testing.T) {
	// GIVEN the example plus an unreachable handler routing only to itself
	defs := append(exampleDefs(), HandlerDef{ID: 4, Operation: Operation{Operator: OpAdd, Operand: LiteralOperand(0)}, Divisor: 2, IfTrue: 4, IfFalse: 4})
	e := mustNewEngine(t, defs, RunConfig{Relief: 3})

	// WHEN 20 rounds run
	require.NoError(t, e.Run(20))

	// THEN the example results are unchanged and the idle handler stays at zero
	assert.Equal(t, []int64{101, 95, 7, 105, 0}, countsOf(e))
	got, err := e.Report(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(10605), got)
}

func TestDivisors_HandlerOrder(t *testing.T) {
	assert.Equal(t, []uint64{23, 19, 13, 17}, Divisors(exampleDefs()))
}
