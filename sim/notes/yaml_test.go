package notes

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/round-sim/sim"
	"github.com/inference-sim/round-sim/sim/internal/testutil"
)

func TestLoadYAML_Pair(t *testing.T) {
	doc, err := LoadYAML(testutil.FixturePath(t, "pair.yaml"))
	require.NoError(t, err)

	assert.Nil(t, doc.Run)
	require.Len(t, doc.Handlers, 2)
	assert.Equal(t, sim.Operation{Operator: sim.OpAdd, Operand: sim.LiteralOperand(6)}, doc.Handlers[1].Operation)
	assert.Equal(t, 1, doc.Handlers[1].IfTrue)
	assert.NoError(t, sim.ValidateHandlers(doc.Handlers))
}

func TestDecodeYAML_RunSection(t *testing.T) {
	input := `
run:
  rounds: 10000
  relief: none
  representation: residue
  top_k: 3
handlers:
  - {id: 0, items: [1], operation: {operator: "*", operand: old}, divisor: 2, if_true: 0, if_false: 0}
`
	doc, err := DecodeYAML(strings.NewReader(input))
	require.NoError(t, err)

	require.NotNil(t, doc.Run)
	assert.Equal(t, sim.RunConfig{Rounds: 10000, Relief: sim.ReliefNone, Representation: sim.RepresentationResidue, TopK: 3}, *doc.Run)
	assert.True(t, doc.Handlers[0].Operation.Operand.Old)
}

func TestDecodeYAML_Invalid_ReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unknown handler key", "handlers:\n  - {id: 0, divisr: 3}\n"},
		{"unknown top-level key", "handler: []\n"},
		{"bad relief", "run: {rounds: 1, relief: 0}\nhandlers: []\n"},
		{"bad operand", "handlers:\n  - {id: 0, operation: {operator: '+', operand: new}}\n"},
		{"operand not scalar", "handlers:\n  - {id: 0, operation: {operator: '+', operand: [1]}}\n"},
		{"negative item", "handlers:\n  - {id: 0, items: [-1]}\n"},
		{"missing operand and false route", "handlers:\n  - {id: 0, items: [79], operation: {operator: '*'}, divisor: 23, if_true: 1}\n"},
		{"missing operand", "handlers:\n  - {id: 0, operation: {operator: '*'}, divisor: 23, if_true: 1, if_false: 0}\n"},
		{"missing operator", "handlers:\n  - {id: 0, operation: {operand: 19}, divisor: 23, if_true: 1, if_false: 0}\n"},
		{"unknown operation key", "handlers:\n  - {id: 0, operation: {operator: '*', operand: 19, mode: x}, divisor: 23, if_true: 1, if_false: 0}\n"},
		{"operation not a mapping", "handlers:\n  - {id: 0, operation: old, divisor: 23, if_true: 1, if_false: 0}\n"},
		{"missing operation", "handlers:\n  - {id: 0, divisor: 23, if_true: 1, if_false: 0}\n"},
		{"missing id", "handlers:\n  - {operation: {operator: '+', operand: 1}, divisor: 23, if_true: 1, if_false: 0}\n"},
		{"missing divisor", "handlers:\n  - {id: 0, operation: {operator: '+', operand: 1}, if_true: 1, if_false: 0}\n"},
		{"missing true route", "handlers:\n  - {id: 0, operation: {operator: '+', operand: 1}, divisor: 23, if_false: 0}\n"},
		{"missing both routes", "handlers:\n  - {id: 0, operation: {operator: '+', operand: 1}, divisor: 23}\n"},
		{"handler not a mapping", "handlers:\n  - 7\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestDecodeYAML_MissingField_ReportsFieldAndLine(t *testing.T) {
	// GIVEN a handler without its false route
	input := `handlers:
  - id: 0
    items: [79, 98]
    operation: {operator: "*", operand: 19}
    divisor: 23
    if_true: 1
`

	// WHEN decoded
	doc, err := DecodeYAML(strings.NewReader(input))

	// THEN decoding fails before any engine is built, naming the field and the handler's line
	assert.Nil(t, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required field "if_false"`)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeYAML_ItemsOptional(t *testing.T) {
	doc, err := DecodeYAML(strings.NewReader("handlers:\n  - {id: 0, operation: {operator: '+', operand: 1}, divisor: 2, if_true: 0, if_false: 1}\n"))
	require.NoError(t, err)
	require.Len(t, doc.Handlers, 1)
	assert.Empty(t, doc.Handlers[0].Items)
	assert.Equal(t, 1, doc.Handlers[0].IfFalse)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	// GIVEN the example definitions with a run section
	defs, err := ParseTextFile(testutil.FixturePath(t, "example.txt"))
	require.NoError(t, err)
	run := sim.Profiles[sim.ProfileRelief]
	doc := &Document{Run: &run, Handlers: defs}

	// WHEN encoded and decoded
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, doc))
	got, err := DecodeYAML(&buf)

	// THEN the document is unchanged
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestWriteYAML_OmitsMissingRunSection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, &Document{Handlers: []sim.HandlerDef{{ID: 0, Items: []uint64{1}, Divisor: 2}}}))
	assert.NotContains(t, buf.String(), "run:")
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path   string
		format string
		want   string
	}{
		{"notes.txt", FormatAuto, FormatText},
		{"notes", "", FormatText},
		{"doc.yaml", FormatAuto, FormatYAML},
		{"DOC.YML", FormatAuto, FormatYAML},
		{"doc.yaml", FormatText, FormatText},
		{"notes.txt", FormatYAML, FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.format, func(t *testing.T) {
			got, err := DetectFormat(tt.path, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DetectFormat("notes.txt", "json")
	assert.Error(t, err)
}

func TestLoad_TextAndYAMLAgree(t *testing.T) {
	// GIVEN the example as text notes and as a YAML document
	fromText, err := Load(testutil.FixturePath(t, "example.txt"), FormatAuto)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "example.yaml")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteYAML(f, fromText))
	require.NoError(t, f.Close())

	// WHEN the YAML form is loaded
	fromYAML, err := Load(path, FormatAuto)
	require.NoError(t, err)

	// THEN both produce the same definitions
	assert.Nil(t, fromText.Run)
	assert.Equal(t, fromText.Handlers, fromYAML.Handlers)
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"), FormatAuto)
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"), FormatAuto)
	assert.Error(t, err)
}
