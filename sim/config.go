package sim

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// HandlerDef is the static definition of one handler, as produced by the
// notes parsers.
type HandlerDef struct {
	ID        int       `yaml:"id"`        // contiguous, ascending from 0; defines visiting order
	Items     []uint64  `yaml:"items"`     // starting items, front first
	Operation Operation `yaml:"operation"` // transform applied on inspection
	Divisor   uint64    `yaml:"divisor"`   // routing predicate: value % Divisor == 0 (must be > 0)
	IfTrue    int       `yaml:"if_true"`   // target handler when divisible
	IfFalse   int       `yaml:"if_false"`  // target handler otherwise
}

var (
	handlerRequiredKeys = []string{"id", "operation", "divisor", "if_true", "if_false"}
	handlerOptionalKeys = []string{"items"}
)

// UnmarshalYAML decodes a handler and rejects missing or unknown keys, so an
// omitted route or operand never silently becomes zero.
func (d *HandlerDef) UnmarshalYAML(node *yaml.Node) error {
	if err := checkMappingKeys(node, "handler", handlerRequiredKeys, handlerOptionalKeys); err != nil {
		return err
	}
	type plain HandlerDef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = HandlerDef(p)
	return nil
}

// checkMappingKeys verifies that node is a mapping holding every required key
// and nothing outside required and optional. Node.Decode does not inherit the
// caller's KnownFields setting, so custom unmarshalers check keys here.
func checkMappingKeys(node *yaml.Node, what string, required, optional []string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %s must be a mapping", node.Line, what)
	}
	allowed := make(map[string]bool, len(required)+len(optional))
	for _, k := range required {
		allowed[k] = true
	}
	for _, k := range optional {
		allowed[k] = true
	}
	present := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !allowed[key.Value] {
			return fmt.Errorf("line %d: field %s not found in %s", key.Line, key.Value, what)
		}
		present[key.Value] = true
	}
	for _, k := range required {
		if !present[k] {
			return fmt.Errorf("line %d: %s is missing required field %q", node.Line, what, k)
		}
	}
	return nil
}

// Relief is the floor-division divisor applied after the transform.
// Zero means relief is disabled.
type Relief uint64

// ReliefNone disables relief.
const ReliefNone Relief = 0

const reliefNoneKeyword = "none"

// ParseRelief parses "none" or a positive integer.
func ParseRelief(s string) (Relief, error) {
	if s == reliefNoneKeyword {
		return ReliefNone, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return ReliefNone, fmt.Errorf("relief %q must be %q or a positive integer", s, reliefNoneKeyword)
	}
	return Relief(n), nil
}

// Enabled reports whether relief is applied.
func (r Relief) Enabled() bool { return r != ReliefNone }

func (r Relief) String() string {
	if !r.Enabled() {
		return reliefNoneKeyword
	}
	return strconv.FormatUint(uint64(r), 10)
}

// MarshalYAML writes "none" for disabled relief, the divisor otherwise.
func (r Relief) MarshalYAML() (any, error) {
	if !r.Enabled() {
		return reliefNoneKeyword, nil
	}
	return uint64(r), nil
}

// UnmarshalYAML accepts "none" or a positive integer.
func (r *Relief) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: relief must be a scalar", node.Line)
	}
	parsed, err := ParseRelief(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = parsed
	return nil
}

// DefaultMaxDrainInspections bounds the inspections of a single handler
// visit. Exceeding it means an item keeps routing back to the handler
// being drained.
const DefaultMaxDrainInspections int64 = 1_000_000

// DefaultTopK is the number of busiest handlers multiplied by Report.
const DefaultTopK = 2

// RunConfig groups run-wide parameters that are not part of any handler.
type RunConfig struct {
	Rounds              int            `yaml:"rounds"`                          // rounds to execute (0 = caller drives Run)
	Relief              Relief         `yaml:"relief"`                          // post-transform floor division (0 = none)
	Representation      Representation `yaml:"representation,omitempty"`        // "auto" (default), "residue", "exact"
	MaxDrainInspections int64          `yaml:"max_drain_inspections,omitempty"` // 0 = DefaultMaxDrainInspections
	TopK                int            `yaml:"top_k,omitempty"`                 // 0 = DefaultTopK
}

// Named run profiles, matching the two observed configurations.
const (
	ProfileRelief  = "relief"
	ProfileBounded = "bounded"
)

// Profiles maps profile names to their run configuration.
var Profiles = map[string]RunConfig{
	ProfileRelief:  {Rounds: 20, Relief: 3, Representation: RepresentationAuto},
	ProfileBounded: {Rounds: 10000, Relief: ReliefNone, Representation: RepresentationAuto},
}

// ResolvedRepresentation returns the representation the engine will use.
// Auto selects exact when relief is enabled and residue otherwise.
func (c RunConfig) ResolvedRepresentation() Representation {
	switch c.Representation {
	case "", RepresentationAuto:
		if c.Relief.Enabled() {
			return RepresentationExact
		}
		return RepresentationResidue
	default:
		return c.Representation
	}
}

func (c RunConfig) maxDrainInspections() int64 {
	if c.MaxDrainInspections == 0 {
		return DefaultMaxDrainInspections
	}
	return c.MaxDrainInspections
}

// EffectiveTopK returns TopK, or DefaultTopK when unset.
func (c RunConfig) EffectiveTopK() int {
	if c.TopK == 0 {
		return DefaultTopK
	}
	return c.TopK
}

// Validate checks the run configuration on its own.
func (c RunConfig) Validate() error {
	if c.Rounds < 0 {
		return configErrorf(ErrCodeInvalidRunConfig, noHandler, "rounds must be non-negative, got %d", c.Rounds)
	}
	if !ValidRepresentations[c.Representation] {
		return configErrorf(ErrCodeInvalidRunConfig, noHandler, "unknown representation %q; valid: auto, residue, exact", c.Representation)
	}
	if c.MaxDrainInspections < 0 {
		return configErrorf(ErrCodeInvalidRunConfig, noHandler, "max_drain_inspections must be non-negative, got %d", c.MaxDrainInspections)
	}
	if c.TopK < 0 {
		return configErrorf(ErrCodeInvalidRunConfig, noHandler, "top_k must be non-negative, got %d", c.TopK)
	}
	if c.Relief.Enabled() && c.ResolvedRepresentation() == RepresentationResidue {
		return configErrorf(ErrCodeReliefWithResidue, noHandler,
			"relief %d needs the exact magnitude; use representation exact or auto", uint64(c.Relief))
	}
	return nil
}

// ValidateHandlers checks the handler definitions against each other.
func ValidateHandlers(defs []HandlerDef) error {
	if len(defs) == 0 {
		return configErrorf(ErrCodeNoHandlers, noHandler, "at least one handler is required")
	}
	n := len(defs)
	// a handler can receive items if it starts with some or another handler routes to it
	receives := make([]bool, n)
	for _, d := range defs {
		if len(d.Items) > 0 && d.ID >= 0 && d.ID < n {
			receives[d.ID] = true
		}
		for _, target := range []int{d.IfTrue, d.IfFalse} {
			if target != d.ID && target >= 0 && target < n {
				receives[target] = true
			}
		}
	}
	for i, d := range defs {
		if d.ID != i {
			return configErrorf(ErrCodeNonContiguousID, d.ID, "handler at position %d has id %d; ids must be contiguous from 0", i, d.ID)
		}
		if d.Divisor == 0 {
			return configErrorf(ErrCodeZeroDivisor, d.ID, "divisor must be positive")
		}
		if err := d.Operation.validate(d.ID); err != nil {
			return err
		}
		for _, target := range []int{d.IfTrue, d.IfFalse} {
			if target < 0 || target >= n {
				return configErrorf(ErrCodeDanglingRoute, d.ID, "route target %d does not exist; valid: 0..%d", target, n-1)
			}
		}
		if d.IfTrue == d.ID && d.IfFalse == d.ID && receives[d.ID] {
			return configErrorf(ErrCodeSelfLoop, d.ID, "both routes point back to the handler itself and it can receive items")
		}
	}
	return nil
}

// Divisors returns the divisor of every handler, in handler order.
func Divisors(defs []HandlerDef) []uint64 {
	out := make([]uint64, len(defs))
	for i, d := range defs {
		out[i] = d.Divisor
	}
	return out
}
