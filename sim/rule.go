package sim

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Operator is the binary operator of a handler's transform.
type Operator string

const (
	OpAdd Operator = "+"
	OpMul Operator = "*"
)

// ValidOperators is the set of recognized operators.
var ValidOperators = map[Operator]bool{OpAdd: true, OpMul: true}

// operandOld is the operand keyword that refers to the item's own value.
const operandOld = "old"

// Operand is the right-hand side of a transform: either the item's own value
// ("old") or a fixed literal.
type Operand struct {
	Old     bool
	Literal uint64 // ignored when Old is set
}

// OldOperand returns the operand that reuses the input value.
func OldOperand() Operand { return Operand{Old: true} }

// LiteralOperand returns a fixed literal operand.
func LiteralOperand(n uint64) Operand { return Operand{Literal: n} }

// ParseOperand parses "old" or a non-negative decimal literal.
func ParseOperand(s string) (Operand, error) {
	if s == operandOld {
		return OldOperand(), nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Operand{}, fmt.Errorf("operand %q must be %q or a non-negative integer", s, operandOld)
	}
	return LiteralOperand(n), nil
}

func (o Operand) String() string {
	if o.Old {
		return operandOld
	}
	return strconv.FormatUint(o.Literal, 10)
}

// MarshalYAML writes "old" as a string and literals as integers.
func (o Operand) MarshalYAML() (any, error) {
	if o.Old {
		return operandOld, nil
	}
	return o.Literal, nil
}

// UnmarshalYAML accepts a scalar "old" or a non-negative integer.
func (o *Operand) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: operand must be a scalar", node.Line)
	}
	parsed, err := ParseOperand(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*o = parsed
	return nil
}

// Operation is the transform rule new = old <Operator> <Operand>.
type Operation struct {
	Operator Operator `yaml:"operator"`
	Operand  Operand  `yaml:"operand"`
}

// UnmarshalYAML decodes an operation, requiring both operator and operand.
func (op *Operation) UnmarshalYAML(node *yaml.Node) error {
	if err := checkMappingKeys(node, "operation", []string{"operator", "operand"}, nil); err != nil {
		return err
	}
	type plain Operation
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*op = Operation(p)
	return nil
}

func (op Operation) String() string {
	return fmt.Sprintf("new = old %s %s", op.Operator, op.Operand)
}

func (op Operation) validate(handlerID int) error {
	if !ValidOperators[op.Operator] {
		return configErrorf(ErrCodeUnsupportedOperator, handlerID, "unknown operator %q; valid: +, *", op.Operator)
	}
	if op.Operand.Old && op.Operand.Literal != 0 {
		return configErrorf(ErrCodeUnsupportedOperand, handlerID, "operand is both %q and literal %d", operandOld, op.Operand.Literal)
	}
	return nil
}

// Apply computes the transformed value. literal is the operand already
// converted by arith; it is ignored for "old" operands.
func (op Operation) Apply(arith Arithmetic, old, literal Value) Value {
	rhs := literal
	if op.Operand.Old {
		rhs = old
	}
	if op.Operator == OpAdd {
		return arith.Add(old, rhs)
	}
	return arith.Mul(old, rhs)
}
