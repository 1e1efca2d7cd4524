package sim

import (
	"testing"
)

// exampleDefs is the four-handler reference configuration.
// Known results: 20 rounds with relief 3 -> 10605; 10000 rounds residue -> 2713310158.
func exampleDefs() []HandlerDef {
	return []HandlerDef{
		{ID: 0, Items: []uint64{79, 98}, Operation: Operation{Operator: OpMul, Operand: LiteralOperand(19)}, Divisor: 23, IfTrue: 2, IfFalse: 3},
		{ID: 1, Items: []uint64{54, 65, 75, 74}, Operation: Operation{Operator: OpAdd, Operand: LiteralOperand(6)}, Divisor: 19, IfTrue: 2, IfFalse: 0},
		{ID: 2, Items: []uint64{79, 60, 97}, Operation: Operation{Operator: OpMul, Operand: OldOperand()}, Divisor: 13, IfTrue: 1, IfFalse: 3},
		{ID: 3, Items: []uint64{74}, Operation: Operation{Operator: OpAdd, Operand: LiteralOperand(3)}, Divisor: 17, IfTrue: 0, IfFalse: 1},
	}
}

// pairDefs is a two-handler configuration where handler 1 routes
// divisible items back to itself.
func pairDefs() []HandlerDef {
	return []HandlerDef{
		{ID: 0, Items: []uint64{79, 98}, Operation: Operation{Operator: OpMul, Operand: LiteralOperand(19)}, Divisor: 23, IfTrue: 1, IfFalse: 1},
		{ID: 1, Items: []uint64{54, 65, 75, 74}, Operation: Operation{Operator: OpAdd, Operand: LiteralOperand(6)}, Divisor: 19, IfTrue: 1, IfFalse: 0},
	}
}

// mustNewEngine builds an engine or fails the test.
func mustNewEngine(t *testing.T, defs []HandlerDef, cfg RunConfig) *Engine {
	t.Helper()
	e, err := NewEngine(defs, cfg)
	if err != nil {
		t.Fatalf("NewEngine: unexpected error: %v", err)
	}
	return e
}

// countsOf returns the inspection counts in handler id order.
func countsOf(e *Engine) []int64 {
	out := make([]int64, len(e.Handlers))
	for i, h := range e.Handlers {
		out[i] = h.Inspected
	}
	return out
}

// queueStrings returns a handler's queued values as strings.
func queueStrings(h *Handler) []string {
	items := h.Items()
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = v.String()
	}
	return out
}
