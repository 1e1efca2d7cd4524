// Defines the Handler, which inspects the items it holds and forwards each
// one to another handler's queue.

package sim

import (
	"fmt"
)

// Router resolves a handler id to its handler. It returns nil when no handler
// has that id.
type Router func(id int) *Handler

// Inspection describes one transform+route application, reported to the
// observer passed to DrainAndProcess.
type Inspection struct {
	HandlerID int
	Target    int   // handler the item was forwarded to
	Divisible bool  // predicate outcome
	Value     Value // value after transform and relief
}

// Handler owns a queue of items, a transform, a divisibility router and an
// inspection counter.
type Handler struct {
	ID        int
	Operation Operation
	Divisor   uint64
	IfTrue    int
	IfFalse   int
	// Inspected counts every item this handler has processed.
	Inspected int64

	queue    ItemQueue
	arith    Arithmetic
	relief   Relief
	literal  Value // Operation.Operand converted by arith; nil for "old"
	maxDrain int64
}

// NewHandler builds a handler from its definition, converting the starting
// items and the literal operand with arith. maxDrain bounds the inspections
// of a single DrainAndProcess call.
func NewHandler(def HandlerDef, arith Arithmetic, relief Relief, maxDrain int64) *Handler {
	h := &Handler{
		ID:        def.ID,
		Operation: def.Operation,
		Divisor:   def.Divisor,
		IfTrue:    def.IfTrue,
		IfFalse:   def.IfFalse,
		arith:     arith,
		relief:    relief,
		maxDrain:  maxDrain,
	}
	if !def.Operation.Operand.Old {
		h.literal = arith.FromLiteral(def.Operation.Operand.Literal)
	}
	for _, item := range def.Items {
		h.Enqueue(arith.FromLiteral(item))
	}
	return h
}

// Enqueue appends an item to the back of the handler's queue.
func (h *Handler) Enqueue(v Value) {
	h.queue.Enqueue(v)
}

// QueueLen returns the number of items waiting for inspection.
func (h *Handler) QueueLen() int {
	return h.queue.Len()
}

// Items returns a snapshot of the queued items, front first.
func (h *Handler) Items() []Value {
	return h.queue.Items()
}

func (h *Handler) String() string {
	return fmt.Sprintf("Handler %d: (%s, divisible by %d ? %d : %d, inspected=%d, queue=%s)",
		h.ID, h.Operation, h.Divisor, h.IfTrue, h.IfFalse, h.Inspected, &h.queue)
}

// DrainAndProcess inspects items until the queue is observably empty.
// Items routed back to this handler land on the queue being drained and are
// inspected within the same call. observe may be nil.
//
// Returned errors are *InvariantError with Round left zero; the engine fills it in.
func (h *Handler) DrainAndProcess(route Router, observe func(Inspection)) error {
	var n int64
	for h.queue.Len() > 0 {
		if n >= h.maxDrain {
			return &InvariantError{
				Code:      ErrCodeDrainLimit,
				HandlerID: h.ID,
				Message: fmt.Sprintf("visit exceeded %d inspections with %d items still queued; items keep routing back to this handler",
					h.maxDrain, h.queue.Len()),
			}
		}
		v := h.Operation.Apply(h.arith, h.queue.Peek(), h.literal)
		if h.relief.Enabled() {
			relieved, err := h.arith.FloorDiv(v, uint64(h.relief))
			if err != nil {
				return &InvariantError{Code: ErrCodeReliefWithResidue, HandlerID: h.ID, Message: err.Error()}
			}
			v = relieved
		}
		divisible, err := h.arith.DivisibleBy(v, h.Divisor)
		if err != nil {
			return &InvariantError{Code: ErrCodeUnknownDivisor, HandlerID: h.ID, Message: err.Error()}
		}
		target := h.IfFalse
		if divisible {
			target = h.IfTrue
		}
		dst := route(target)
		if dst == nil {
			return &InvariantError{
				Code:      ErrCodeMissingTarget,
				HandlerID: h.ID,
				Message:   fmt.Sprintf("route target %d has no handler", target),
			}
		}
		// the item leaves this queue only once it is known to have a destination
		h.queue.Dequeue()
		h.Inspected++
		n++
		dst.Enqueue(v)
		if observe != nil {
			observe(Inspection{HandlerID: h.ID, Target: target, Divisible: divisible, Value: v})
		}
	}
	return nil
}
