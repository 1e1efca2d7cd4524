// Implements the ItemQueue, which holds the items a handler has yet to inspect.
// Items are enqueued when a handler forwards them, or at setup from the
// starting items.

package sim

import (
	"fmt"
	"strings"
)

// ItemQueue is a FIFO queue of item values held by one handler.
type ItemQueue struct {
	queue []Value // FIFO queue of items
}

// Enqueue adds an item to the back of the queue.
func (q *ItemQueue) Enqueue(v Value) {
	if v == nil {
		panic("Enqueue: v must not be nil")
	}
	q.queue = append(q.queue, v)
}

func (q *ItemQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range q.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of items in the queue.
func (q *ItemQueue) Len() int {
	return len(q.queue)
}

// Peek returns the item at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (q *ItemQueue) Peek() Value {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Items returns a copy of the queue contents, front first.
func (q *ItemQueue) Items() []Value {
	out := make([]Value, len(q.queue))
	copy(out, q.queue)
	return out
}

// Dequeue removes and returns the item at the front of the queue.
// Returns nil if the queue is empty.
func (q *ItemQueue) Dequeue() Value {
	if len(q.queue) == 0 {
		return nil
	}
	v := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	if len(q.queue) == 0 {
		q.queue = nil
	}
	return v
}
