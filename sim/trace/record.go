// Package trace provides visit and routing-decision recording for round-based runs.
// This package has no dependencies on sim/ and stores pure data types.
package trace

// VisitRecord captures one handler visit within a round.
type VisitRecord struct {
	Round         int
	HandlerID     int
	QueuedAtVisit int   // items waiting when the visit started
	Inspected     int64 // items inspected during the visit, self-forwards included
}

// InspectionRecord captures a single routing decision.
type InspectionRecord struct {
	Round     int
	HandlerID int
	Target    int
	Divisible bool
	Value     string // value after transform and relief, in the run's representation
}

// ForwardKind classifies when a forwarded item is next inspected.
type ForwardKind string

const (
	// ForwardSameRound: the target has not been visited yet this round.
	ForwardSameRound ForwardKind = "same-round"
	// ForwardNextRound: the target was already visited this round.
	ForwardNextRound ForwardKind = "next-round"
	// ForwardSelf: the item returns to the queue being drained.
	ForwardSelf ForwardKind = "self"
)

// Kind classifies the forward by comparing target and source ids, since
// handlers are visited in ascending id order.
func (r InspectionRecord) Kind() ForwardKind {
	switch {
	case r.Target > r.HandlerID:
		return ForwardSameRound
	case r.Target < r.HandlerID:
		return ForwardNextRound
	default:
		return ForwardSelf
	}
}
