package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalVisits        int
	TotalInspections   int64
	EmptyVisits        int // visits that found nothing queued
	DivisibleCount     int
	SameRoundForwards  int
	NextRoundForwards  int
	SelfForwards       int
	UniqueTargets      int
	TargetDistribution map[int]int // handler ID → count of items forwarded to it
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
// Forward and target counts are only populated at TraceLevelInspections.
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalVisits = len(st.Visits)
	for _, v := range st.Visits {
		summary.TotalInspections += v.Inspected
		if v.QueuedAtVisit == 0 {
			summary.EmptyVisits++
		}
	}

	for _, r := range st.Inspections {
		summary.TargetDistribution[r.Target]++
		if r.Divisible {
			summary.DivisibleCount++
		}
		switch r.Kind() {
		case ForwardSameRound:
			summary.SameRoundForwards++
		case ForwardNextRound:
			summary.NextRoundForwards++
		default:
			summary.SelfForwards++
		}
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
