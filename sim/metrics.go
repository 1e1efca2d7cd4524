// Tracks run-wide and per-handler statistics such as:
// inspections per handler, rounds completed, and the ranked report product.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// Metrics aggregates statistics about the run for final reporting.
type Metrics struct {
	RunID            string         // unique per engine, for correlating logs, traces and results
	Representation   Representation // resolved value representation
	Modulus          uint64         // lcm(D) for the residue representation, 0 otherwise
	Relief           Relief         // floor-division divisor (0 = none)
	RoundsCompleted  int            // rounds fully drained
	TotalInspections int64          // sum of all handler inspections
	Inspections      map[int]int64  // handler ID -> inspections so far
	TopK             int            // width of the report product (0 = not computed)
	Business         uint64         // product of the TopK largest inspection counts
}

// NewMetrics returns an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Inspections: make(map[int]int64),
	}
}

// HandlerCount is the per-handler entry of MetricsOutput.
type HandlerCount struct {
	HandlerID int   `json:"handler_id"`
	Inspected int64 `json:"inspected"`
}

// MetricsOutput is the JSON document written by SaveResults.
type MetricsOutput struct {
	RunID               string         `json:"run_id"`
	Representation      string         `json:"representation"`
	Modulus             uint64         `json:"modulus,omitempty"`
	Relief              string         `json:"relief"`
	RoundsCompleted     int            `json:"rounds_completed"`
	TotalInspections    int64          `json:"total_inspections"`
	Inspections         []HandlerCount `json:"inspections"`
	TopK                int            `json:"top_k,omitempty"`
	Business            uint64         `json:"business,omitempty"`
	SimulationDurationS float64        `json:"simulation_duration_s"`
}

// sortedCounts returns the per-handler counts in ascending handler order.
func (m *Metrics) sortedCounts() []HandlerCount {
	out := make([]HandlerCount, 0, len(m.Inspections))
	for id, n := range m.Inspections {
		out = append(out, HandlerCount{HandlerID: id, Inspected: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HandlerID < out[j].HandlerID })
	return out
}

// Fprint writes a human-readable summary of the run to w.
func (m *Metrics) Fprint(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Representation       : %s\n", m.Representation)
	if m.Modulus != 0 {
		fmt.Fprintf(w, "Modulus              : %d\n", m.Modulus)
	}
	fmt.Fprintf(w, "Relief               : %s\n", m.Relief)
	fmt.Fprintf(w, "Rounds Completed     : %d\n", m.RoundsCompleted)
	fmt.Fprintf(w, "Total Inspections    : %d\n", m.TotalInspections)
	for _, hc := range m.sortedCounts() {
		fmt.Fprintf(w, "Handler %d inspected items %d times.\n", hc.HandlerID, hc.Inspected)
	}
	if m.TopK > 0 {
		fmt.Fprintf(w, "Top-%d Product        : %d\n", m.TopK, m.Business)
	}
}

// Print displays the summary on stdout.
func (m *Metrics) Print() {
	m.Fprint(os.Stdout)
}

// SaveResults writes the metrics as JSON to outputPath. startTime is the
// wall-clock start of the run, used for the duration field.
func (m *Metrics) SaveResults(startTime time.Time, outputPath string) error {
	output := MetricsOutput{
		RunID:               m.RunID,
		Representation:      string(m.Representation),
		Modulus:             m.Modulus,
		Relief:              m.Relief.String(),
		RoundsCompleted:     m.RoundsCompleted,
		TotalInspections:    m.TotalInspections,
		Inspections:         m.sortedCounts(),
		TopK:                m.TopK,
		Business:            m.Business,
		SimulationDurationS: time.Since(startTime).Seconds(),
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", outputPath, err)
	}
	return nil
}
