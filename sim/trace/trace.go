package trace

// TraceLevel controls the verbosity of simulation tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelVisits captures one record per handler visit.
	TraceLevelVisits TraceLevel = "visits"
	// TraceLevelInspections captures handler visits and every routing decision.
	TraceLevelInspections TraceLevel = "inspections"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelVisits:      true,
	TraceLevelInspections: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether anything is recorded at this level.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelVisits || c.Level == TraceLevelInspections
}

// RecordsInspections reports whether per-item records are kept.
func (c TraceConfig) RecordsInspections() bool {
	return c.Level == TraceLevelInspections
}

// SimulationTrace collects visit and inspection records during a run.
type SimulationTrace struct {
	Config      TraceConfig
	RunID       string
	Visits      []VisitRecord
	Inspections []InspectionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig, runID string) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		RunID:       runID,
		Visits:      make([]VisitRecord, 0),
		Inspections: make([]InspectionRecord, 0),
	}
}

// RecordVisit appends a handler visit record.
func (st *SimulationTrace) RecordVisit(record VisitRecord) {
	st.Visits = append(st.Visits, record)
}

// RecordInspection appends a routing decision record.
func (st *SimulationTrace) RecordInspection(record InspectionRecord) {
	st.Inspections = append(st.Inspections, record)
}
