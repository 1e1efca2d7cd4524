// sim/engine.go
package sim

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/round-sim/sim/trace"
)

// Engine is the core object that owns every handler and drives rounds.
// Handlers are visited in ascending id order; forwarded items are pushed onto
// the target's queue immediately, so a forward to a higher id is inspected in
// the same round and a forward to a lower or equal id waits for the next one.
type Engine struct {
	// Handlers is indexed by handler id. It doubles as the routing table.
	Handlers []*Handler
	Config   RunConfig
	Metrics  *Metrics
	// Trace is nil unless EnableTrace was called with a recording level.
	Trace *trace.SimulationTrace

	arith  Arithmetic
	rounds int   // rounds fully completed
	failed error // sticky: once a round fails, the engine stays failed
}

// NewEngine validates the definitions and run configuration and builds the
// engine. Any returned error is a *ConfigError; no round has run.
func NewEngine(defs []HandlerDef, cfg RunConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateHandlers(defs); err != nil {
		return nil, err
	}
	repr := cfg.ResolvedRepresentation()
	arith, err := NewArithmetic(repr, Divisors(defs))
	if err != nil {
		return nil, configErrorf(ErrCodeModulusOverflow, noHandler, "%v", err)
	}

	e := &Engine{
		Handlers: make([]*Handler, len(defs)),
		Config:   cfg,
		Metrics:  NewMetrics(),
		arith:    arith,
	}
	for i, def := range defs {
		e.Handlers[i] = NewHandler(def, arith, cfg.Relief, cfg.maxDrainInspections())
		e.Metrics.Inspections[def.ID] = 0
	}
	e.Metrics.RunID = uuid.NewString()
	e.Metrics.Representation = repr
	e.Metrics.Relief = cfg.Relief
	if ra, ok := arith.(*ResidueArithmetic); ok {
		e.Metrics.Modulus = ra.Modulus()
	}

	logrus.Infof("Engine %s ready: %d handlers, representation=%s, modulus=%d, relief=%s",
		e.Metrics.RunID, len(e.Handlers), repr, e.Metrics.Modulus, cfg.Relief)
	return e, nil
}

// EnableTrace starts recording at the given level. TraceLevelNone clears any
// existing trace.
func (e *Engine) EnableTrace(config trace.TraceConfig) {
	if !config.Enabled() {
		e.Trace = nil
		return
	}
	e.Trace = trace.NewSimulationTrace(config, e.Metrics.RunID)
}

// Arithmetic returns the value arithmetic shared by all handlers.
func (e *Engine) Arithmetic() Arithmetic {
	return e.arith
}

// Round returns the number of rounds completed so far.
func (e *Engine) Round() int {
	return e.rounds
}

// Handler returns the handler with the given id, or nil.
func (e *Engine) Handler(id int) *Handler {
	if id < 0 || id >= len(e.Handlers) {
		return nil
	}
	return e.Handlers[id]
}

// RunRound visits every handler once, in ascending id order, draining each
// queue completely before moving on.
func (e *Engine) RunRound() error {
	if e.failed != nil {
		return e.failed
	}
	round := e.rounds + 1

	var observe func(Inspection)
	if e.Trace != nil && e.Trace.Config.RecordsInspections() {
		observe = func(in Inspection) {
			e.Trace.RecordInspection(trace.InspectionRecord{
				Round:     round,
				HandlerID: in.HandlerID,
				Target:    in.Target,
				Divisible: in.Divisible,
				Value:     in.Value.String(),
			})
		}
	}

	var inspected int64
	for _, h := range e.Handlers {
		queued := h.QueueLen()
		before := h.Inspected
		if err := h.DrainAndProcess(e.Handler, observe); err != nil {
			var ierr *InvariantError
			if errors.As(err, &ierr) {
				ierr.Round = round
			}
			// inspections made before the failure still count
			e.syncMetrics(inspected + h.Inspected - before)
			logrus.Errorf("[round %05d] handler %d failed: %v", round, h.ID, err)
			e.failed = err
			return err
		}
		inspected += h.Inspected - before
		if e.Trace != nil {
			e.Trace.RecordVisit(trace.VisitRecord{
				Round:         round,
				HandlerID:     h.ID,
				QueuedAtVisit: queued,
				Inspected:     h.Inspected - before,
			})
		}
	}

	e.rounds = round
	e.Metrics.RoundsCompleted = round
	e.syncMetrics(inspected)
	logrus.Debugf("[round %05d] %d inspections", round, inspected)
	return nil
}

// syncMetrics adds inspected to the run total and copies every handler's
// counter into Metrics.
func (e *Engine) syncMetrics(inspected int64) {
	e.Metrics.TotalInspections += inspected
	for _, h := range e.Handlers {
		e.Metrics.Inspections[h.ID] = h.Inspected
	}
}

// Run executes n rounds in order, stopping at the first error.
func (e *Engine) Run(n int) error {
	if n < 0 {
		return fmt.Errorf("round count must be non-negative, got %d", n)
	}
	logrus.Infof("[round %05d] Running %d rounds", e.rounds, n)
	for i := 0; i < n; i++ {
		if err := e.RunRound(); err != nil {
			return err
		}
	}
	logrus.Infof("[round %05d] Simulation ended", e.rounds)
	return nil
}

// InspectionCounts returns handler id -> inspected count.
func (e *Engine) InspectionCounts() map[int]int64 {
	out := make(map[int]int64, len(e.Handlers))
	for _, h := range e.Handlers {
		out[h.ID] = h.Inspected
	}
	return out
}

// Report returns the product of the topK largest inspection counts.
// Ties are irrelevant to the product.
func (e *Engine) Report(topK int) (uint64, error) {
	if topK < 1 || topK > len(e.Handlers) {
		return 0, &InvariantError{
			Code:      ErrCodeReportOutOfRange,
			Round:     e.rounds,
			HandlerID: noHandler,
			Message:   fmt.Sprintf("top_k must be in [1, %d], got %d", len(e.Handlers), topK),
		}
	}
	counts := make([]uint64, len(e.Handlers))
	for i, h := range e.Handlers {
		counts[i] = uint64(h.Inspected)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })

	product := uint64(1)
	for _, c := range counts[len(counts)-topK:] {
		hi, lo := bits.Mul64(product, c)
		if hi != 0 {
			return 0, &InvariantError{
				Code:      ErrCodeReportOverflow,
				Round:     e.rounds,
				HandlerID: noHandler,
				Message:   fmt.Sprintf("product of top %d counts overflows 64 bits", topK),
			}
		}
		product = lo
	}
	return product, nil
}
