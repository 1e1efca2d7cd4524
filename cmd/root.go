package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/round-sim/sim"
	"github.com/inference-sim/round-sim/sim/notes"
	"github.com/inference-sim/round-sim/sim/trace"
)

// runOptions holds the CLI flags of the run command.
type runOptions struct {
	inputPath      string // handler notes (text) or document (YAML)
	format         string // auto, text, yaml
	profile        string // relief or bounded
	rounds         int    // rounds to run (overrides profile/document)
	relief         string // floor-division divisor or "none"
	representation string // auto, residue, exact
	topK           int    // number of busiest handlers in the report product
	maxDrain       int64  // per-visit inspection guard
	traceLevel     string // none, visits, inspections
	summarizeTrace bool   // print trace summary after the run
	resultsPath    string // JSON results file (optional)
	logLevel       string // log verbosity level
}

var runOpts runOptions

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "round-sim",
	Short: "Round-based item-passing simulator",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(runOpts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", runOpts.logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidTraceLevel(runOpts.traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, visits, inspections", runOpts.traceLevel)
		}

		doc, err := notes.Load(runOpts.inputPath, runOpts.format)
		if err != nil {
			logrus.Fatalf("unable to read handler input; %v", err)
		}
		cfg, err := resolveRunConfig(runOpts, cmd.Flags().Changed, doc)
		if err != nil {
			logrus.Fatalf("Invalid run configuration: %v", err)
		}

		logrus.Infof("Starting simulation of %d handlers for %d rounds, relief=%s, representation=%s",
			len(doc.Handlers), cfg.Rounds, cfg.Relief, cfg.ResolvedRepresentation())

		startTime := time.Now()
		engine, err := runSimulation(doc.Handlers, cfg, trace.TraceConfig{Level: trace.TraceLevel(runOpts.traceLevel)})
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		engine.Metrics.Print()
		if runOpts.summarizeTrace && engine.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(engine.Trace))
		}
		if runOpts.resultsPath != "" {
			if err := engine.Metrics.SaveResults(startTime, runOpts.resultsPath); err != nil {
				logrus.Fatalf("Saving results failed: %v", err)
			}
		}

		logrus.Info("Simulation complete.")
	},
}

// resolveRunConfig layers the run configuration: the named profile, then the
// document's run section (unless a profile was requested explicitly), then
// any flag set on the command line.
func resolveRunConfig(opts runOptions, changed func(string) bool, doc *notes.Document) (sim.RunConfig, error) {
	cfg, ok := sim.Profiles[opts.profile]
	if !ok {
		return sim.RunConfig{}, fmt.Errorf("unknown profile %q; valid: %s, %s", opts.profile, sim.ProfileRelief, sim.ProfileBounded)
	}
	if doc != nil && doc.Run != nil && !changed("profile") {
		cfg = *doc.Run
	}
	if changed("rounds") {
		cfg.Rounds = opts.rounds
	}
	if changed("relief") {
		relief, err := sim.ParseRelief(opts.relief)
		if err != nil {
			return sim.RunConfig{}, err
		}
		cfg.Relief = relief
	}
	if changed("repr") {
		cfg.Representation = sim.Representation(opts.representation)
	}
	if changed("top") {
		cfg.TopK = opts.topK
	}
	if changed("max-drain") {
		cfg.MaxDrainInspections = opts.maxDrain
	}
	if err := cfg.Validate(); err != nil {
		return sim.RunConfig{}, err
	}
	return cfg, nil
}

// runSimulation builds the engine, runs cfg.Rounds rounds and fills in the
// report product on the engine's metrics.
func runSimulation(defs []sim.HandlerDef, cfg sim.RunConfig, tc trace.TraceConfig) (*sim.Engine, error) {
	engine, err := sim.NewEngine(defs, cfg)
	if err != nil {
		return nil, err
	}
	engine.EnableTrace(tc)
	if err := engine.Run(cfg.Rounds); err != nil {
		return nil, err
	}
	topK := cfg.EffectiveTopK()
	business, err := engine.Report(topK)
	if err != nil {
		return nil, err
	}
	engine.Metrics.TopK = topK
	engine.Metrics.Business = business
	return engine, nil
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Visits               : %d (%d empty)\n", s.TotalVisits, s.EmptyVisits)
	fmt.Fprintf(w, "Inspections          : %d\n", s.TotalInspections)
	if s.UniqueTargets > 0 {
		fmt.Fprintf(w, "Divisible            : %d\n", s.DivisibleCount)
		fmt.Fprintf(w, "Same-round Forwards  : %d\n", s.SameRoundForwards)
		fmt.Fprintf(w, "Next-round Forwards  : %d\n", s.NextRoundForwards)
		fmt.Fprintf(w, "Self Forwards        : %d\n", s.SelfForwards)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&runOpts.inputPath, "input", "", "Path to handler notes (text) or handler document (.yaml)")
	runCmd.Flags().StringVar(&runOpts.format, "format", notes.FormatAuto, "Input format (auto, text, yaml)")
	runCmd.Flags().StringVar(&runOpts.logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	_ = runCmd.MarkFlagRequired("input")

	// Run configuration
	runCmd.Flags().StringVar(&runOpts.profile, "profile", sim.ProfileRelief, "Run profile: relief (20 rounds, relief 3) or bounded (10000 rounds, no relief)")
	runCmd.Flags().IntVar(&runOpts.rounds, "rounds", 0, "Number of rounds (overrides profile)")
	runCmd.Flags().StringVar(&runOpts.relief, "relief", "none", "Relief divisor applied after each transform, or none (overrides profile)")
	runCmd.Flags().StringVar(&runOpts.representation, "repr", string(sim.RepresentationAuto), "Value representation (auto, residue, exact)")
	runCmd.Flags().IntVar(&runOpts.topK, "top", sim.DefaultTopK, "Number of busiest handlers multiplied in the report")
	runCmd.Flags().Int64Var(&runOpts.maxDrain, "max-drain", sim.DefaultMaxDrainInspections, "Max inspections in a single handler visit")

	// Tracing and output
	runCmd.Flags().StringVar(&runOpts.traceLevel, "trace", string(trace.TraceLevelNone), "Trace level (none, visits, inspections)")
	runCmd.Flags().BoolVar(&runOpts.summarizeTrace, "summarize-trace", false, "Print trace summary after the run")
	runCmd.Flags().StringVar(&runOpts.resultsPath, "results-path", "", "Write JSON results to this file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
