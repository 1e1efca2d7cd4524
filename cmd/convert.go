package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/round-sim/sim"
	"github.com/inference-sim/round-sim/sim/notes"
)

// --- round-sim convert ---

var (
	convertInputPath string
	convertProfile   string
	convertTo        string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert handler notes between text and YAML",
	Long:  "Convert handler notes to a YAML handler document (or back to text notes). Output is written to stdout for piping.",
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := notes.Load(convertInputPath, notes.FormatAuto)
		if err != nil {
			logrus.Fatalf("Conversion failed: %v", err)
		}
		if err := sim.ValidateHandlers(doc.Handlers); err != nil {
			logrus.Fatalf("Invalid handler definitions: %v", err)
		}
		if err := convertDocument(os.Stdout, doc, convertProfile, convertTo); err != nil {
			logrus.Fatalf("Conversion failed: %v", err)
		}
	},
}

// convertDocument writes doc to w in the target format. When profile is
// set and the document has no run section, the profile's run configuration
// is embedded in YAML output.
func convertDocument(w io.Writer, doc *notes.Document, profile, to string) error {
	switch to {
	case notes.FormatText:
		return notes.WriteText(w, doc.Handlers)
	case notes.FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q; valid: yaml, text", to)
	}
	if profile != "" && doc.Run == nil {
		cfg, ok := sim.Profiles[profile]
		if !ok {
			logrus.Warnf("unknown profile %q; writing document without a run section", profile)
		} else {
			doc.Run = &cfg
		}
	}
	return notes.WriteYAML(w, doc)
}

func init() {
	convertCmd.Flags().StringVar(&convertInputPath, "input", "", "Path to handler notes (text) or handler document (.yaml)")
	convertCmd.Flags().StringVar(&convertProfile, "profile", "", "Embed this run profile (relief, bounded) in YAML output")
	convertCmd.Flags().StringVar(&convertTo, "to", notes.FormatYAML, "Output format (yaml, text)")
	_ = convertCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(convertCmd)
}
