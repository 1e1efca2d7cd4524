package notes

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/round-sim/sim"
)

// Document is the YAML form of a simulation input.
// Run is nil when the document carries no run section.
type Document struct {
	Run      *sim.RunConfig   `yaml:"run,omitempty"`
	Handlers []sim.HandlerDef `yaml:"handlers"`
}

// Input formats accepted by Load.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatYAML = "yaml"
)

// ValidFormats is the set of recognized input format names.
var ValidFormats = map[string]bool{"": true, FormatAuto: true, FormatText: true, FormatYAML: true}

// DecodeYAML parses a YAML document. Uses strict parsing: unrecognized keys
// (typos) are rejected.
func DecodeYAML(r io.Reader) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("parsing handler document: empty input")
		}
		return nil, fmt.Errorf("parsing handler document: %w", err)
	}
	return &doc, nil
}

// LoadYAML reads and parses a YAML handler document.
func LoadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading handler document: %w", err)
	}
	doc, err := DecodeYAML(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Run == nil {
		logrus.Debugf("%s has no run section; run configuration comes from flags", path)
	}
	return doc, nil
}

// WriteYAML encodes doc to w.
func WriteYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding handler document: %w", err)
	}
	return enc.Close()
}

// DetectFormat resolves FormatAuto from the file extension: .yaml and .yml
// are YAML, anything else is text notes.
func DetectFormat(path, format string) (string, error) {
	if !ValidFormats[format] {
		return "", fmt.Errorf("unknown input format %q; valid: auto, text, yaml", format)
	}
	if format != "" && format != FormatAuto {
		return format, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return FormatText, nil
	}
}

// Load reads handler definitions from path in the given format. Text notes
// produce a Document with a nil Run.
func Load(path, format string) (*Document, error) {
	resolved, err := DetectFormat(path, format)
	if err != nil {
		return nil, err
	}
	if resolved == FormatYAML {
		return LoadYAML(path)
	}
	defs, err := ParseTextFile(path)
	if err != nil {
		return nil, err
	}
	return &Document{Handlers: defs}, nil
}
