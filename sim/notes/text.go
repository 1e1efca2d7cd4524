// Package notes converts handler descriptions to and from []sim.HandlerDef.
// Two formats are supported: the block-structured text notes and a strict
// YAML document that can also carry the run configuration.
package notes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/round-sim/sim"
)

// ParseError reports malformed notes. Line is 1-based.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

var (
	headerRe    = regexp.MustCompile(`(?i)^(?:monkey|handler)\s+(\d+):$`)
	itemsRe     = regexp.MustCompile(`^Starting items:\s*(.*)$`)
	operationRe = regexp.MustCompile(`^Operation:\s*new\s*=\s*old\s+(\S+)\s+(\S+)$`)
	testRe      = regexp.MustCompile(`^Test:\s*divisible by\s+(\d+)$`)
	ifTrueRe    = regexp.MustCompile(`(?i)^If true:\s*throw to (?:monkey|handler)\s+(\d+)$`)
	ifFalseRe   = regexp.MustCompile(`(?i)^If false:\s*throw to (?:monkey|handler)\s+(\d+)$`)
)

// MaxLineBytes bounds a single notes line. A "Starting items" line with
// about a million items fits.
const MaxLineBytes = 16 * 1024 * 1024

// lineScanner yields trimmed lines with their 1-based line numbers.
type lineScanner struct {
	sc   *bufio.Scanner
	line int
	text string
}

func (ls *lineScanner) next() bool {
	if !ls.sc.Scan() {
		return false
	}
	ls.line++
	ls.text = strings.TrimSpace(ls.sc.Text())
	return true
}

// expect advances to the next line and matches it against re.
func (ls *lineScanner) expect(re *regexp.Regexp, what string) ([]string, error) {
	if !ls.next() {
		return nil, &ParseError{Line: ls.line + 1, Msg: fmt.Sprintf("unexpected end of input, expected %s", what)}
	}
	m := re.FindStringSubmatch(ls.text)
	if m == nil {
		return nil, &ParseError{Line: ls.line, Msg: fmt.Sprintf("expected %s, got %q", what, ls.text)}
	}
	return m, nil
}

// ParseText reads handler blocks separated by blank lines. Definitions are
// returned sorted by id; duplicate ids are rejected. Cross-handler checks
// (contiguous ids, route targets) are left to sim.ValidateHandlers.
func ParseText(r io.Reader) ([]sim.HandlerDef, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	ls := &lineScanner{sc: sc}
	var defs []sim.HandlerDef
	seen := make(map[int]int) // id -> header line

	for ls.next() {
		if ls.text == "" {
			continue
		}
		m := headerRe.FindStringSubmatch(ls.text)
		if m == nil {
			return nil, &ParseError{Line: ls.line, Msg: fmt.Sprintf("expected handler header, got %q", ls.text)}
		}
		headerLine := ls.line
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &ParseError{Line: ls.line, Msg: fmt.Sprintf("handler id %q: %v", m[1], err)}
		}
		if prev, dup := seen[id]; dup {
			return nil, &ParseError{Line: ls.line, Msg: fmt.Sprintf("handler %d already defined on line %d", id, prev)}
		}
		seen[id] = headerLine

		def, err := parseBlock(ls, id)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := ls.sc.Err(); err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}

	sort.SliceStable(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

func parseBlock(ls *lineScanner, id int) (sim.HandlerDef, error) {
	def := sim.HandlerDef{ID: id}

	m, err := ls.expect(itemsRe, "Starting items")
	if err != nil {
		return def, err
	}
	if def.Items, err = parseItems(m[1]); err != nil {
		return def, &ParseError{Line: ls.line, Msg: err.Error()}
	}

	if m, err = ls.expect(operationRe, "Operation: new = old <op> <operand>"); err != nil {
		return def, err
	}
	op := sim.Operator(m[1])
	if !sim.ValidOperators[op] {
		return def, &ParseError{Line: ls.line, Msg: fmt.Sprintf("unsupported operator %q; valid: +, *", m[1])}
	}
	operand, err := sim.ParseOperand(m[2])
	if err != nil {
		return def, &ParseError{Line: ls.line, Msg: err.Error()}
	}
	def.Operation = sim.Operation{Operator: op, Operand: operand}

	if m, err = ls.expect(testRe, "Test: divisible by <n>"); err != nil {
		return def, err
	}
	if def.Divisor, err = strconv.ParseUint(m[1], 10, 64); err != nil {
		return def, &ParseError{Line: ls.line, Msg: fmt.Sprintf("divisor %q: %v", m[1], err)}
	}

	if m, err = ls.expect(ifTrueRe, "If true: throw to handler <id>"); err != nil {
		return def, err
	}
	if def.IfTrue, err = strconv.Atoi(m[1]); err != nil {
		return def, &ParseError{Line: ls.line, Msg: fmt.Sprintf("target %q: %v", m[1], err)}
	}

	if m, err = ls.expect(ifFalseRe, "If false: throw to handler <id>"); err != nil {
		return def, err
	}
	if def.IfFalse, err = strconv.Atoi(m[1]); err != nil {
		return def, &ParseError{Line: ls.line, Msg: fmt.Sprintf("target %q: %v", m[1], err)}
	}
	return def, nil
}

func parseItems(s string) ([]uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []uint64{}, nil
	}
	fields := strings.Split(s, ",")
	items := make([]uint64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("item %q must be a non-negative integer", strings.TrimSpace(f))
		}
		items = append(items, n)
	}
	return items, nil
}

// ParseTextFile reads text notes from path.
func ParseTextFile(path string) ([]sim.HandlerDef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening notes: %w", err)
	}
	defer func() { _ = f.Close() }()

	defs, err := ParseText(f)
	if err != nil {
		return nil, fmt.Errorf("parsing notes %s: %w", path, err)
	}
	logrus.Debugf("Parsed %d handler definitions from %s", len(defs), path)
	return defs, nil
}

// WriteText writes defs in the canonical text form accepted by ParseText.
func WriteText(w io.Writer, defs []sim.HandlerDef) error {
	bw := bufio.NewWriter(w)
	for i, d := range defs {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		items := make([]string, len(d.Items))
		for j, item := range d.Items {
			items[j] = strconv.FormatUint(item, 10)
		}
		fmt.Fprintf(bw, "Handler %d:\n", d.ID)
		if len(items) == 0 {
			fmt.Fprintln(bw, "  Starting items:")
		} else {
			fmt.Fprintf(bw, "  Starting items: %s\n", strings.Join(items, ", "))
		}
		fmt.Fprintf(bw, "  Operation: %s\n", d.Operation)
		fmt.Fprintf(bw, "  Test: divisible by %d\n", d.Divisor)
		fmt.Fprintf(bw, "    If true: throw to handler %d\n", d.IfTrue)
		fmt.Fprintf(bw, "    If false: throw to handler %d\n", d.IfFalse)
	}
	return bw.Flush()
}
