package chartcl

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
	"github.com/Yuxuannie/my-work-scripts-sub003/tcl"
)

// reCellCondition finds `if { ... string compare ... "CELL" ... NAME VALUE ... }`
// where NAME is an override variable of the dialect. The filler between
// anchors is bounded: blocks with more than 50 characters between anchors,
// or more than 10 before the closing brace, are not recognized. Unbounded
// filler would join unrelated blocks.
var reCellCondition = map[Dialect]*regexp.Regexp{
	Traditional: cellConditionRE(Traditional),
	SIS:         cellConditionRE(SIS),
}

func cellConditionRE(d Dialect) *regexp.Regexp {
	var names []string
	for _, name := range d.Names(GlitchPeak, DelayDegrade, OutputLoad) {
		names = append(names, regexp.QuoteMeta(name))
	}
	return regexp.MustCompile(`(?s)if\s*\{.{0,50}?string\s+compare.{0,50}?"([^"]+)".{0,50}?(` +
		strings.Join(names, "|") + `)\s+([^\s}\]]+).{0,10}?\}`)
}

var globalPrefixes = []string{"set_var ", "set_config_opt "}

type Parser struct {
	Dialect Dialect
	Logger  *logger.Logger
}

func Parse(path string, dialect Dialect) (*Context, error) {
	return (&Parser{Dialect: dialect}).Parse(path)
}

func (p *Parser) Parse(path string) (*Context, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return p.ParseReader(path, file)
}

func (p *Parser) ParseReader(name string, r io.Reader) (*Context, error) {
	log := logger.Or(p.Logger).With("component", "chartcl", "file", name)

	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	text := string(bs)
	lines := strings.Split(text, "\n")

	if err := checkBraces(name, lines); err != nil {
		return nil, err
	}

	ctx := &Context{
		File:       name,
		Dialect:    p.Dialect,
		Vars:       make(map[string]string),
		Conditions: make(map[string]*Condition),
	}

	if err := p.globals(ctx, lines); err != nil {
		return nil, err
	}
	p.conditions(ctx, text)

	if ctx.SlewDerate, err = slewDerate(ctx); err != nil {
		return nil, err
	}

	log.Infof("%d variables, %d cell overrides, slew derate %g",
		len(ctx.Vars), len(ctx.Conditions), ctx.SlewDerate)
	return ctx, nil
}

func checkBraces(name string, lines []string) error {
	depth, opened := 0, 0
	for i, line := range lines {
		delta, low, err := tcl.Depth(line)
		if err != nil {
			return &ParseError{File: name, Line: i + 1, Err: err}
		}
		if depth+low < 0 {
			return &ParseError{File: name, Line: i + 1,
				Err: fmt.Errorf("%w: '}' without matching '{'", ErrUnbalancedBraces)}
		}
		if depth == 0 && delta > 0 {
			opened = i + 1
		}
		depth += delta
	}
	if depth != 0 {
		return &ParseError{File: name, Line: opened,
			Err: fmt.Errorf("%w: '{' never closed", ErrUnbalancedBraces)}
	}
	return nil
}

// globals scans the top-level set_var lines from the bottom up so the last
// assignment of a variable wins. Indented lines belong to cell blocks.
func (p *Parser) globals(ctx *Context, lines []string) error {
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !hasGlobalPrefix(line) {
			continue
		}

		name, value, err := assignment(line)
		if err != nil {
			return &ParseError{File: ctx.File, Line: i + 1, Err: err}
		}
		if name == "" {
			continue
		}

		name = p.Dialect.Canonical(name)
		if _, seen := ctx.Vars[name]; !seen {
			ctx.Vars[name] = value
		}
	}
	return nil
}

func hasGlobalPrefix(line string) bool {
	for _, prefix := range globalPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// assignment splits `set_var [-flag value ...] name value...`. Lines with
// only flags yield an empty name.
func assignment(line string) (name, value string, err error) {
	words, err := tcl.Words(line)
	if err != nil {
		return "", "", err
	}

	rest := words[1:]
	for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
		if _, err := strconv.ParseFloat(rest[0], 64); err == nil {
			break
		}
		if len(rest) < 2 {
			return "", "", nil
		}
		rest = rest[2:]
	}
	if len(rest) == 0 {
		return "", "", nil
	}

	name = rest[0]
	if len(rest) < 2 {
		return "", "", fmt.Errorf("%w: %s", ErrEmptyValue, name)
	}
	return name, strings.Join(rest[1:], " "), nil
}

// conditions applies the per-cell overrides in file order; a later block
// for the same cell and kind replaces an earlier one.
func (p *Parser) conditions(ctx *Context, text string) {
	for _, m := range reCellCondition[p.Dialect].FindAllStringSubmatch(text, -1) {
		cell, kind, value := m[1], p.Dialect.Canonical(m[2]), m[3]

		cond, ok := ctx.Conditions[cell]
		if !ok {
			cond = &Condition{}
			ctx.Conditions[cell] = cond
		}

		switch kind {
		case GlitchPeak:
			cond.GlitchPeak = value
		case DelayDegrade:
			cond.DelayDegrade = value
		case OutputLoad:
			cond.OutputLoad = value
		}
	}
}

// slewDerate is (logic_high - logic_low) / (slew_upper - slew_lower).
func slewDerate(ctx *Context) (float64, error) {
	var v [4]float64
	for i, name := range []string{LogicHigh, LogicLow, SlewUpper, SlewLower} {
		s, ok := ctx.Vars[name]
		if !ok {
			return 0, &ParseError{File: ctx.File, Err: fmt.Errorf("%w: %s", ErrMissingThreshold, name)}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ParseError{File: ctx.File, Err: fmt.Errorf("%w: %s %q", ErrBadValue, name, s)}
		}
		v[i] = f
	}

	if v[2] == v[3] {
		return 0, &ParseError{File: ctx.File,
			Err: fmt.Errorf("%w: %s equals %s", ErrBadValue, SlewUpper, SlewLower)}
	}
	return (v[0] - v[1]) / (v[2] - v[3]), nil
}
