// Package chartcl reads the characterization control file: global set_var
// thresholds plus per-cell constraint overrides.
package chartcl

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	GlitchPeak   = "constraint_glitch_peak"
	DelayDegrade = "constraint_delay_degrade"
	OutputLoad   = "constraint_output_load"

	LogicHigh = "logic_high_threshold"
	LogicLow  = "logic_low_threshold"
	SlewUpper = "slew_derate_upper_threshold"
	SlewLower = "slew_derate_lower_threshold"
)

var (
	ErrMissingThreshold = errors.New("missing threshold")
	ErrBadValue         = errors.New("bad value")
	ErrEmptyValue       = errors.New("empty value")
	ErrUnbalancedBraces = errors.New("unbalanced braces")
)

type Dialect int

const (
	Traditional Dialect = iota
	SIS
)

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "", "traditional":
		return Traditional, nil
	case "sis":
		return SIS, nil
	}
	return Traditional, fmt.Errorf("unknown chartcl dialect %q", s)
}

func (d Dialect) String() string {
	if d == SIS {
		return "sis"
	}
	return "traditional"
}

// sisSynonyms maps sis-derived variable names onto the traditional ones.
var sisSynonyms = map[string]string{
	"cratering_threshold":     "mpw_input_threshold",
	"glitch_threshold":        GlitchPeak,
	"delay_degrade_threshold": DelayDegrade,
	"output_load_index":       OutputLoad,
	"logic_threshold_high":    LogicHigh,
	"logic_threshold_low":     LogicLow,
	"slew_upper_threshold":    SlewUpper,
	"slew_lower_threshold":    SlewLower,
}

// Canonical returns the traditional name of a variable in dialect d.
func (d Dialect) Canonical(name string) string {
	if d == SIS {
		if v, ok := sisSynonyms[name]; ok {
			return v
		}
	}
	return name
}

// Names returns the names dialect d accepts for the traditional variables,
// longest first.
func (d Dialect) Names(canonical ...string) []string {
	names := append([]string{}, canonical...)
	if d == SIS {
		for syn, name := range sisSynonyms {
			if slices.Contains(canonical, name) {
				names = append(names, syn)
			}
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		if n := cmp.Compare(len(b), len(a)); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})
	return names
}

// Condition holds the overrides a chartcl file sets for one cell. Empty
// fields fall back to the global variables.
type Condition struct {
	GlitchPeak   string
	DelayDegrade string
	OutputLoad   string
}

// Context is the parsed control file. It is not modified after Parse.
type Context struct {
	File       string
	Dialect    Dialect
	Vars       map[string]string
	Conditions map[string]*Condition
	SlewDerate float64
}

func (c *Context) Var(name string) (string, bool) {
	v, ok := c.Vars[name]
	return v, ok
}

func (c *Context) GlitchPeak(cell string) string {
	if cond, ok := c.Conditions[cell]; ok && cond.GlitchPeak != "" {
		return cond.GlitchPeak
	}
	return c.Vars[GlitchPeak]
}

func (c *Context) DelayDegrade(cell string) string {
	if cond, ok := c.Conditions[cell]; ok && cond.DelayDegrade != "" {
		return cond.DelayDegrade
	}
	return c.Vars[DelayDegrade]
}

func (c *Context) OutputLoad(cell string) string {
	if cond, ok := c.Conditions[cell]; ok && cond.OutputLoad != "" {
		return cond.OutputLoad
	}
	return c.Vars[OutputLoad]
}

// ParseError locates a failure in the control file. Line is 0 when the
// failure concerns the file as a whole.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
