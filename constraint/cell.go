package constraint

import (
	"fmt"
	"strings"
)

type SettingKind int

const (
	Load SettingKind = iota
	Slew
)

func (k SettingKind) String() string {
	switch k {
	case Load:
		return "load"
	case Slew:
		return "slew"
	}
	return fmt.Sprintf("SettingKind(%d)", int(k))
}

// Index is one named breakpoint table, e.g. index_1 {0.005 0.02 0.08}.
type Index struct {
	Name   string
	Values []float64
	Raw    []string
}

func (i *Index) Len() int { return len(i.Values) }

type Flag struct {
	Name  string
	Value string
}

// Setting is an explicit load or slew breakpoint list that applies to the
// arcs whose attributes agree with every flag.
type Setting struct {
	Kind   SettingKind
	Key    string
	Flags  []Flag
	Points []string
	Line   int
}

// Matches reports whether every flag of s agrees with attrs. Flags the arc
// does not know about never match.
func (s *Setting) Matches(attrs map[string]string) bool {
	for _, f := range s.Flags {
		if v, ok := attrs[f.Name]; !ok || v != f.Value {
			return false
		}
	}
	return true
}

// Arc is one define_arc line of a cell block.
type Arc struct {
	Type             string
	Pin              string
	Direction        string
	RelatedPin       string
	RelatedDirection string
	Index1           string
	Index2           string
	Whens            []string
	Line             int
}

// Key is the {pin}-{direction} association the arc is filed under.
func (a *Arc) Key() string {
	return a.Pin + "-" + a.Direction
}

// Attrs returns the arc's attributes under the flag names settings use.
func (a *Arc) Attrs(arcType string) map[string]string {
	attrs := map[string]string{
		"from":           a.Pin,
		"from_direction": a.Direction,
	}
	if arcType != "" {
		attrs["type"] = arcType
	}
	if a.RelatedPin != "" {
		attrs["to"] = a.RelatedPin
		attrs["to_direction"] = a.RelatedDirection
	}
	return attrs
}

// Cell is everything the template file says about one standard cell.
type Cell struct {
	Name    string
	Line    int
	Indexes map[string]*Index
	Loads   []*Setting
	Slews   []*Setting
	Arcs    []*Arc
	Pins    []string
	Whens   []string
}

func newCell(name string, line int) *Cell {
	return &Cell{
		Name:    name,
		Line:    line,
		Indexes: make(map[string]*Index),
	}
}

// Load returns the first load setting matching the arc attributes.
func (c *Cell) Load(attrs map[string]string) *Setting {
	return firstMatch(c.Loads, attrs)
}

// Slew returns the first slew setting matching the arc attributes.
func (c *Cell) Slew(attrs map[string]string) *Setting {
	return firstMatch(c.Slews, attrs)
}

func firstMatch(settings []*Setting, attrs map[string]string) *Setting {
	for _, s := range settings {
		if s.Matches(attrs) {
			return s
		}
	}
	return nil
}

func (c *Cell) addWhen(when string) {
	for _, w := range c.Whens {
		if w == when {
			return
		}
	}
	c.Whens = append(c.Whens, when)
}

func (c *Cell) String() string {
	return fmt.Sprintf("%s: %d indexes, %d loads, %d slews, %d arcs, pins [%s]",
		c.Name, len(c.Indexes), len(c.Loads), len(c.Slews), len(c.Arcs),
		strings.Join(c.Pins, " "))
}

// Template is the parsed constraint-template file. Names keeps the file
// order of the retained cells.
type Template struct {
	File  string
	Cells map[string]*Cell
	Names []string
}

func (t *Template) Cell(name string) (*Cell, bool) {
	c, ok := t.Cells[name]
	return c, ok
}

// Each calls fn on the cells in file order.
func (t *Template) Each(fn func(*Cell) error) error {
	for _, name := range t.Names {
		if err := fn(t.Cells[name]); err != nil {
			return err
		}
	}
	return nil
}

// Direction maps the HL/LH suffix notation to fall/rise. Other values are
// returned unchanged.
func Direction(v string) string {
	switch {
	case strings.HasSuffix(v, "HL"):
		return "fall"
	case strings.HasSuffix(v, "LH"):
		return "rise"
	}
	return v
}
