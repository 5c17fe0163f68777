// Package constraint parses constraint-template decks: brace-delimited TCL
// files holding one `if { $cell == "NAME" } { ... }` block per cell.
package constraint

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
	"github.com/Yuxuannie/my-work-scripts-sub003/tcl"
)

const (
	loadKeyword    = "set_load_index"
	slewKeyword    = "set_slew_index"
	loadPoints     = "explicit_points_load"
	slewPoints     = "explicit_points_slew"
	specialMarker  = "add special setting"
	templateSuffix = "_template_"
)

var reCellStart = regexp.MustCompile(`^\s*if\b.*\$cell\s*==\s*"([^"]+)"`)

const maxLine = 16 * 1024 * 1024

// Parser turns template files into Templates. Cells not starting with
// Prefix are parsed and dropped.
type Parser struct {
	Prefix string
	Logger *logger.Logger
}

func Parse(path, prefix string) (*Template, error) {
	return (&Parser{Prefix: prefix}).Parse(path)
}

func (p *Parser) Parse(path string) (*Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return p.ParseReader(path, file)
}

func (p *Parser) ParseReader(name string, r io.Reader) (*Template, error) {
	log := logger.Or(p.Logger).With("component", "constraint", "file", name)

	st := &state{
		file:  name,
		cells: make(map[string]*Cell),
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	for sc.Scan() {
		st.line++
		if err := st.feed(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	if err := st.finish(); err != nil {
		return nil, err
	}

	t := &Template{
		File:  name,
		Cells: make(map[string]*Cell),
	}
	for _, cname := range st.order {
		if !strings.HasPrefix(cname, p.Prefix) {
			log.Debugf("dropping cell %s: no %q prefix", cname, p.Prefix)
			continue
		}
		t.Cells[cname] = st.cells[cname]
		t.Names = append(t.Names, cname)
	}

	log.Infof("parsed %d cells, kept %d", len(st.order), len(t.Names))
	return t, nil
}

// state accumulates one pass over a template file.
type state struct {
	file  string
	line  int
	cells map[string]*Cell
	order []string
	cur   *Cell

	braces []int // line numbers of open braces

	special bool
	pinsSet bool
}

func (st *state) errorf(sentinel error, format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	if sentinel != nil {
		err = fmt.Errorf("%w: %v", sentinel, err)
	}
	return &ParseError{File: st.file, Line: st.line, Err: err}
}

func (st *state) feed(line string) error {
	items := tcl.NewLexer(line).Items()
	if last := items[len(items)-1]; last.Type == tcl.Error {
		return st.errorf(ErrUnterminatedToken, "%s", last.Val)
	}
	if err := st.balance(items); err != nil {
		return err
	}

	if m := reCellStart.FindStringSubmatch(line); m != nil {
		return st.startCell(m[1])
	}
	if st.cur == nil {
		return nil
	}

	trimmed := strings.TrimSpace(line)

	if st.special {
		return st.specialLine(trimmed)
	}

	switch {
	case trimmed == "":
		return nil
	case strings.Contains(trimmed, specialMarker):
		st.special = true
		return nil
	case strings.HasPrefix(trimmed, "#"):
		return nil
	case strings.HasPrefix(trimmed, loadKeyword):
		if !strings.Contains(trimmed, loadPoints) {
			return nil
		}
		return st.setting(Load, items)
	case strings.HasPrefix(trimmed, slewKeyword):
		return st.setting(Slew, items)
	case strings.Contains(trimmed, "-from") && strings.Contains(trimmed, "whens"):
		return st.arc(items)
	case strings.Contains(trimmed, templateSuffix):
		return st.index(line)
	}
	return nil
}

func (st *state) balance(items []tcl.Item) error {
	for _, item := range items {
		switch item.Type {
		case tcl.LBrace:
			st.braces = append(st.braces, st.line)
		case tcl.RBrace:
			if len(st.braces) == 0 {
				return st.errorf(ErrUnbalancedBraces, "'}' without matching '{'")
			}
			st.braces = st.braces[:len(st.braces)-1]
		}
	}
	return nil
}

func (st *state) finish() error {
	if n := len(st.braces); n > 0 {
		return &ParseError{
			File: st.file,
			Line: st.braces[n-1],
			Err:  fmt.Errorf("%w: '{' never closed", ErrUnbalancedBraces),
		}
	}
	return nil
}

func (st *state) startCell(name string) error {
	if c, ok := st.cells[name]; ok {
		return st.errorf(ErrDuplicateCell, "%s (first at line %d)", name, c.Line)
	}
	st.cur = newCell(name, st.line)
	st.cells[name] = st.cur
	st.order = append(st.order, name)
	st.special = false
	st.pinsSet = false
	return nil
}

func (st *state) specialLine(trimmed string) error {
	switch {
	case strings.HasPrefix(trimmed, "}"):
		st.special = false
		return nil
	case strings.Contains(trimmed, "whens"), strings.Contains(trimmed, "state_partitions"):
		return nil
	case st.pinsSet:
		return nil
	}

	strs := tcl.Strings(trimmed)
	if len(strs) == 0 {
		return nil
	}

	pins, err := splitPins(strs[0])
	if err != nil {
		return st.errorf(ErrEmptyValue, "pin list %q: %v", strs[0], err)
	}
	st.cur.Pins = pins
	st.pinsSet = true
	return nil
}

// splitPins turns a toggled when expression such as "!E&TE&D" into its pins.
func splitPins(expr string) ([]string, error) {
	var pins []string
	for _, term := range strings.Split(expr, "&") {
		pin := strings.TrimSpace(strings.ReplaceAll(term, "!", ""))
		if pin == "" {
			return nil, fmt.Errorf("empty term")
		}
		pins = append(pins, pin)
	}
	return pins, nil
}

func (st *state) index(line string) error {
	words, err := tcl.Words(line)
	if err != nil {
		return st.errorf(ErrUnterminatedToken, "%v", err)
	}

	pos := -1
	for i, w := range words {
		if strings.HasSuffix(w, templateSuffix) && len(w) > len(templateSuffix) {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}

	name := strings.TrimSuffix(words[pos], templateSuffix)
	raw := words[pos+1:]
	if len(raw) == 0 {
		return st.errorf(ErrEmptyValue, "index %s has no values", name)
	}
	if _, ok := st.cur.Indexes[name]; ok {
		return st.errorf(ErrDuplicateIndex, "%s in cell %s", name, st.cur.Name)
	}

	idx := &Index{Name: name, Raw: raw}
	for _, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return st.errorf(ErrBadIndexValue, "index %s: %q", name, s)
		}
		idx.Values = append(idx.Values, v)
	}
	st.cur.Indexes[name] = idx
	return nil
}

func (st *state) setting(kind SettingKind, items []tcl.Item) error {
	cur := &cursor{items: items}
	cur.next() // keyword

	s := &Setting{Kind: kind, Line: st.line}
	var found bool

loop:
	for {
		item := cur.next()
		switch {
		case item.Type == tcl.Word && (item.Val == loadPoints || item.Val == slewPoints):
			s.Points = cur.value()
			found = true
			break loop
		case item.Type == tcl.Word && isFlag(item.Val):
			v := strings.Join(cur.value(), " ")
			if v == "" {
				return st.errorf(ErrEmptyValue, "flag %s", item.Val)
			}
			s.Flags = append(s.Flags, Flag{Name: item.Val[1:], Value: Direction(v)})
		case item.Type == tcl.RBrace, item.Type == tcl.EOF, item.Type == tcl.Comment:
			break loop
		}
	}

	if !found || len(s.Points) == 0 {
		return st.errorf(ErrEmptyValue, "%s setting has no explicit points", kind)
	}
	if kind == Load {
		for i, pt := range s.Points {
			s.Points[i] = stripExponent(pt)
		}
	}

	keys := make([]string, 0, len(s.Flags))
	for _, f := range s.Flags {
		keys = append(keys, f.Name+":"+f.Value)
	}
	s.Key = strings.Join(keys, "#")

	list := &st.cur.Loads
	if kind == Slew {
		list = &st.cur.Slews
	}
	for _, other := range *list {
		if other.Key == s.Key {
			return st.errorf(ErrDuplicateSetting, "%s %q (first at line %d)", kind, s.Key, other.Line)
		}
	}
	*list = append(*list, s)
	return nil
}

// stripExponent drops the pico/nano exponent so values are in library units.
func stripExponent(v string) string {
	for _, suffix := range []string{"e-12", "e-9"} {
		if strings.HasSuffix(v, suffix) {
			return strings.TrimSuffix(v, suffix)
		}
	}
	return v
}

func (st *state) arc(items []tcl.Item) error {
	cur := &cursor{items: items}
	a := &Arc{Line: st.line, Index1: "index_1", Index2: "index_2"}

loop:
	for {
		item := cur.next()
		if item.Type == tcl.EOF || item.Type == tcl.Comment {
			break loop
		}
		if item.Type != tcl.Word {
			continue
		}
		switch item.Val {
		case "whens", "-whens":
			for _, w := range cur.value() {
				a.Whens = append(a.Whens, strings.Trim(w, `"`))
			}
			continue
		}
		if !isFlag(item.Val) {
			continue
		}
		v := strings.Join(cur.value(), " ")
		switch item.Val {
		case "-type":
			a.Type = v
		case "-from":
			a.Pin = v
		case "-from_direction":
			a.Direction = Direction(v)
		case "-to":
			a.RelatedPin = v
		case "-to_direction":
			a.RelatedDirection = Direction(v)
		case "-index_1":
			a.Index1 = v
		case "-index_2":
			a.Index2 = v
		}
	}

	switch {
	case a.Pin == "":
		return st.errorf(ErrEmptyValue, "arc without -from pin")
	case a.Direction == "":
		return st.errorf(ErrEmptyValue, "arc %s without -from_direction", a.Pin)
	case !isDirection(a.Direction):
		return st.errorf(ErrBadDirection, "arc %s: %q", a.Pin, a.Direction)
	case a.RelatedPin != "" && !isDirection(a.RelatedDirection):
		return st.errorf(ErrBadDirection, "arc %s related %s: %q", a.Pin, a.RelatedPin, a.RelatedDirection)
	}

	for _, ref := range []string{a.Index1, a.Index2} {
		if _, ok := st.cur.Indexes[ref]; !ok {
			return st.errorf(ErrMissingIndex, "arc %s refers to %s, not defined in cell %s", a.Key(), ref, st.cur.Name)
		}
	}

	for _, w := range a.Whens {
		st.cur.addWhen(w)
	}
	st.cur.Arcs = append(st.cur.Arcs, a)
	return nil
}

func isDirection(v string) bool {
	return v == "rise" || v == "fall"
}

// isFlag accepts -name but not negative numbers.
func isFlag(w string) bool {
	if len(w) < 2 || w[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(w, 64)
	return err != nil
}

// cursor walks the items of one line.
type cursor struct {
	items []tcl.Item
	pos   int
}

func (c *cursor) next() tcl.Item {
	if c.pos >= len(c.items) {
		return tcl.Item{Type: tcl.EOF}
	}
	item := c.items[c.pos]
	c.pos++
	return item
}

func (c *cursor) peek() tcl.Item {
	if c.pos >= len(c.items) {
		return tcl.Item{Type: tcl.EOF}
	}
	return c.items[c.pos]
}

// value reads one flag value: a word, a string, or a braced list which is
// flattened. A following flag or keyword is not consumed.
func (c *cursor) value() (vals []string) {
	switch item := c.peek(); item.Type {
	case tcl.Word:
		if isFlag(item.Val) {
			return nil
		}
		c.next()
		return []string{item.Val}
	case tcl.String:
		c.next()
		return []string{item.Val}
	case tcl.LBrace:
		c.next()
		depth := 1
		for depth > 0 {
			item := c.next()
			switch item.Type {
			case tcl.LBrace:
				depth++
			case tcl.RBrace:
				depth--
			case tcl.Word, tcl.String:
				vals = append(vals, item.Val)
			case tcl.EOF:
				return
			}
		}
	}
	return
}
