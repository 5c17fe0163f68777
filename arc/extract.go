package arc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Yuxuannie/my-work-scripts-sub003/chartcl"
	"github.com/Yuxuannie/my-work-scripts-sub003/config"
	"github.com/Yuxuannie/my-work-scripts-sub003/constraint"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
)

// Extractor enumerates arcs. Config must be validated beforehand.
type Extractor struct {
	Config *config.Options
	Logger *logger.Logger
}

// Extract returns one Info per cell x arc x arc type x when x table point x
// slew breakpoint, in that nesting order. ctx may be nil.
func (e *Extractor) Extract(tmpl *constraint.Template, ctx *chartcl.Context) ([]*Info, error) {
	log := logger.Or(e.Logger).With("component", "extract")
	cfg := e.Config

	points, err := cfg.Points()
	if err != nil {
		return nil, err
	}

	var arcs []*Info
	var cells int

	err = tmpl.Each(func(cell *constraint.Cell) error {
		if !matchAny(cfg.Cells, cell.Name) {
			return nil
		}
		cells++

		for _, a := range cell.Arcs {
			more, err := e.cellArc(cell, a, ctx, points, log)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", cell.Name, a.Line, err)
			}
			arcs = append(arcs, more...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := CheckDirs(arcs); err != nil {
		return nil, err
	}

	log.Infof("extracted %d arcs from %d cells", len(arcs), cells)
	return arcs, nil
}

func (e *Extractor) cellArc(cell *constraint.Cell, a *constraint.Arc, ctx *chartcl.Context,
	points []config.Point, log *logger.Logger) ([]*Info, error) {

	cfg := e.Config

	types := cfg.ArcTypes
	if a.Type != "" {
		if !contains(cfg.ArcTypes, a.Type) {
			log.Debugf("%s %s: arc type %s not selected", cell.Name, a.Key(), a.Type)
			return nil, nil
		}
		types = []string{a.Type}
	}

	idx1, idx2 := cell.Indexes[a.Index1], cell.Indexes[a.Index2]

	whens := a.Whens
	if len(whens) == 0 {
		whens = []string{""}
	}

	var glitch, degrade, outLoad string
	if ctx != nil {
		glitch = ctx.GlitchPeak(cell.Name)
		degrade = ctx.DelayDegrade(cell.Name)
		outLoad = ctx.OutputLoad(cell.Name)
	}

	var arcs []*Info

	for _, typ := range types {
		attrs := a.Attrs(typ)
		load := cell.Load(attrs)
		slew := cell.Slew(attrs)

		resolvedLoad, err := resolveOutputLoad(outLoad, load, idx2)
		if err != nil {
			return nil, err
		}

		for _, when := range whens {
			if cfg.MaxNumWhen > 0 && countTerms(when) > cfg.MaxNumWhen {
				log.Debugf("%s %s when %q: more than %d terms", cell.Name, a.Key(), when, cfg.MaxNumWhen)
				continue
			}

			vector, pins := Vector(cell, a, when, cfg.StateFor)

			for _, pt := range tablePoints(points, idx1.Len(), idx2.Len()) {
				for _, k := range breakpoints(slew) {
					info, err := newInfo(Info{
						Cell:         cell.Name,
						ArcType:      typ,
						Pin:          a.Pin,
						PinDir:       a.Direction,
						RelPin:       a.RelatedPin,
						RelPinDir:    a.RelatedDirection,
						When:         when,
						Index1:       pt.X,
						Index2:       pt.Y,
						Index3:       k,
						Index1Value:  idx1.Raw[pt.X-1],
						Index2Value:  idx2.Raw[pt.Y-1],
						Index3Value:  breakpointValue(slew, k),
						OutputLoad:   resolvedLoad,
						GlitchPeak:   glitch,
						DelayDegrade: degrade,
						Vector:       vector,
						Pins:         pins,
						Template:     cfg.TemplateFor(typ),
					})
					if err != nil {
						return nil, err
					}
					arcs = append(arcs, info)
				}
			}
		}
	}

	return arcs, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// tablePoints returns the selected points inside an n1 x n2 table, or all
// of them, index_1 major.
func tablePoints(selected []config.Point, n1, n2 int) (points []config.Point) {
	if selected == nil {
		for i := 1; i <= n1; i++ {
			for j := 1; j <= n2; j++ {
				points = append(points, config.Point{X: i, Y: j})
			}
		}
		return
	}
	for _, p := range selected {
		if p.X <= n1 && p.Y <= n2 {
			points = append(points, p)
		}
	}
	return
}

func breakpoints(slew *constraint.Setting) []int {
	if slew == nil {
		return []int{0}
	}
	ks := make([]int, len(slew.Points))
	for i := range ks {
		ks[i] = i + 1
	}
	return ks
}

func breakpointValue(slew *constraint.Setting, k int) string {
	if slew == nil || k == 0 {
		return ""
	}
	return slew.Points[k-1]
}

var reIndexRef = regexp.MustCompile(`^index_(\d+)$`)

// resolveOutputLoad turns "index_N" into the N-th explicit load point, or
// the N-th index_2 value when the arc has no load setting. Literal values
// pass through.
func resolveOutputLoad(v string, load *constraint.Setting, idx2 *constraint.Index) (string, error) {
	m := reIndexRef.FindStringSubmatch(v)
	if m == nil {
		return v, nil
	}

	n, _ := strconv.Atoi(m[1])
	values := idx2.Raw
	if load != nil {
		values = load.Points
	}
	if n < 1 || n > len(values) {
		return "", fmt.Errorf("output load %s out of range (%d points)", v, len(values))
	}
	return values[n-1], nil
}

// Vector returns the per-pin stimulus of an arc and the pin order it uses.
// The constrained and related pins carry R/F, when terms 1/0, other pins the
// configured default state or x.
func Vector(cell *constraint.Cell, a *constraint.Arc, when string, stateFor func(cell, pin string) string) (string, []string) {
	terms := whenTerms(when)

	pins := cell.Pins
	if len(pins) == 0 {
		pins = appendUnique(pins, a.Pin)
		if a.RelatedPin != "" {
			pins = appendUnique(pins, a.RelatedPin)
		}
		for _, t := range terms {
			pins = appendUnique(pins, t.pin)
		}
	}

	var sb strings.Builder
	for _, pin := range pins {
		switch {
		case pin == a.Pin:
			sb.WriteByte(dirChar(a.Direction))
		case pin == a.RelatedPin:
			sb.WriteByte(dirChar(a.RelatedDirection))
		default:
			if v, ok := lookupTerm(terms, pin); ok {
				sb.WriteByte(v)
			} else if s := stateOf(stateFor, cell.Name, pin); s != "" {
				sb.WriteString(s)
			} else {
				sb.WriteByte('x')
			}
		}
	}
	return sb.String(), pins
}

func stateOf(stateFor func(cell, pin string) string, cell, pin string) string {
	if stateFor == nil {
		return ""
	}
	return stateFor(cell, pin)
}

func dirChar(dir string) byte {
	if dir == "fall" {
		return 'F'
	}
	return 'R'
}

type term struct {
	pin   string
	value byte
}

// whenTerms splits "E&!TE" into E=1, TE=0.
func whenTerms(when string) (terms []term) {
	for _, t := range strings.Split(when, "&") {
		t = strings.TrimSpace(strings.Trim(t, "() "))
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "!") {
			terms = append(terms, term{strings.TrimSpace(t[1:]), '0'})
		} else {
			terms = append(terms, term{t, '1'})
		}
	}
	return
}

// WhenState returns the level a when clause pins a pin to, if any.
func WhenState(when, pin string) (byte, bool) {
	return lookupTerm(whenTerms(when), pin)
}

func lookupTerm(terms []term, pin string) (byte, bool) {
	for _, t := range terms {
		if t.pin == pin {
			return t.value, true
		}
	}
	return 0, false
}

func appendUnique(list []string, s string) []string {
	if contains(list, s) {
		return list
	}
	return append(list, s)
}
