package arc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Yuxuannie/my-work-scripts-sub003/config"
)

var ErrFilterColumn = errors.New("filter: missing column")

// Filter columns. Header matching ignores case and surrounding space.
const (
	ColCell      = "CELL"
	ColArcType   = "ARC TYPE"
	ColPin       = "PIN"
	ColPinDir    = "PIN TRANSITION"
	ColRelPin    = "REL PIN"
	ColRelPinDir = "REL PIN TRAN"
	ColWhen      = "WHEN"
	ColPoint     = "POINT"
)

var filterColumns = []string{ColCell, ColArcType, ColPin, ColPinDir, ColRelPin, ColRelPinDir, ColWhen, ColPoint}

// Row is one filter entry. Point is normalized to "(x,y)".
type Row struct {
	Cell      string
	ArcType   string
	Pin       string
	PinDir    string
	RelPin    string
	RelPinDir string
	When      string
	Point     string
}

func (r Row) matches(a *Info) bool {
	return r.Cell == a.Cell &&
		r.ArcType == a.ArcType &&
		r.Pin == a.Pin &&
		r.PinDir == a.PinDir &&
		r.RelPin == a.RelPin &&
		r.RelPinDir == a.RelPinDir &&
		r.When == a.When
}

// Filter is the allow-list of arcs to simulate. A nil *Filter accepts
// every arc.
//
// In ordered mode rows are scanned in file order and the scan for an arc
// stops at the first row whose point differs from the arc's; in any mode
// every row is considered.
type Filter struct {
	Mode string
	Rows []Row
}

// LoadFilter reads a filter CSV. An empty path yields a nil Filter.
func LoadFilter(path, mode string) (*Filter, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	flt, err := ReadFilter(f, mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flt, nil
}

func ReadFilter(r io.Reader, mode string) (*Filter, error) {
	switch mode {
	case "":
		mode = config.FilterOrdered
	case config.FilterOrdered, config.FilterAny:
	default:
		return nil, fmt.Errorf("filter: unknown mode %q", mode)
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrFilterColumn)
		}
		return nil, err
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, c := range filterColumns {
		if _, ok := pos[c]; !ok {
			return nil, fmt.Errorf("%w %q", ErrFilterColumn, c)
		}
	}

	flt := &Filter{Mode: mode}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		get := func(col string) string {
			if i := pos[col]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		p, err := config.ParsePoint(get(ColPoint))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		flt.Rows = append(flt.Rows, Row{
			Cell:      get(ColCell),
			ArcType:   get(ColArcType),
			Pin:       get(ColPin),
			PinDir:    get(ColPinDir),
			RelPin:    get(ColRelPin),
			RelPinDir: get(ColRelPinDir),
			When:      get(ColWhen),
			Point:     p.String(),
		})
	}
	return flt, nil
}

// Accepts reports whether the filter selects a.
func (f *Filter) Accepts(a *Info) bool {
	if f == nil {
		return true
	}

	point := a.Point()
	for _, r := range f.Rows {
		if r.Point != point {
			if f.Mode == config.FilterAny {
				continue
			}
			return false
		}
		if r.matches(a) {
			return true
		}
	}
	return false
}

// Apply sets Valid on every arc and returns how many were accepted.
func (f *Filter) Apply(arcs []*Info) (n int) {
	for _, a := range arcs {
		a.Valid = f.Accepts(a)
		if a.Valid {
			n++
		}
	}
	return
}
