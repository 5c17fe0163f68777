// Package arc enumerates the timing arcs of parsed cells, narrows them with
// an optional filter and names the deck directory of each one.
package arc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gohugoio/hashstructure"
)

var (
	ErrDuplicateDir = errors.New("duplicate arc directory")
	ErrInvalidArc   = errors.New("invalid arc")
)

// Info is one fully resolved arc. Extract creates it; Filter.Apply sets
// Valid and Estimate sets the CPU fields.
type Info struct {
	Cell      string
	ArcType   string
	Pin       string
	PinDir    string
	RelPin    string
	RelPinDir string
	When      string

	Index1 int
	Index2 int
	Index3 int // 0 when the arc has no slew breakpoint

	Index1Value string
	Index2Value string
	Index3Value string

	OutputLoad   string
	GlitchPeak   string
	DelayDegrade string

	Vector   string
	Pins     []string
	Template string

	Valid bool

	NominalCPU time.Duration `hash:"ignore"`
	MonteCPU   time.Duration `hash:"ignore"`
}

func newInfo(a Info) (*Info, error) {
	switch {
	case a.Cell == "":
		return nil, fmt.Errorf("%w: no cell", ErrInvalidArc)
	case a.ArcType == "":
		return nil, fmt.Errorf("%w: %s has no arc type", ErrInvalidArc, a.Cell)
	case a.Pin == "":
		return nil, fmt.Errorf("%w: %s %s has no pin", ErrInvalidArc, a.Cell, a.ArcType)
	case !isDirection(a.PinDir):
		return nil, fmt.Errorf("%w: %s %s pin direction %q", ErrInvalidArc, a.Cell, a.Pin, a.PinDir)
	case a.RelPin != "" && !isDirection(a.RelPinDir):
		return nil, fmt.Errorf("%w: %s %s related direction %q", ErrInvalidArc, a.Cell, a.RelPin, a.RelPinDir)
	case a.Index1 < 1 || a.Index2 < 1 || a.Index3 < 0:
		return nil, fmt.Errorf("%w: %s bad table point (%d,%d,%d)", ErrInvalidArc, a.Cell, a.Index1, a.Index2, a.Index3)
	}
	return &a, nil
}

func isDirection(v string) bool {
	return v == "rise" || v == "fall"
}

// Point is the (index_1,index_2) table point, e.g. "(1,1)".
func (a *Info) Point() string {
	return fmt.Sprintf("(%d,%d)", a.Index1, a.Index2)
}

// Terms returns the number of &-separated terms of the when clause.
func (a *Info) Terms() int {
	return countTerms(a.When)
}

func countTerms(when string) int {
	if strings.TrimSpace(when) == "" {
		return 0
	}
	return len(strings.Split(when, "&"))
}

// Dir is the deck directory name:
// type_cell_pin_pinDir_relPin_relPinDir_when_i-j[-k]_vector.
func (a *Info) Dir() string {
	point := strconv.Itoa(a.Index1) + "-" + strconv.Itoa(a.Index2)
	if a.Index3 > 0 {
		point += "-" + strconv.Itoa(a.Index3)
	}
	fields := []string{
		a.ArcType,
		a.Cell,
		a.Pin,
		a.PinDir,
		a.RelPin,
		a.RelPinDir,
		WhenName(a.When),
		point,
		a.Vector,
	}
	for i, f := range fields {
		if f == "" {
			fields[i] = "NA"
		}
	}
	return strings.Join(fields, "_")
}

var whenReplacer = strings.NewReplacer(
	"&", "_",
	"!", "not",
	"|", "_or_",
	" ", "",
	"(", "",
	")", "",
)

// WhenName makes a when clause usable in a file name: "E&!TE" -> "E_notTE".
func WhenName(when string) string {
	return whenReplacer.Replace(when)
}

// Fingerprint identifies the arc's content. The CPU estimates and the
// validity flag do not take part.
func (a *Info) Fingerprint() (uint64, error) {
	v := *a
	v.Valid = false
	return hashstructure.Hash(v, nil)
}

func (a *Info) String() string {
	return fmt.Sprintf("%s %s %s/%s <- %s/%s when %q at %s",
		a.ArcType, a.Cell, a.Pin, a.PinDir, a.RelPin, a.RelPinDir, a.When, a.Point())
}

// CheckDirs fails on the first two arcs sharing a directory name.
func CheckDirs(arcs []*Info) error {
	seen := make(map[string]*Info, len(arcs))
	for _, a := range arcs {
		dir := a.Dir()
		if other, ok := seen[dir]; ok {
			return fmt.Errorf("%w: %s (%v and %v)", ErrDuplicateDir, dir, other, a)
		}
		seen[dir] = a
	}
	return nil
}

// ValidArcs returns the arcs marked valid, in order.
func ValidArcs(arcs []*Info) (valid []*Info) {
	for _, a := range arcs {
		if a.Valid {
			valid = append(valid, a)
		}
	}
	return
}
