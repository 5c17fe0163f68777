package arc

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes arcs in the filter layout plus the columns Extract
// derived, so the output can be edited and fed back as a filter. A listing
// that spans several points reads back whole only in the any filter mode;
// the ordered mode stops at the first row whose point differs.
func WriteCSV(w io.Writer, arcs []*Info) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, filterColumns...), "VECTOR", "DIR", "VALID")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, a := range arcs {
		rec := []string{
			a.Cell,
			a.ArcType,
			a.Pin,
			a.PinDir,
			a.RelPin,
			a.RelPinDir,
			a.When,
			strconv.Itoa(a.Index1) + ";" + strconv.Itoa(a.Index2),
			a.Vector,
			a.Dir(),
			strconv.FormatBool(a.Valid),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// MixedPoints reports whether arcs cover more than one table point.
func MixedPoints(arcs []*Info) bool {
	for _, a := range arcs {
		if a.Point() != arcs[0].Point() {
			return true
		}
	}
	return false
}
