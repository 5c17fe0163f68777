// Package measure reads HSPICE measurement tables (.mt0, .mpp0) and
// summarizes their columns.
package measure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

var (
	ErrNoHeader = errors.New("measure: no alter# header")
	ErrShortRow = errors.New("measure: incomplete row")
)

const lastColumn = "alter#"

// Table holds one measurement file. Failed measurements are NaN.
type Table struct {
	Names []string
	Rows  [][]float64
}

func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func Read(r io.Reader) (*Table, error) {
	t := &Table{}
	header := true
	var row []float64

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "$") || strings.HasPrefix(strings.ToUpper(text), ".TITLE") {
			continue
		}

		for _, field := range strings.Fields(text) {
			if header {
				t.Names = append(t.Names, field)
				if field == lastColumn {
					header = false
				}
				continue
			}

			v, err := parseValue(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			row = append(row, v)
			if len(row) == len(t.Names) {
				t.Rows = append(t.Rows, row)
				row = nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if header {
		return nil, ErrNoHeader
	}
	if len(row) > 0 {
		return nil, fmt.Errorf("%w: %d of %d values", ErrShortRow, len(row), len(t.Names))
	}
	return t, nil
}

func parseValue(s string) (float64, error) {
	if strings.EqualFold(s, "failed") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	for i, n := range t.Names {
		if n != name {
			continue
		}
		col := make([]float64, len(t.Rows))
		for j, row := range t.Rows {
			col[j] = row[i]
		}
		return col, true
	}
	return nil, false
}

// Summary describes one column. Failed values are counted, not summarized.
type Summary struct {
	Name   string
	Count  int
	Failed int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%-24s n=%-5d failed=%-5d mean=%-12.5g std=%-12.5g min=%-12.5g max=%.5g",
		s.Name, s.Count, s.Failed, s.Mean, s.Std, s.Min, s.Max)
}

// Summarize returns one Summary per column, alter# excluded.
func (t *Table) Summarize() []Summary {
	var out []Summary
	for _, name := range t.Names {
		if name == lastColumn {
			continue
		}
		col, _ := t.Column(name)
		out = append(out, summarize(name, col))
	}
	return out
}

func summarize(name string, col []float64) Summary {
	s := Summary{Name: name}

	var data stats.Float64Data
	for _, v := range col {
		if math.IsNaN(v) {
			s.Failed++
			continue
		}
		data = append(data, v)
	}
	s.Count = len(data)
	if s.Count == 0 {
		return s
	}

	s.Mean, _ = stats.Mean(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	if s.Count > 1 {
		s.Std, _ = stats.StandardDeviationSample(data)
	}
	return s
}
