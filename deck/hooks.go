package deck

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
	"github.com/Yuxuannie/my-work-scripts-sub003/config"
	"github.com/Yuxuannie/my-work-scripts-sub003/spice"
)

var (
	ErrNoQPin      = errors.New("no Q pin for data pin")
	ErrUnknownHook = errors.New("unknown deck hook")
)

// Hook rewrites the rendered lines of one deck.
type Hook func(a *arc.Info, lines []string) ([]string, error)

var hooks = map[string]Hook{
	"final_state": FinalState,
	"toggle":      Toggle,
}

type rule struct {
	name  string
	cells *regexp.Regexp
	when  string
	hook  Hook
}

func (r rule) applies(a *arc.Info) bool {
	return r.cells.MatchString(a.Cell) && (r.when == "" || r.when == a.When)
}

func newRules(cfg []config.HookRule) ([]rule, error) {
	var rules []rule
	for _, hr := range cfg {
		h, ok := hooks[hr.Hook]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownHook, hr.Hook)
		}
		re, err := regexp.Compile(hr.Cells)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %v", hr.Hook, err)
		}
		rules = append(rules, rule{name: hr.Hook, cells: re, when: hr.When, hook: h})
	}
	return rules, nil
}

// QPin returns the output pin paired with data pin d: D -> Q, D3 -> Q3.
func QPin(a *arc.Info, d string) (string, error) {
	if !strings.HasPrefix(d, "D") {
		return "", fmt.Errorf("%w %s: not a data pin", ErrNoQPin, d)
	}
	q := "Q" + strings.TrimPrefix(d, "D")
	for _, p := range a.Pins {
		if p == q {
			return q, nil
		}
	}
	return "", fmt.Errorf("%w %s on %s", ErrNoQPin, d, a.Cell)
}

// FinalState points the final_state measurements at the Q pin paired with
// the arc's data pin and flips their comparison when Q is expected to end
// low: falling data, or an enable held off by the when clause.
// Arcs whose related pin is not a data pin are left alone.
func FinalState(a *arc.Info, lines []string) ([]string, error) {
	if !strings.HasPrefix(a.RelPin, "D") {
		return lines, nil
	}
	q, err := QPin(a, a.RelPin)
	if err != nil {
		return nil, err
	}

	flip := a.RelPinDir == "fall"
	if v, ok := arc.WhenState(a.When, "E"); ok && v == '0' {
		flip = !flip
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if isFinalState(line) {
			line = strings.ReplaceAll(line, "v(Q)", "v("+q+")")
			if flip {
				line = flipComparison(line)
			}
		}
		out = append(out, line)
	}
	return out, nil
}

func isFinalState(line string) bool {
	st := spice.ParseLine(0, line)
	return (st.Is(".meas") || st.Is(".measure")) && strings.Contains(line, "final_state")
}

var comparisonReplacer = strings.NewReplacer(">", "<", "<", ">")

func flipComparison(line string) string {
	return comparisonReplacer.Replace(line)
}

const toggleMarker = "*@toggle"

// Toggle turns the source following each "*@toggle PIN" marker into a DC
// source when the when clause holds PIN, and adds DC sources before .end
// for pins at a fixed level that the deck does not drive.
func Toggle(a *arc.Info, lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	driven := make(map[string]bool)

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		fields := strings.Fields(line)

		if len(fields) == 2 && fields[0] == toggleMarker && i+1 < len(lines) {
			pin := fields[1]
			out = append(out, line)
			i++
			if v, ok := arc.WhenState(a.When, pin); ok {
				out = append(out, dcSource(pin, v))
			} else {
				out = append(out, lines[i])
			}
			driven[pin] = true
			continue
		}

		st := spice.ParseLine(i+1, line)
		if st.IsSource() && len(st.Args) > 0 {
			driven[st.Args[0]] = true
		}

		if st.Is(".end") {
			for j, pin := range a.Pins {
				if driven[pin] || j >= len(a.Vector) {
					continue
				}
				if v := a.Vector[j]; v == '0' || v == '1' {
					out = append(out, dcSource(pin, v))
				}
			}
		}
		out = append(out, line)
	}
	return out, nil
}

func dcSource(pin string, level byte) string {
	v := "0"
	if level == '1' {
		v = "'vdd'"
	}
	return fmt.Sprintf("V%s %s 0 dc %s", pin, pin, v)
}
