package deck

import (
	"strconv"
	"strings"

	"github.com/Yuxuannie/my-work-scripts-sub003/config"
	"github.com/Yuxuannie/my-work-scripts-sub003/spice"
)

// monteCarlo derives the Monte Carlo deck from the nominal one.
func monteCarlo(lines []string, mc config.MonteCarlo) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		st := spice.ParseLine(i+1, line)

		switch {
		case st.Is(".tran"):
			if !isSweep(st) {
				line = strings.TrimRight(line, " \t") + " sweep monte=" + strconv.Itoa(mc.Samples)
			}
		case st.Is(".lib"):
			if n := len(st.Args); n > 1 && st.Args[n-1] == mc.LibNominal {
				at := strings.LastIndex(line, mc.LibNominal)
				line = line[:at] + mc.LibMC + line[at+len(mc.LibNominal):]
			}
		}
		out = append(out, line)
	}
	return out
}

// isSweep reports whether a .tran statement already sweeps.
func isSweep(st spice.Statement) bool {
	if _, ok := st.Prop("monte"); ok {
		return true
	}
	for _, arg := range st.Args {
		if strings.EqualFold(arg, "sweep") {
			return true
		}
	}
	return false
}
