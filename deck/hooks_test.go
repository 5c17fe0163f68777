package deck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
	"github.com/Yuxuannie/my-work-scripts-sub003/config"
)

func TestFinalState(t *testing.T) {
	lines := []string{
		".meas tran final_state find v(Q) at=9n",
		".meas tran final_state_ok param='final_state > 0.5*vdd'",
		".meas tran delay trig v(CP) val=0.5 targ v(Q) val=0.5",
	}

	tests := map[string]struct {
		relPin string
		relDir string
		when   string
		pins   []string
		want   []string
	}{
		"rising data": {
			relPin: "D", relDir: "rise", when: "E",
			pins: []string{"D", "CP", "E", "Q"},
			want: lines,
		},
		"falling data": {
			relPin: "D", relDir: "fall", when: "E",
			pins: []string{"D", "CP", "E", "Q"},
			want: []string{lines[0], ".meas tran final_state_ok param='final_state < 0.5*vdd'", lines[2]},
		},
		"enable held off": {
			relPin: "D", relDir: "rise", when: "!E&!TE",
			pins: []string{"D", "CP", "E", "TE", "Q"},
			want: []string{lines[0], ".meas tran final_state_ok param='final_state < 0.5*vdd'", lines[2]},
		},
		"second bit": {
			relPin: "D2", relDir: "rise",
			pins: []string{"D1", "D2", "CP", "Q1", "Q2"},
			want: []string{".meas tran final_state find v(Q2) at=9n", lines[1], lines[2]},
		},
		"not a data arc": {
			relPin: "SE", relDir: "fall",
			pins: []string{"SE", "CP"},
			want: lines,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a := &arc.Info{Cell: "MB", RelPin: test.relPin, RelPinDir: test.relDir, When: test.when, Pins: test.pins}
			got, err := FinalState(a, lines)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestQPin(t *testing.T) {
	a := &arc.Info{Cell: "MB", Pins: []string{"D1", "Q1", "D2"}}

	q, err := QPin(a, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Q1", q)

	_, err = QPin(a, "D2")
	assert.True(t, errors.Is(err, ErrNoQPin))
	_, err = QPin(a, "SE")
	assert.True(t, errors.Is(err, ErrNoQPin))
}

func TestToggle(t *testing.T) {
	a := &arc.Info{
		When:   "!SE",
		Vector: "RF01x",
		Pins:   []string{"CP", "D", "SE", "E", "Q"},
	}
	lines := []string{
		"*@toggle SE",
		"VSE SE 0 pwl(0 0 1n 'vdd')",
		"*@toggle CP",
		"VCP CP 0 pwl(0 0 1n 'vdd')",
		"VD D 0 pwl(0 'vdd' 1n 0)",
		".end",
	}

	got, err := Toggle(a, lines)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"*@toggle SE",
		"VSE SE 0 dc 0",
		"*@toggle CP",
		"VCP CP 0 pwl(0 0 1n 'vdd')",
		"VD D 0 pwl(0 'vdd' 1n 0)",
		"VE E 0 dc 'vdd'",
		".end",
	}, got)
}

func TestMonteCarlo(t *testing.T) {
	mc := config.MonteCarlo{Enabled: true, Samples: 10, LibNominal: "tt", LibMC: "mc"}

	got := monteCarlo([]string{
		".lib 'models.lib' tt",
		".lib 'other.lib' ff",
		".TRAN 1p 10n",
		".tran 1p 5n sweep monte=3",
		".tran 1p 5n MONTE=4",
		".tran 1p 5n SWEEP data=corners",
		"",
		"* tt corner",
	}, mc)

	assert.Equal(t, []string{
		".lib 'models.lib' mc",
		".lib 'other.lib' ff",
		".TRAN 1p 10n sweep monte=10",
		".tran 1p 5n sweep monte=3",
		".tran 1p 5n MONTE=4",
		".tran 1p 5n SWEEP data=corners",
		"",
		"* tt corner",
	}, got)
}

func TestPinState(t *testing.T) {
	a := &arc.Info{Vector: "RF0", Pins: []string{"CP", "D", "E"}}
	assert.Equal(t, "0", pinState(a, "E"))
	assert.Equal(t, "x", pinState(a, "Q"))
}
