package arc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yuxuannie/my-work-scripts-sub003/config"
)

func TestWhenName(t *testing.T) {
	tests := map[string]string{
		"E&!TE":    "E_notTE",
		"":         "",
		"!E & !TE": "notE_notTE",
		"(A|B)&!C": "A_or_B_notC",
		"SE":       "SE",
	}
	for when, want := range tests {
		t.Run(when, func(t *testing.T) {
			assert.Equal(t, want, WhenName(when))
		})
	}
}

func TestInfo_Dir(t *testing.T) {
	a := holdArc("E&!TE", 1, 1)
	a.Vector = "10FR"
	assert.Equal(t, "hold_MB_EXAMPLE1_CP_rise_D_fall_E_notTE_1-1_10FR", a.Dir())

	b := *a
	b.Vector = "10FR0"
	assert.NotEqual(t, a.Dir(), b.Dir())

	mpw := &Info{Cell: "X", ArcType: "min_pulse_width", Pin: "CP", PinDir: "rise", Index1: 2, Index2: 1, Index3: 3}
	assert.Equal(t, "min_pulse_width_X_CP_rise_NA_NA_NA_2-1-3_NA", mpw.Dir())
}

func TestNewInfo(t *testing.T) {
	ok := *holdArc("", 1, 1)

	tests := map[string]func(a *Info){
		"no cell":           func(a *Info) { a.Cell = "" },
		"no type":           func(a *Info) { a.ArcType = "" },
		"no pin":            func(a *Info) { a.Pin = "" },
		"bad direction":     func(a *Info) { a.PinDir = "LH" },
		"bad rel direction": func(a *Info) { a.RelPinDir = "" },
		"zero index":        func(a *Info) { a.Index1 = 0 },
	}
	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			a := ok
			modify(&a)
			_, err := newInfo(a)
			assert.True(t, errors.Is(err, ErrInvalidArc))
		})
	}

	got, err := newInfo(ok)
	require.NoError(t, err)
	assert.Equal(t, &ok, got)
}

func TestInfo_Fingerprint(t *testing.T) {
	a := holdArc("E&!TE", 1, 1)
	b := *a
	b.Valid = true
	b.NominalCPU = time.Minute

	ha, err := a.Fingerprint()
	require.NoError(t, err)
	hb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Index3 = 1
	hb, err = b.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestCheckDirs(t *testing.T) {
	a, b := holdArc("E", 1, 1), holdArc("E", 1, 1)
	err := CheckDirs([]*Info{a, b})
	assert.True(t, errors.Is(err, ErrDuplicateDir))

	b.Vector = "1R"
	assert.NoError(t, CheckDirs([]*Info{a, b}))
}

func TestEstimate(t *testing.T) {
	cfg := config.Default()
	cfg.Estimate.Seconds = map[string]float64{"hold": 10}
	cfg.MonteCarlo.Samples = 100

	a := holdArc("E", 1, 1)
	a.Pins = []string{"CP", "D", "E", "Q", "SE"}
	a.Valid = true
	b := holdArc("E", 1, 2)
	b.ArcType = "setup"

	nominal, monte := Estimate([]*Info{a, b}, &cfg)
	assert.Equal(t, 15*time.Second, a.NominalCPU)
	assert.Equal(t, 1500*time.Second, a.MonteCPU)
	assert.Equal(t, 20*time.Second, b.NominalCPU)
	assert.Equal(t, 15*time.Second, nominal)
	assert.Equal(t, 1500*time.Second, monte)

	cfg.MonteCarlo.Enabled = false
	_, monte = Estimate([]*Info{a, b}, &cfg)
	assert.Zero(t, monte)
	assert.Zero(t, a.MonteCPU)
}
