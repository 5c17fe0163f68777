package chartcl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	ctx, err := Parse("testdata/char.tcl", Traditional)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, ctx.SlewDerate, 1e-12)
	assert.Equal(t, "0.1", ctx.Vars[GlitchPeak])
	assert.Equal(t, "0.35", ctx.Vars[DelayDegrade])
	assert.Equal(t, "index_1", ctx.Vars[OutputLoad])
	assert.Equal(t, "0.5", ctx.Vars["mpw_input_threshold"])

	assert.Equal(t, "0.2", ctx.GlitchPeak("MB_EXAMPLE1"))
	assert.Equal(t, "index_2", ctx.OutputLoad("MB_EXAMPLE1"))
	assert.Equal(t, "0.35", ctx.DelayDegrade("MB_EXAMPLE1"))

	assert.Equal(t, "0.3", ctx.DelayDegrade("MB2EDFQD1"))
	assert.Equal(t, "0.1", ctx.GlitchPeak("MB2EDFQD1"))
	assert.Equal(t, "index_1", ctx.OutputLoad("OTHER"))

	assert.Len(t, ctx.Conditions, 2)
}

func TestParse_SIS(t *testing.T) {
	ctx, err := Parse("testdata/sis.tcl", SIS)
	require.NoError(t, err)

	assert.InDelta(t, (0.75-0.25)/(0.8-0.2), ctx.SlewDerate, 1e-12)
	assert.Equal(t, "0.45", ctx.Vars["mpw_input_threshold"])
	assert.Equal(t, "0.15", ctx.GlitchPeak("ANY"))
	assert.Equal(t, "0.25", ctx.GlitchPeak("MB_SIS1"))
	assert.Equal(t, "index_2", ctx.OutputLoad("MB_SIS1"))
	assert.Len(t, ctx.Conditions, 1)

	_, err = Parse("testdata/sis.tcl", Traditional)
	assert.True(t, errors.Is(err, ErrMissingThreshold))
}

func TestParse_MissingThreshold(t *testing.T) {
	_, err := Parse("testdata/missing_threshold.tcl", Traditional)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingThreshold))
	assert.Contains(t, err.Error(), SlewLower)
}

func TestParseReader_Errors(t *testing.T) {
	thresholds := "set_var logic_high_threshold 0.8\nset_var logic_low_threshold 0.2\n" +
		"set_var slew_derate_upper_threshold 0.9\nset_var slew_derate_lower_threshold 0.1\n"

	tests := map[string]struct {
		src      string
		wantErr  error
		wantLine int
	}{
		"bad threshold": {
			src:     strings.Replace(thresholds, "0.8", "high", 1),
			wantErr: ErrBadValue,
		},
		"equal slew thresholds": {
			src:     strings.Replace(thresholds, "0.9", "0.1", 1),
			wantErr: ErrBadValue,
		},
		"var without value": {
			src:      thresholds + "set_var constraint_glitch_peak\n",
			wantErr:  ErrEmptyValue,
			wantLine: 5,
		},
		"extra closing brace": {
			src:      thresholds + "}\n",
			wantErr:  ErrUnbalancedBraces,
			wantLine: 5,
		},
		"unclosed block": {
			src:      thresholds + "if {[string compare $cell \"X\"] == 0} {\n  set_var a 1\n",
			wantErr:  ErrUnbalancedBraces,
			wantLine: 5,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := (&Parser{}).ParseReader("test.tcl", strings.NewReader(test.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, test.wantErr), "got %v", err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, test.wantLine, perr.Line)
		})
	}
}

func TestParseReader_BoundedConditionMatch(t *testing.T) {
	base := "set_var logic_high_threshold 0.8\nset_var logic_low_threshold 0.2\n" +
		"set_var slew_derate_upper_threshold 0.9\nset_var slew_derate_lower_threshold 0.1\n"

	tests := map[string]struct {
		block string
		want  bool
	}{
		"compact block": {
			block: `if {[string compare $cell "MB_A"] == 0} { set_var constraint_glitch_peak 0.3 }`,
			want:  true,
		},
		"filler too long": {
			block: "if {[string compare $cell \"MB_A\"] == 0} {\n" +
				"    # " + strings.Repeat("x", 60) + "\n" +
				"    set_var constraint_glitch_peak 0.3\n}",
			want: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, err := (&Parser{}).ParseReader("test.tcl", strings.NewReader(base+test.block+"\n"))
			require.NoError(t, err)

			_, ok := ctx.Conditions["MB_A"]
			assert.Equal(t, test.want, ok)
		})
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("SIS")
	require.NoError(t, err)
	assert.Equal(t, SIS, d)
	assert.Equal(t, "sis", d.String())

	d, err = ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, Traditional, d)

	_, err = ParseDialect("liberate")
	assert.Error(t, err)
}

func TestDialect_Canonical(t *testing.T) {
	assert.Equal(t, "mpw_input_threshold", SIS.Canonical("cratering_threshold"))
	assert.Equal(t, "cratering_threshold", Traditional.Canonical("cratering_threshold"))
	assert.Equal(t, "other", SIS.Canonical("other"))
}

func TestDialect_Names(t *testing.T) {
	assert.Equal(t, []string{GlitchPeak}, Traditional.Names(GlitchPeak))
	assert.Equal(t, []string{GlitchPeak, "glitch_threshold"}, SIS.Names(GlitchPeak))
	assert.Equal(t, []string{OutputLoad, "output_load_index"}, SIS.Names(OutputLoad))
}
