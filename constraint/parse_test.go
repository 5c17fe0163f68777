package constraint

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tmpl, err := Parse("testdata/template.tcl", "MB")
	require.NoError(t, err)

	assert.Equal(t, []string{"MB_EXAMPLE1", "MB2EDFQD1"}, tmpl.Names)
	assert.Len(t, tmpl.Cells, 2)
	_, ok := tmpl.Cell("SDFQD1")
	assert.False(t, ok)

	c, ok := tmpl.Cell("MB_EXAMPLE1")
	require.True(t, ok)

	assert.Equal(t, 4, c.Line)
	assert.Equal(t, []float64{0.005, 0.02, 0.08}, c.Indexes["index_1"].Values)
	assert.Equal(t, []string{"0.001", "0.004"}, c.Indexes["index_2"].Raw)

	require.Len(t, c.Loads, 1)
	assert.Equal(t, "type:hold#from_direction:rise#to_direction:fall", c.Loads[0].Key)
	assert.Equal(t, []string{"1", "2.5"}, c.Loads[0].Points)

	require.Len(t, c.Slews, 1)
	assert.Equal(t, "from_direction:rise#to_direction:fall", c.Slews[0].Key)
	assert.Equal(t, []string{"0.01", "0.04"}, c.Slews[0].Points)

	require.Len(t, c.Arcs, 2)
	hold := c.Arcs[0]
	assert.Equal(t, "hold", hold.Type)
	assert.Equal(t, "CP-rise", hold.Key())
	assert.Equal(t, "D", hold.RelatedPin)
	assert.Equal(t, "fall", hold.RelatedDirection)
	assert.Equal(t, []string{"E&!TE", "!E&!TE"}, hold.Whens)

	assert.Equal(t, "CP-rise", c.Arcs[1].Key())
	assert.Equal(t, []string{"E&!TE"}, c.Arcs[1].Whens)
	assert.Equal(t, []string{"E&!TE", "!E&!TE"}, c.Whens)
	assert.Equal(t, []string{"E", "TE", "D", "CP", "Q"}, c.Pins)

	mb2 := tmpl.Cells["MB2EDFQD1"]
	require.Len(t, mb2.Arcs, 2)
	assert.Equal(t, "rise", mb2.Arcs[0].Direction)
	assert.Empty(t, mb2.Arcs[1].Whens)
	assert.Empty(t, mb2.Arcs[1].RelatedPin)
	assert.Nil(t, mb2.Pins)
}

func TestParse_IsDeterministic(t *testing.T) {
	first, err := Parse("testdata/template.tcl", "MB")
	require.NoError(t, err)
	second, err := Parse("testdata/template.tcl", "MB")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParse_PrefixSelectsSubset(t *testing.T) {
	all, err := Parse("testdata/template.tcl", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"MB_EXAMPLE1", "MB2EDFQD1", "SDFQD1"}, all.Names)

	sdf, err := Parse("testdata/template.tcl", "SDF")
	require.NoError(t, err)
	assert.Equal(t, []string{"SDFQD1"}, sdf.Names)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]struct {
		path     string
		wantErr  error
		wantLine int
	}{
		"duplicate cell":    {path: "testdata/duplicate_cell.tcl", wantErr: ErrDuplicateCell, wantLine: 4},
		"unclosed brace":    {path: "testdata/unclosed_brace.tcl", wantErr: ErrUnbalancedBraces, wantLine: 1},
		"extra close brace": {path: "testdata/extra_brace.tcl", wantErr: ErrUnbalancedBraces, wantLine: 4},
		"missing index":     {path: "testdata/missing_index.tcl", wantErr: ErrMissingIndex, wantLine: 3},
		"empty index":       {path: "testdata/empty_index.tcl", wantErr: ErrEmptyValue, wantLine: 2},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tmpl, err := Parse(test.path, "MB")
			require.Error(t, err)
			assert.Nil(t, tmpl)
			assert.True(t, errors.Is(err, test.wantErr), "got %v", err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, test.wantLine, perr.Line)
			assert.Equal(t, test.path, perr.File)
		})
	}

	_, err := Parse("testdata/not_exists.tcl", "MB")
	assert.Error(t, err)
}

func TestParseReader_Lines(t *testing.T) {
	tests := map[string]struct {
		body     string
		wantErr  error
		validate func(t *testing.T, c *Cell)
	}{
		"load without explicit points is ignored": {
			body: `set_load_index -type hold`,
			validate: func(t *testing.T, c *Cell) {
				assert.Empty(t, c.Loads)
			},
		},
		"nano exponent stripped": {
			body: `set_load_index -type setup explicit_points_load {3e-9 4}`,
			validate: func(t *testing.T, c *Cell) {
				require.Len(t, c.Loads, 1)
				assert.Equal(t, []string{"3", "4"}, c.Loads[0].Points)
			},
		},
		"slew stops at closing brace": {
			body:    `set_slew_index { -from_direction HL }`,
			wantErr: ErrEmptyValue,
		},
		"duplicate slew key": {
			body: "set_slew_index -type hold explicit_points_slew {1}\n" +
				"set_slew_index -type hold explicit_points_slew {2}",
			wantErr: ErrDuplicateSetting,
		},
		"flag without value": {
			body:    `set_slew_index -type -from_direction LH explicit_points_slew {1}`,
			wantErr: ErrEmptyValue,
		},
		"bad direction": {
			body:    `define_arc -from CP -from_direction up whens {"E"}`,
			wantErr: ErrBadDirection,
		},
		"arc without pin": {
			body:    `define_arc -from_direction LH whens {"E"}`,
			wantErr: ErrEmptyValue,
		},
		"bad index value": {
			body:    `set index_3_template_ {0.1 abc}`,
			wantErr: ErrBadIndexValue,
		},
		"duplicate index": {
			body:    `set index_1_template_ {0.2}`,
			wantErr: ErrDuplicateIndex,
		},
		"unterminated string": {
			body:    `define_arc -from CP -from_direction LH whens {"E}`,
			wantErr: ErrUnterminatedToken,
		},
		"special block skips whens and stops at brace": {
			body: "# add special setting\n" +
				"define_cell -whens {\"A&B\"}\n" +
				"}\n" +
				"define_cell -pinlist {\"X&Y\"}\n" +
				"if { 1 } {",
			validate: func(t *testing.T, c *Cell) {
				assert.Nil(t, c.Pins)
			},
		},
		"special block empty pin term": {
			body:    "# add special setting\ndefine_cell -pinlist {\"A&&B\"}",
			wantErr: ErrEmptyValue,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			src := "if { $cell == \"MB_T\" } {\n" +
				"set index_1_template_ {0.1}\n" +
				"set index_2_template_ {0.1}\n" +
				test.body + "\n}\n"

			p := &Parser{Prefix: "MB"}
			tmpl, err := p.ParseReader("test.tcl", strings.NewReader(src))

			if test.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, test.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			test.validate(t, tmpl.Cells["MB_T"])
		})
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "fall", Direction("HL"))
	assert.Equal(t, "rise", Direction("LH"))
	assert.Equal(t, "fall", Direction("CPHL"))
	assert.Equal(t, "rise", Direction("rise"))
}

func TestSetting_Matches(t *testing.T) {
	s := &Setting{Flags: []Flag{{"type", "hold"}, {"to_direction", "fall"}}}

	assert.True(t, s.Matches(map[string]string{"type": "hold", "to_direction": "fall", "from": "CP"}))
	assert.False(t, s.Matches(map[string]string{"type": "setup", "to_direction": "fall"}))
	assert.False(t, s.Matches(map[string]string{"type": "hold"}))
	assert.True(t, (&Setting{}).Matches(nil))
}
