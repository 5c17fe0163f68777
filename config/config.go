// Package config holds the options of a characterization QA run. Defaults
// and the user's YAML file are merged once by Load; the result is treated as
// read-only by every component.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

const (
	DialectTraditional = "traditional"
	DialectSIS         = "sis"

	FilterOrdered = "ordered"
	FilterAny     = "any"
)

type Options struct {
	FamilyPrefix  string            `yaml:"family_prefix"`
	Cells         []string          `yaml:"cells"`
	ArcTypes      []string          `yaml:"arc_types"`
	MaxNumWhen    int               `yaml:"max_num_when"`
	TablePoints   []string          `yaml:"table_points"`
	Dialect       string            `yaml:"dialect"`
	FilterMode    string            `yaml:"filter_mode"`
	TemplateDir   string            `yaml:"template_dir"`
	DeckTemplates map[string]string `yaml:"deck_templates"`
	OutputDir     string            `yaml:"output_dir"`
	Corner        string            `yaml:"corner"`
	MonteCarlo    MonteCarlo        `yaml:"monte_carlo"`
	DefaultStates []DefaultState    `yaml:"default_states"`
	Hooks         []HookRule        `yaml:"hooks"`
	Estimate      Estimate          `yaml:"estimate"`
}

type MonteCarlo struct {
	Enabled    bool   `yaml:"enabled"`
	Samples    int    `yaml:"samples"`
	LibNominal string `yaml:"lib_nominal"`
	LibMC      string `yaml:"lib_mc"`
}

// DefaultState assigns a stimulus character to pins of the cells matching
// the Cells glob. Entries are consulted in order.
type DefaultState struct {
	Cells string            `yaml:"cells"`
	Pins  map[string]string `yaml:"pins"`
}

// HookRule binds a deck post-processing hook to cells matching a regular
// expression and, optionally, to one literal when clause.
type HookRule struct {
	Cells string `yaml:"cells"`
	When  string `yaml:"when"`
	Hook  string `yaml:"hook"`
}

type Estimate struct {
	DefaultSeconds float64            `yaml:"default_seconds"`
	Seconds        map[string]float64 `yaml:"seconds"`
	PinFactor      float64            `yaml:"pin_factor"`
}

func Default() Options {
	return Options{
		FamilyPrefix: "MB",
		Cells:        []string{"*"},
		ArcTypes: []string{
			"hold",
			"setup",
			"removal",
			"recovery",
			"min_pulse_width",
			"non_seq_hold",
			"non_seq_setup",
		},
		Dialect:     DialectTraditional,
		FilterMode:  FilterOrdered,
		TemplateDir: "templates",
		OutputDir:   "decks",
		Corner:      "ssgnp_0p675v_m40c",
		MonteCarlo: MonteCarlo{
			Enabled:    true,
			Samples:    250,
			LibNominal: "tt",
			LibMC:      "mc",
		},
		Hooks: []HookRule{
			{Cells: "^MB", Hook: "final_state"},
		},
		Estimate: Estimate{
			DefaultSeconds: 20,
			PinFactor:      0.1,
		},
	}
}

// Load reads path on top of the defaults. An empty path yields the defaults.
func Load(path string) (Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return opts, err
	}

	bs, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}

	if err := yaml.Unmarshal(bs, &opts); err != nil {
		return opts, fmt.Errorf("config %s: %v", path, err)
	}

	return opts, nil
}

// ExpandPaths resolves a leading ~ in every path field.
func (o Options) ExpandPaths() (Options, error) {
	var err error
	if o.TemplateDir, err = homedir.Expand(o.TemplateDir); err != nil {
		return o, err
	}
	if o.OutputDir, err = homedir.Expand(o.OutputDir); err != nil {
		return o, err
	}
	return o, nil
}

func (o Options) Validate() error {
	if o.FamilyPrefix == "" {
		return errors.New("'family_prefix' not set")
	}
	switch o.Dialect {
	case DialectTraditional, DialectSIS:
	default:
		return fmt.Errorf("unknown dialect %q", o.Dialect)
	}
	switch o.FilterMode {
	case FilterOrdered, FilterAny:
	default:
		return fmt.Errorf("unknown filter mode %q", o.FilterMode)
	}
	if o.MaxNumWhen < 0 {
		return fmt.Errorf("'max_num_when' must not be negative, got %d", o.MaxNumWhen)
	}
	if o.MonteCarlo.Enabled && o.MonteCarlo.Samples <= 0 {
		return fmt.Errorf("'monte_carlo.samples' must be positive, got %d", o.MonteCarlo.Samples)
	}
	for _, p := range o.Cells {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("bad cell pattern %q", p)
		}
	}
	for _, ds := range o.DefaultStates {
		if !doublestar.ValidatePattern(ds.Cells) {
			return fmt.Errorf("bad default state pattern %q", ds.Cells)
		}
		for pin, v := range ds.Pins {
			if !isStimulus(v) {
				return fmt.Errorf("default state of %s on %q must be one of 0, 1 or x, got %q", pin, ds.Cells, v)
			}
		}
	}
	for _, h := range o.Hooks {
		if _, err := regexp.Compile(h.Cells); err != nil {
			return fmt.Errorf("bad hook cell regex %q: %v", h.Cells, err)
		}
		if h.Hook == "" {
			return fmt.Errorf("hook for %q has no name", h.Cells)
		}
	}
	if _, err := o.Points(); err != nil {
		return err
	}
	return nil
}

// isStimulus reports whether v fills exactly one vector position.
func isStimulus(v string) bool {
	return v == "0" || v == "1" || v == "x"
}

// Point is a 1-based table coordinate.
type Point struct {
	X, Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// ParsePoint accepts "x,y", "x;y" and either form in parentheses.
func ParsePoint(s string) (Point, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	s = strings.ReplaceAll(s, ";", ",")

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("bad table point %q", s)
	}

	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Point{}, fmt.Errorf("bad table point %q: %v", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Point{}, fmt.Errorf("bad table point %q: %v", s, err)
	}
	if x < 1 || y < 1 {
		return Point{}, fmt.Errorf("bad table point %q: indexes start at 1", s)
	}
	return Point{x, y}, nil
}

// Points returns the configured table points. Nil means all points.
func (o Options) Points() ([]Point, error) {
	var points []Point
	for _, s := range o.TablePoints {
		p, err := ParsePoint(s)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// StateFor returns the default stimulus of pin on cell, or "" if no entry
// matches.
func (o Options) StateFor(cell, pin string) string {
	for _, ds := range o.DefaultStates {
		if ok, _ := doublestar.Match(ds.Cells, cell); !ok {
			continue
		}
		if v, ok := ds.Pins[pin]; ok {
			return v
		}
	}
	return ""
}

// TemplateFor returns the deck template file name for an arc type.
func (o Options) TemplateFor(arcType string) string {
	if name, ok := o.DeckTemplates[arcType]; ok {
		return name
	}
	return arcType + ".sp"
}

// SecondsFor returns the nominal simulation estimate of one arc type.
func (o Options) SecondsFor(arcType string) float64 {
	if s, ok := o.Estimate.Seconds[arcType]; ok {
		return s
	}
	return o.Estimate.DefaultSeconds
}
