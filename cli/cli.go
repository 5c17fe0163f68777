// Package cli holds the command-line surface shared by the binaries: the
// input options and the parse, extract and filter steps they all run.
package cli

import (
	"log/slog"

	"github.com/jessevdk/go-flags"

	"github.com/Yuxuannie/my-work-scripts-sub003/config"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
)

// Input selects the files to read and overrides part of the configuration.
// Zero values leave the configured value alone.
type Input struct {
	Config     string   `short:"c" long:"config" description:"YAML configuration file"`
	Template   string   `short:"t" long:"template" description:"constraint template file" required:"true"`
	Chartcl    string   `long:"chartcl" description:"chartcl control file"`
	Filter     string   `short:"f" long:"filter" description:"arc filter CSV"`
	FilterMode string   `long:"filter-mode" description:"arc filter mode (ordered|any)"`
	Dialect    string   `long:"dialect" description:"chartcl dialect (traditional|sis)"`
	Prefix     string   `short:"p" long:"prefix" description:"cell family prefix"`
	Cells      []string `long:"cell" description:"cell name glob, repeatable"`
	ArcTypes   []string `long:"arc-type" description:"arc type, repeatable"`
	Points     []string `long:"point" description:"table point x,y, repeatable"`
	MaxNumWhen int      `long:"max-num-when" description:"skip whens with more terms, 0 for no bound" default:"-1"`
	OutputDir  string   `short:"o" long:"output-dir" description:"deck output directory"`
	LogLevel   string   `long:"log-level" description:"log level (error|warning|info|debug)"`
	Debug      bool     `short:"d" long:"debug" description:"debug logging, same as --log-level debug"`
}

// Options loads the configuration file and applies the overrides. The
// result is validated and not modified afterwards.
func (in *Input) Options() (*config.Options, error) {
	cfg, err := config.Load(in.Config)
	if err != nil {
		return nil, err
	}

	if in.FilterMode != "" {
		cfg.FilterMode = in.FilterMode
	}
	if in.Dialect != "" {
		cfg.Dialect = in.Dialect
	}
	if in.Prefix != "" {
		cfg.FamilyPrefix = in.Prefix
	}
	if len(in.Cells) > 0 {
		cfg.Cells = in.Cells
	}
	if len(in.ArcTypes) > 0 {
		cfg.ArcTypes = in.ArcTypes
	}
	if len(in.Points) > 0 {
		cfg.TablePoints = in.Points
	}
	if in.MaxNumWhen >= 0 {
		cfg.MaxNumWhen = in.MaxNumWhen
	}
	if in.OutputDir != "" {
		cfg.OutputDir = in.OutputDir
	}

	if cfg, err = cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse fills opt from args. Help output is reported through IsHelp.
func Parse(name string, opt any, args []string) ([]string, error) {
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = name
	return parser.ParseArgs(args)
}

func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}

// IsFlagError reports errors go-flags has already printed.
func IsFlagError(err error) bool {
	_, ok := err.(*flags.Error)
	return ok
}

// SetLevel sets the log level by name. debug wins over name.
func SetLevel(name string, debug bool) {
	if name != "" {
		logger.Level.SetByName(name)
	}
	if debug {
		logger.Level.Set(slog.LevelDebug)
	}
}
