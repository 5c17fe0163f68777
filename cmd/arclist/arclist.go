package main

import (
	"io"
	"os"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
	"github.com/Yuxuannie/my-work-scripts-sub003/cli"
	"github.com/Yuxuannie/my-work-scripts-sub003/config"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
)

type options struct {
	cli.Input

	Out string `long:"out" description:"CSV file to write, stdout if empty; reads back as a filter with --filter-mode any"`
	All bool   `short:"a" long:"all" description:"list arcs the filter rejects too"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !cli.IsFlagError(err) {
			logger.Error(err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opt options

	if _, err := cli.Parse("arclist", &opt, args); err != nil {
		if cli.IsHelp(err) {
			return nil
		}
		return err
	}

	cli.SetLevel(opt.LogLevel, opt.Debug)
	log := logger.Default()

	cfg, err := opt.Options()
	if err != nil {
		return err
	}

	r, err := cli.Prepare(&opt.Input, cfg, log)
	if err != nil {
		return err
	}

	arcs := r.Arcs
	if !opt.All {
		arcs = arc.ValidArcs(arcs)
	}

	if cfg.FilterMode == config.FilterOrdered && arc.MixedPoints(arcs) {
		log.Warning("listing spans several points; use --filter-mode any to read it back as a filter")
	}

	w := stdout
	if opt.Out != "" {
		f, err := os.Create(opt.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	return arc.WriteCSV(w, arcs)
}
