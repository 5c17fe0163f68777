package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yuxuannie/my-work-scripts-sub003/arcdb"
	"github.com/Yuxuannie/my-work-scripts-sub003/cli"
	"github.com/Yuxuannie/my-work-scripts-sub003/deck"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
	"github.com/Yuxuannie/my-work-scripts-sub003/measure"
	"github.com/Yuxuannie/my-work-scripts-sub003/status"
)

type options struct {
	Dir      string `short:"o" long:"output-dir" description:"deck output directory to scan" required:"true"`
	Measure  bool   `short:"m" long:"measure" description:"summarize the measurements of finished arcs"`
	MC       bool   `long:"mc" description:"summarize Monte Carlo measurements (mc_sim.mt0)"`
	Expected string `short:"e" long:"expected" description:"arclist CSV to reconcile the tree against"`
	Server   string `long:"server" description:"MongoDB server of the arc database"`
	Cache    string `long:"cache" description:"arc database cache to reconcile the tree against"`
	Failed   bool   `long:"failed" description:"list failed arc directories"`
	LogLevel string `long:"log-level" description:"log level (error|warning|info|debug)"`
	Debug    bool   `short:"d" long:"debug" description:"debug logging"`
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

	if _, err := cli.Parse("simstat", &opt, args); err != nil {
		if cli.IsHelp(err) {
			return nil
		}
		return err
	}

	cli.SetLevel(opt.LogLevel, opt.Debug)
	log := logger.Default()

	report, err := status.Scan(opt.Dir, log)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, report)

	if opt.Failed {
		for _, a := range report.Select(status.Failed) {
			fmt.Fprintln(stdout, "failed:", a.Dir)
		}
	}

	// Reconcile ///////////////////////////////////////////////////////////////

	if opt.Expected != "" || opt.Cache != "" {
		expected, err := expectedDirs(&opt, log)
		if err != nil {
			return err
		}
		for _, dir := range report.Missing(expected) {
			fmt.Fprintln(stdout, "missing:", dir)
		}
		for _, dir := range report.Stale(expected) {
			fmt.Fprintln(stdout, "stale:", dir)
		}
	}

	// Measurements ////////////////////////////////////////////////////////////

	if !opt.Measure {
		return nil
	}

	for _, a := range report.Select(status.Done) {
		path := a.Measure
		if opt.MC {
			path = filepath.Join(opt.Dir, a.Dir, strings.TrimSuffix(deck.MonteFile, ".sp")+".mt0")
		}

		tbl, err := measure.ReadFile(path)
		if err != nil {
			log.Warning(err)
			continue
		}

		fmt.Fprintln(stdout, a.Dir)
		for _, s := range tbl.Summarize() {
			fmt.Fprintln(stdout, "  ", s)
		}
	}
	return nil
}

// expectedDirs collects the directories of the arclist CSV and of the arc
// database cache, whichever are given.
func expectedDirs(opt *options, log *logger.Logger) ([]string, error) {
	var dirs []string
	if opt.Expected != "" {
		d, err := readDirs(opt.Expected)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, d...)
	}
	if opt.Cache == "" {
		return dirs, nil
	}

	server := opt.Server
	if server == "" {
		server = "localhost"
	}
	store, err := arcdb.Dial(server, opt.Cache, log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	d, err := store.Dirs()
	if err != nil {
		return nil, err
	}
	log.Infof("%d arcs in cache %s", len(d), opt.Cache)
	return append(dirs, d...), nil
}

// readDirs returns the DIR column of an arclist CSV.
func readDirs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty", path)
	}

	col := -1
	for i, h := range records[0] {
		if strings.EqualFold(strings.TrimSpace(h), "DIR") {
			col = i
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s: no DIR column", path)
	}

	var dirs []string
	for _, rec := range records[1:] {
		if col < len(rec) {
			dirs = append(dirs, rec[col])
		}
	}
	return dirs, nil
}
