package main

import (
	"os"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
	"github.com/Yuxuannie/my-work-scripts-sub003/arcdb"
	"github.com/Yuxuannie/my-work-scripts-sub003/cli"
	"github.com/Yuxuannie/my-work-scripts-sub003/deck"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
)

type options struct {
	cli.Input

	Log    string `long:"log" description:"file to write log messages to instead of stderr"`
	DryRun bool   `short:"n" long:"dry-run" description:"extract and estimate, write no decks"`
	Server string `long:"server" description:"MongoDB server of the arc database"`
	Cache  string `long:"cache" description:"arc database cache name; enables the database"`
	Drop   bool   `long:"drop" description:"empty the arc database cache first"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !cli.IsFlagError(err) {
			logger.Error(err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	var opt options

	if _, err := cli.Parse("qagen", &opt, args); err != nil {
		if cli.IsHelp(err) {
			return nil
		}
		return err
	}

	cli.SetLevel(opt.LogLevel, opt.Debug)

	// Redirect logs ///////////////////////////////////////////////////////////

	if opt.Log != "" {
		f, err := os.Create(opt.Log)
		if err != nil {
			return err
		}
		defer f.Close()
		logger.SetOutput(f)
		defer logger.SetOutput(os.Stderr)
	}

	log := logger.Default().With("run", "qagen")

	// Configuration ///////////////////////////////////////////////////////////

	cfg, err := opt.Options()
	if err != nil {
		return err
	}

	// Parse, extract and filter ///////////////////////////////////////////////

	r, err := cli.Prepare(&opt.Input, cfg, log)
	if err != nil {
		return err
	}

	nominal, monte := arc.Estimate(r.Arcs, cfg)
	log.Infof("estimated cpu: nominal %s, monte carlo %s", nominal, monte)

	if opt.DryRun {
		return nil
	}

	// Decks ///////////////////////////////////////////////////////////////////

	as, err := deck.New(cfg, r.Context, log)
	if err != nil {
		return err
	}
	if _, err := as.WriteAll(r.Arcs); err != nil {
		return err
	}

	// Arc database ////////////////////////////////////////////////////////////

	if opt.Cache == "" {
		return nil
	}

	server := opt.Server
	if server == "" {
		server = "localhost"
	}

	store, err := arcdb.Dial(server, opt.Cache, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if opt.Drop {
		if err := store.Reset(); err != nil {
			return err
		}
	} else {
		changed, err := store.Changed(r.Arcs)
		if err != nil {
			return err
		}
		for _, dir := range changed {
			log.Warningf("%s: arc changed since the cached run, rerun its simulation", dir)
		}
	}

	_, err = store.Save(r.Arcs, cfg.Corner)
	return err
}
