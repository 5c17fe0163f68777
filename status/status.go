// Package status reports how far the simulations of a deck tree got.
package status

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Yuxuannie/my-work-scripts-sub003/deck"
	"github.com/Yuxuannie/my-work-scripts-sub003/histogram"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
	"github.com/Yuxuannie/my-work-scripts-sub003/queue"
	"github.com/Yuxuannie/my-work-scripts-sub003/set"
)

type State string

var nominalMeasure = strings.TrimSuffix(deck.NominalFile, ".sp") + ".mt0"

const (
	NotStarted State = "not started"
	Done       State = "done"
	Failed     State = "failed"
)

// Arc is one deck directory. Dir is relative to the scanned root.
type Arc struct {
	Dir     string
	State   State
	Measure string // path of the .mt0 file when Done
}

type Report struct {
	Root  string
	Arcs  []Arc
	Hist  histogram.Histogram[State]
	Skips int
}

// Scan walks root breadth first. Every directory holding a nominal deck is
// an arc; the walk does not descend into arc directories. Unreadable
// directories below root are logged and skipped.
func Scan(root string, log *logger.Logger) (*Report, error) {
	log = logger.Or(log).With("component", "status")

	if _, err := os.ReadDir(root); err != nil {
		return nil, err
	}

	r := &Report{Root: root, Hist: histogram.New[State]()}

	q := queue.New[string]()
	q.Push(root)

	for !q.Empty() {
		dir, _ := q.Pop()

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warningf("skipping %s: %v", dir, err)
			r.Skips++
			continue
		}

		if isArcDir(entries) {
			rel, _ := filepath.Rel(root, dir)
			a := Arc{Dir: rel}
			a.State, a.Measure = state(dir, entries, log)
			r.Arcs = append(r.Arcs, a)
			r.Hist.Add(a.State)
			continue
		}

		for _, e := range entries {
			if e.IsDir() {
				q.Push(filepath.Join(dir, e.Name()))
			}
		}
	}

	log.Infof("%s: %d arcs", root, len(r.Arcs))
	return r, nil
}

func isArcDir(entries []os.DirEntry) bool {
	for _, e := range entries {
		if !e.IsDir() && e.Name() == deck.NominalFile {
			return true
		}
	}
	return false
}

// state applies the completion contract: a .mt0 file means done, a
// non-empty .err file means failed, anything else not started. The nominal
// measurement file is preferred as the arc's Measure.
func state(dir string, entries []os.DirEntry, log *logger.Logger) (State, string) {
	var measure string
	failed := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".mt0"):
			if measure == "" || name == nominalMeasure {
				measure = filepath.Join(dir, name)
			}
		case strings.HasSuffix(name, ".err"):
			info, err := e.Info()
			if err != nil {
				log.Warningf("%s: %v", filepath.Join(dir, name), err)
				continue
			}
			if info.Size() > 0 {
				failed = true
			}
		}
	}
	switch {
	case measure != "":
		return Done, measure
	case failed:
		return Failed, ""
	}
	return NotStarted, ""
}

// Dirs returns the arc directories of the report, relative to its root.
func (r *Report) Dirs() []string {
	dirs := make([]string, 0, len(r.Arcs))
	for _, a := range r.Arcs {
		dirs = append(dirs, a.Dir)
	}
	return dirs
}

// Select returns the arcs in state s.
func (r *Report) Select(s State) (arcs []Arc) {
	for _, a := range r.Arcs {
		if a.State == s {
			arcs = append(arcs, a)
		}
	}
	return
}

// Stale returns the arc directories on disk that are not in expected,
// sorted.
func (r *Report) Stale(expected []string) []string {
	return set.New(r.Dirs()...).Not(set.New(expected...)).Sort()
}

// Missing returns the expected directories that have no deck on disk,
// sorted.
func (r *Report) Missing(expected []string) []string {
	return set.New(expected...).Not(set.New(r.Dirs()...)).Sort()
}

func (r *Report) String() string {
	return r.Hist.String()
}
