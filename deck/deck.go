// Package deck writes the SPICE decks of valid arcs.
package deck

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/gofrs/flock"

	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
	"github.com/Yuxuannie/my-work-scripts-sub003/chartcl"
	"github.com/Yuxuannie/my-work-scripts-sub003/config"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
	"github.com/Yuxuannie/my-work-scripts-sub003/spice"
)

const (
	NominalFile = "nominal_sim.sp"
	MonteFile   = "mc_sim.sp"
	LockFile    = ".qagen.lock"
)

var ErrLocked = errors.New("output tree locked by another generator")

// Data is the value deck templates execute against.
type Data struct {
	Arc        *arc.Info
	Vars       map[string]string
	SlewDerate float64
	Corner     string
}

// Stats counts what WriteAll did.
type Stats struct {
	Written   int
	Unchanged int
	Skipped   int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d written, %d unchanged, %d skipped", s.Written, s.Unchanged, s.Skipped)
}

type Assembler struct {
	cfg   *config.Options
	ctx   *chartcl.Context
	log   *logger.Logger
	rules []rule
	cache map[string]*template.Template
	lock  *flock.Flock
}

// New returns an Assembler. ctx may be nil, in which case templates see no
// chartcl variables.
func New(cfg *config.Options, ctx *chartcl.Context, log *logger.Logger) (*Assembler, error) {
	rules, err := newRules(cfg.Hooks)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		cfg:   cfg,
		ctx:   ctx,
		log:   logger.Or(log).With("component", "deck"),
		rules: rules,
		cache: make(map[string]*template.Template),
	}, nil
}

// Lock takes the output tree lock, creating the output directory if needed.
func (as *Assembler) Lock() error {
	if as.lock != nil {
		return nil
	}
	if err := os.MkdirAll(as.cfg.OutputDir, 0o755); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(as.cfg.OutputDir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		_ = lock.Close()
		return err
	}
	if !ok {
		_ = lock.Close()
		return fmt.Errorf("%w: %s", ErrLocked, as.cfg.OutputDir)
	}
	as.lock = lock
	return nil
}

func (as *Assembler) Unlock() {
	if as.lock == nil {
		return
	}
	_ = as.lock.Close()
	as.lock = nil
}

func (as *Assembler) template(name string) (*template.Template, error) {
	if t, ok := as.cache[name]; ok {
		return t, nil
	}

	path := filepath.Join(as.cfg.TemplateDir, name)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t, err := template.New(name).Option("missingkey=error").Funcs(newFuncMap()).Parse(string(src))
	if err != nil {
		return nil, err
	}
	as.cache[name] = t
	return t, nil
}

// Render returns the nominal deck of a and, when Monte Carlo is enabled, its
// Monte Carlo variant.
func (as *Assembler) Render(a *arc.Info) (nominal, mc []byte, err error) {
	t, err := as.template(a.Template)
	if err != nil {
		return nil, nil, err
	}

	data := Data{Arc: a, Corner: as.cfg.Corner}
	if as.ctx != nil {
		data.Vars = as.ctx.Vars
		data.SlewDerate = as.ctx.SlewDerate
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, nil, err
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for _, r := range as.rules {
		if !r.applies(a) {
			continue
		}
		if lines, err = r.hook(a, lines); err != nil {
			return nil, nil, fmt.Errorf("%s hook: %w", r.name, err)
		}
	}

	if err := spice.Check(lines); err != nil {
		return nil, nil, err
	}

	nominal = joinLines(lines)
	if as.cfg.MonteCarlo.Enabled {
		mc = joinLines(monteCarlo(lines, as.cfg.MonteCarlo))
	}
	return nominal, mc, nil
}

func joinLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

// Write renders a into output_dir/<a.Dir()>. It reports whether any file
// changed on disk.
func (as *Assembler) Write(a *arc.Info) (bool, error) {
	nominal, mc, err := as.Render(a)
	if err != nil {
		return false, fmt.Errorf("%s: %w", a.Dir(), err)
	}

	dir := filepath.Join(as.cfg.OutputDir, a.Dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}

	changed, err := writeIfChanged(filepath.Join(dir, NominalFile), nominal)
	if err != nil {
		return false, err
	}
	if mc != nil {
		mcChanged, err := writeIfChanged(filepath.Join(dir, MonteFile), mc)
		if err != nil {
			return false, err
		}
		changed = changed || mcChanged
	}
	return changed, nil
}

// WriteAll writes the decks of the valid arcs under the output tree lock.
func (as *Assembler) WriteAll(arcs []*arc.Info) (Stats, error) {
	var stats Stats

	if err := as.Lock(); err != nil {
		return stats, err
	}
	defer as.Unlock()

	for _, a := range arcs {
		if !a.Valid {
			stats.Skipped++
			continue
		}
		changed, err := as.Write(a)
		if err != nil {
			return stats, err
		}
		if changed {
			stats.Written++
			as.log.Debugf("wrote %s", a.Dir())
		} else {
			stats.Unchanged++
		}
	}

	as.log.Infof("decks: %s", stats)
	return stats, nil
}

func writeIfChanged(path string, data []byte) (bool, error) {
	old, err := os.ReadFile(path)
	if err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}
