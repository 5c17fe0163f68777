package cli

import (
	"github.com/Yuxuannie/my-work-scripts-sub003/arc"
	"github.com/Yuxuannie/my-work-scripts-sub003/chartcl"
	"github.com/Yuxuannie/my-work-scripts-sub003/config"
	"github.com/Yuxuannie/my-work-scripts-sub003/constraint"
	"github.com/Yuxuannie/my-work-scripts-sub003/logger"
)

// Run is the outcome of the read, extract and filter steps.
type Run struct {
	Config   *config.Options
	Template *constraint.Template
	Context  *chartcl.Context
	Arcs     []*arc.Info
	Valid    int
}

// Prepare parses the template and control files, extracts the arcs and
// marks the ones the filter selects. A missing chartcl file leaves Context
// nil; a missing filter accepts every arc.
func Prepare(in *Input, cfg *config.Options, log *logger.Logger) (*Run, error) {
	log = logger.Or(log)
	r := &Run{Config: cfg}

	var err error
	r.Template, err = (&constraint.Parser{Prefix: cfg.FamilyPrefix, Logger: log}).Parse(in.Template)
	if err != nil {
		return nil, err
	}

	if in.Chartcl != "" {
		dialect, err := chartcl.ParseDialect(cfg.Dialect)
		if err != nil {
			return nil, err
		}
		r.Context, err = (&chartcl.Parser{Dialect: dialect, Logger: log}).Parse(in.Chartcl)
		if err != nil {
			return nil, err
		}
	}

	r.Arcs, err = (&arc.Extractor{Config: cfg, Logger: log}).Extract(r.Template, r.Context)
	if err != nil {
		return nil, err
	}

	filter, err := arc.LoadFilter(in.Filter, cfg.FilterMode)
	if err != nil {
		return nil, err
	}
	r.Valid = filter.Apply(r.Arcs)

	log.Infof("%d of %d arcs selected", r.Valid, len(r.Arcs))
	return r, nil
}
