package arc

import (
	"time"

	"github.com/Yuxuannie/my-work-scripts-sub003/config"
)

// Estimate fills in the CPU estimate of every arc and returns the totals
// over the valid ones. Monte Carlo time is zero when Monte Carlo is off.
func Estimate(arcs []*Info, cfg *config.Options) (nominal, monte time.Duration) {
	for _, a := range arcs {
		secs := cfg.SecondsFor(a.ArcType) * (1 + cfg.Estimate.PinFactor*float64(len(a.Pins)))
		a.NominalCPU = time.Duration(secs * float64(time.Second))
		a.MonteCPU = 0
		if cfg.MonteCarlo.Enabled {
			a.MonteCPU = a.NominalCPU * time.Duration(cfg.MonteCarlo.Samples)
		}
		if a.Valid {
			nominal += a.NominalCPU
			monte += a.MonteCPU
		}
	}
	return
}
