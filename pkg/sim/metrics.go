package sim

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/battwin/battwin/pkg/monitor"
	"github.com/battwin/battwin/pkg/types"
)

// summarize reduces a run history and the detector's consistency report to
// the post-run performance metrics.
func summarize(history []types.StepRecord, rep monitor.ConsistencyReport) types.Summary {
	s := types.Summary{
		Steps:               len(history),
		AvgNIS:              rep.MeanNIS,
		ExpectedNIS:         rep.ExpectedNIS,
		NISConsistencyError: rep.Error,
		NISThreshold:        rep.Threshold,
		NISExceedPct:        rep.ExceedPct,
	}
	if len(history) == 0 {
		return s
	}

	socSq := make([]float64, len(history))
	healthSq := make([]float64, len(history))
	for i, rec := range history {
		socErr := rec.TrueSOC - rec.EstSOC
		healthErr := rec.TrueHealth - rec.EstHealth
		socSq[i] = socErr * socErr
		healthSq[i] = healthErr * healthErr
	}
	s.SOCRMSE = math.Sqrt(stat.Mean(socSq, nil))
	s.HealthRMSE = math.Sqrt(stat.Mean(healthSq, nil))
	s.FinalRUL = history[len(history)-1].RUL
	return s
}
