package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/battwin/battwin/pkg/types"
)

// PrintReport writes the human-readable performance report for one run to
// stdout.
func PrintReport(s types.Summary) {
	fmt.Println()
	fmt.Println("==============================")
	fmt.Println(" DIGITAL TWIN PERFORMANCE REPORT")
	fmt.Println("==============================")
	fmt.Printf("SOC RMSE: %.6f\n", s.SOCRMSE)
	fmt.Printf("Health RMSE: %.6f\n", s.HealthRMSE)
	fmt.Printf("Average NIS: %.3f\n", s.AvgNIS)
	fmt.Printf("NIS > %.1f Percentage: %.2f%%\n", s.NISThreshold, s.NISExceedPct)
	fmt.Printf("NIS Deviation from Ideal (%.0f): %.3f\n", s.ExpectedNIS, s.NISConsistencyError)
	if s.Consistent() {
		fmt.Println("Filter Consistency: GOOD")
	} else {
		fmt.Println("Filter Consistency: Needs tuning")
	}
	fmt.Println("==============================")
	fmt.Println()
}

// PrintBatchReport writes the aggregate view of a Monte Carlo batch to
// stdout.
func PrintBatchReport(results []*Result) {
	socRMSE := make([]float64, len(results))
	healthRMSE := make([]float64, len(results))
	avgNIS := make([]float64, len(results))
	consistent := 0
	for i, r := range results {
		socRMSE[i] = r.Summary.SOCRMSE
		healthRMSE[i] = r.Summary.HealthRMSE
		avgNIS[i] = r.Summary.AvgNIS
		if r.Summary.Consistent() {
			consistent++
		}
	}

	fmt.Printf("Monte Carlo (%d runs)\n", len(results))
	fmt.Printf("  SOC RMSE mean/stddev: %.6f / %.6f\n", stat.Mean(socRMSE, nil), stat.StdDev(socRMSE, nil))
	fmt.Printf("  Health RMSE mean/stddev: %.6f / %.6f\n", stat.Mean(healthRMSE, nil), stat.StdDev(healthRMSE, nil))
	fmt.Printf("  Average NIS mean: %.3f\n", stat.Mean(avgNIS, nil))
	fmt.Printf("  Consistent runs: %d/%d\n", consistent, len(results))
	fmt.Println()
}

// WriteHistoryCSV writes the per-step history to path, one row per step.
func WriteHistoryCSV(path string, history []types.StepRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	header := []string{
		"step", "sunlight", "degradationRate", "loadFactor",
		"trueSOC", "trueHealth", "estSOC", "estHealth", "nis", "rul",
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, rec := range history {
		row := []string{
			strconv.Itoa(rec.Step),
			ff(rec.Sunlight), ff(rec.DegradationRate), ff(rec.LoadFactor),
			ff(rec.TrueSOC), ff(rec.TrueHealth), ff(rec.EstSOC), ff(rec.EstHealth),
			ff(rec.NIS), ff(rec.RUL),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
