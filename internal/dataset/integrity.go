package dataset

import "math"

// IntegrityReport summarizes per-row taxon abundance sums across the whole
// abundance table. Abundances are percentages, so well-formed rows sum to
// roughly 100. The report is diagnostic only and never gates processing.
type IntegrityReport struct {
	MeanSum        float64 `json:"mean_sum"`
	StdSum         float64 `json:"std_sum"`
	MinSum         float64 `json:"min_sum"`
	MaxSum         float64 `json:"max_sum"`
	SamplesNear100 int     `json:"samples_near_100"`
	TotalSamples   int     `json:"total_samples"`
}

// Integrity computes the row-sum integrity report for the table.
func (t *AbundanceTable) Integrity() IntegrityReport {
	report := IntegrityReport{TotalSamples: t.Len()}
	if t.Len() == 0 {
		return report
	}

	sums := make([]float64, 0, t.Len())
	minSum := math.Inf(1)
	maxSum := math.Inf(-1)
	total := 0.0
	for _, row := range t.Rows {
		sum := 0.0
		for _, v := range row.Values {
			sum += v
		}
		sums = append(sums, sum)
		total += sum
		if sum < minSum {
			minSum = sum
		}
		if sum > maxSum {
			maxSum = sum
		}
		if sum >= 99 && sum <= 101 {
			report.SamplesNear100++
		}
	}

	mean := total / float64(len(sums))
	variance := math.NaN()
	if len(sums) > 1 {
		ss := 0.0
		for _, s := range sums {
			d := s - mean
			ss += d * d
		}
		variance = ss / float64(len(sums)-1)
	}

	report.MeanSum = round2(mean)
	report.StdSum = round2(math.Sqrt(variance))
	report.MinSum = round2(minSum)
	report.MaxSum = round2(maxSum)
	return report
}

func round2(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
