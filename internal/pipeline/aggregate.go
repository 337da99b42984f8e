package pipeline

import (
	"math"
	"sort"
)

// TaxonStats holds per-environment summary statistics for one taxon column.
type TaxonStats struct {
	Mean   float64 // rounded to 4 decimals
	StdDev float64 // sample stddev (N-1); NaN when the group has one sample
}

// EnvironmentAggregate holds the computed statistics for one environment.
type EnvironmentAggregate struct {
	Name        string
	SampleCount int
	Stats       map[string]TaxonStats
}

// AggregateSet is the immutable result of the aggregation stage: one
// aggregate per environment that met the min-samples threshold.
// TaxonColumns keeps the source column order for stable tiebreaking.
type AggregateSet struct {
	TaxonColumns []string
	Environments map[string]*EnvironmentAggregate
}

// CompositionEntry is one taxon of an environment's composition view.
type CompositionEntry struct {
	Taxon     string  `json:"taxon"`
	TaxonFull string  `json:"taxon_full"`
	Abundance float64 `json:"abundance"`
}

// Composition is the on-demand view of one environment's average
// composition, filtered by minimum abundance and sorted descending.
type Composition struct {
	Environment  string             `json:"environment"`
	TotalSamples int                `json:"total_samples"`
	Composition  []CompositionEntry `json:"composition"`
}

// EnvironmentInfo pairs an environment name with its sample count.
type EnvironmentInfo struct {
	Name        string `json:"name"`
	SampleCount int    `json:"sample_count"`
}

// SignificantEnvironments counts joined rows per environment and returns
// only environments with at least minSamples rows (aggregation stage A).
func SignificantEnvironments(rows []JoinedRow, minSamples int) map[string]int {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.OrganismName]++
	}
	for env, n := range counts {
		if n < minSamples {
			delete(counts, env)
		}
	}
	return counts
}

// ComputeAggregates runs both aggregation stages over the join result:
// threshold environments by sample count, then compute mean, sample
// standard deviation and count per taxon column for each surviving
// environment. Means and stddevs are rounded to 4 decimals here; display
// rounding happens later in the composition view.
func ComputeAggregates(join *JoinResult, minSamples int) (*AggregateSet, error) {
	if join == nil {
		return nil, ErrNotReady
	}

	significant := SignificantEnvironments(join.Rows, minSamples)

	cols := len(join.TaxonColumns)
	sums := make(map[string][]float64, len(significant))
	for env := range significant {
		sums[env] = make([]float64, cols)
	}
	for _, row := range join.Rows {
		acc, ok := sums[row.OrganismName]
		if !ok {
			continue
		}
		for i, v := range row.Values {
			acc[i] += v
		}
	}

	// Second pass for the variance against each group's mean.
	sqDiffs := make(map[string][]float64, len(significant))
	for env := range significant {
		sqDiffs[env] = make([]float64, cols)
	}
	for _, row := range join.Rows {
		acc, ok := sqDiffs[row.OrganismName]
		if !ok {
			continue
		}
		n := float64(significant[row.OrganismName])
		for i, v := range row.Values {
			d := v - sums[row.OrganismName][i]/n
			acc[i] += d * d
		}
	}

	set := &AggregateSet{
		TaxonColumns: join.TaxonColumns,
		Environments: make(map[string]*EnvironmentAggregate, len(significant)),
	}
	for env, count := range significant {
		agg := &EnvironmentAggregate{
			Name:        env,
			SampleCount: count,
			Stats:       make(map[string]TaxonStats, cols),
		}
		for i, taxon := range join.TaxonColumns {
			mean := sums[env][i] / float64(count)
			stddev := math.NaN()
			if count > 1 {
				stddev = math.Sqrt(sqDiffs[env][i] / float64(count-1))
			}
			agg.Stats[taxon] = TaxonStats{
				Mean:   round4(mean),
				StdDev: round4(stddev),
			}
		}
		set.Environments[env] = agg
	}
	return set, nil
}

// Composition builds the read-only composition view for one environment:
// taxa with mean abundance strictly above minAbundance, sorted descending,
// ties broken by source column order, abundances rounded to 2 decimals.
func (s *AggregateSet) Composition(environment string, minAbundance float64) (*Composition, error) {
	agg, ok := s.Environments[environment]
	if !ok {
		return nil, &EnvironmentNotFoundError{
			Name:      environment,
			Available: s.exampleNames(5),
		}
	}

	// Sort on the 4-decimal mean; the 2-decimal rounding is display-only.
	type ranked struct {
		entry CompositionEntry
		mean  float64
	}
	abundant := make([]ranked, 0, len(s.TaxonColumns))
	for _, taxon := range s.TaxonColumns {
		mean := agg.Stats[taxon].Mean
		if mean > minAbundance {
			abundant = append(abundant, ranked{
				entry: CompositionEntry{
					Taxon:     CleanTaxonName(taxon),
					TaxonFull: taxon,
					Abundance: round2(mean),
				},
				mean: mean,
			})
		}
	}
	sort.SliceStable(abundant, func(i, j int) bool {
		return abundant[i].mean > abundant[j].mean
	})
	entries := make([]CompositionEntry, len(abundant))
	for i, r := range abundant {
		entries[i] = r.entry
	}

	return &Composition{
		Environment:  environment,
		TotalSamples: agg.SampleCount,
		Composition:  entries,
	}, nil
}

// EnvironmentList returns every environment in the aggregate set with its
// sample count, sorted by sample count descending, ties by name.
func (s *AggregateSet) EnvironmentList() []EnvironmentInfo {
	list := make([]EnvironmentInfo, 0, len(s.Environments))
	for _, agg := range s.Environments {
		list = append(list, EnvironmentInfo{Name: agg.Name, SampleCount: agg.SampleCount})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SampleCount != list[j].SampleCount {
			return list[i].SampleCount > list[j].SampleCount
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// exampleNames returns up to n environment names in sorted order, used to
// make not-found errors actionable.
func (s *AggregateSet) exampleNames(n int) []string {
	names := make([]string, 0, len(s.Environments))
	for name := range s.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func round4(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
