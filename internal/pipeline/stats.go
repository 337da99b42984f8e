package pipeline

import "math"

// DatasetInfo summarizes the aggregate set as a whole.
type DatasetInfo struct {
	TotalEnvironments int `json:"total_environments"`
	TotalSamples      int `json:"total_samples"`
	UniquePhyla       int `json:"unique_phyla"`
}

// TopEnvironment is one entry of the top-environments ranking.
type TopEnvironment struct {
	Name          string `json:"name"`
	Samples       int    `json:"samples"`
	PhylaDetected int    `json:"phyla_detected"`
}

// SampleDistribution describes how samples spread across environments.
type SampleDistribution struct {
	MinSamples int     `json:"min_samples"`
	MaxSamples int     `json:"max_samples"`
	AvgSamples float64 `json:"avg_samples"`
}

// StatsSummary is the on-demand aggregate summary served by the stats
// endpoint. It is derived from the aggregate set on every call, never cached.
type StatsSummary struct {
	DatasetInfo        DatasetInfo        `json:"dataset_info"`
	TopEnvironments    []TopEnvironment   `json:"top_environments"`
	SampleDistribution SampleDistribution `json:"sample_distribution"`
}

// Stats computes the aggregate summary. minAbundance controls which taxa
// count as "detected" in an environment, matching the composition view.
func (s *AggregateSet) Stats(minAbundance float64, topN int) *StatsSummary {
	summary := &StatsSummary{
		TopEnvironments: []TopEnvironment{},
	}
	if len(s.Environments) == 0 {
		return summary
	}

	list := s.EnvironmentList()

	uniquePhyla := make(map[string]struct{})
	phylaCount := make(map[string]int, len(list))
	totalSamples := 0
	minSamples := math.MaxInt
	maxSamples := 0
	for _, info := range list {
		comp, err := s.Composition(info.Name, minAbundance)
		if err != nil {
			continue
		}
		phylaCount[info.Name] = len(comp.Composition)
		for _, entry := range comp.Composition {
			uniquePhyla[entry.TaxonFull] = struct{}{}
		}
		totalSamples += info.SampleCount
		if info.SampleCount < minSamples {
			minSamples = info.SampleCount
		}
		if info.SampleCount > maxSamples {
			maxSamples = info.SampleCount
		}
	}

	summary.DatasetInfo = DatasetInfo{
		TotalEnvironments: len(list),
		TotalSamples:      totalSamples,
		UniquePhyla:       len(uniquePhyla),
	}
	summary.SampleDistribution = SampleDistribution{
		MinSamples: minSamples,
		MaxSamples: maxSamples,
		AvgSamples: math.Round(float64(totalSamples)/float64(len(list))*10) / 10,
	}

	for i, info := range list {
		if i >= topN {
			break
		}
		summary.TopEnvironments = append(summary.TopEnvironments, TopEnvironment{
			Name:          info.Name,
			Samples:       info.SampleCount,
			PhylaDetected: phylaCount[info.Name],
		})
	}
	return summary
}
