package pipeline

import (
	"fmt"
	"sort"

	"github.com/damianti/micro-organisms/internal/dataset"
	"go.uber.org/zap"
)

// QuickSummary is a fast look at the metadata table without running the
// full pipeline: only the metadata source is loaded.
type QuickSummary struct {
	TotalRuns          int
	MetagenomeRuns     int
	UniqueEnvironments int
	TopEnvironments    []EnvironmentInfo
}

// QuickAnalysis loads only the metadata table and reports how many runs are
// metagenomes and which environments dominate.
func QuickAnalysis(dir string, topN int, logger *zap.Logger) (*QuickSummary, error) {
	loader := dataset.NewLoader(dir, logger)
	meta, err := loader.LoadMetadata()
	if err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}

	metagenomes := FilterMetagenomes(meta)

	counts := make(map[string]int)
	for _, row := range metagenomes.Rows {
		counts[row.OrganismName]++
	}
	top := make([]EnvironmentInfo, 0, len(counts))
	for name, n := range counts {
		top = append(top, EnvironmentInfo{Name: name, SampleCount: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].SampleCount != top[j].SampleCount {
			return top[i].SampleCount > top[j].SampleCount
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > topN {
		top = top[:topN]
	}

	return &QuickSummary{
		TotalRuns:          meta.Len(),
		MetagenomeRuns:     metagenomes.Len(),
		UniqueEnvironments: len(counts),
		TopEnvironments:    top,
	}, nil
}
