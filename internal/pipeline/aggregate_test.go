package pipeline

import (
	"errors"
	"math"
	"testing"
)

func joinedFixture() *JoinResult {
	return &JoinResult{
		TaxonColumns: []string{"d__Bacteria;p__X", "d__Archaea", "unassigned"},
		Rows: []JoinedRow{
			{RunAccession: "R1", OrganismName: "soil metagenome", Values: []float64{80, 0, 20}},
			{RunAccession: "R2", OrganismName: "soil metagenome", Values: []float64{60, 10, 30}},
			{RunAccession: "R3", OrganismName: "marine metagenome", Values: []float64{10, 40, 50}},
		},
	}
}

func TestSignificantEnvironments(t *testing.T) {
	rows := joinedFixture().Rows

	counts := SignificantEnvironments(rows, 2)
	if len(counts) != 1 {
		t.Fatalf("expected 1 significant environment, got %d", len(counts))
	}
	if counts["soil metagenome"] != 2 {
		t.Errorf("expected soil count 2, got %d", counts["soil metagenome"])
	}

	all := SignificantEnvironments(rows, 1)
	if len(all) != 2 {
		t.Errorf("expected 2 environments with min_samples=1, got %d", len(all))
	}
}

func TestComputeAggregates(t *testing.T) {
	set, err := ComputeAggregates(joinedFixture(), 2)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}

	if len(set.Environments) != 1 {
		t.Fatalf("expected 1 environment, got %d", len(set.Environments))
	}
	soil := set.Environments["soil metagenome"]
	if soil == nil {
		t.Fatal("missing soil metagenome aggregate")
	}
	if soil.SampleCount != 2 {
		t.Errorf("expected sample count 2, got %d", soil.SampleCount)
	}

	stats := soil.Stats["d__Bacteria;p__X"]
	if stats.Mean != 70 {
		t.Errorf("expected mean 70, got %v", stats.Mean)
	}
	// Sample stddev of {80, 60} is sqrt(200) = 14.1421
	if stats.StdDev != 14.1421 {
		t.Errorf("expected stddev 14.1421, got %v", stats.StdDev)
	}

	if set.Environments["marine metagenome"] != nil {
		t.Error("below-threshold environment should be pruned")
	}
}

func TestComputeAggregatesSingleSample(t *testing.T) {
	set, err := ComputeAggregates(joinedFixture(), 1)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}

	marine := set.Environments["marine metagenome"]
	if marine == nil {
		t.Fatal("missing marine metagenome aggregate")
	}
	stats := marine.Stats["d__Archaea"]
	if stats.Mean != 40 {
		t.Errorf("expected mean 40, got %v", stats.Mean)
	}
	if !math.IsNaN(stats.StdDev) {
		t.Errorf("expected NaN stddev for single-sample group, got %v", stats.StdDev)
	}
}

func TestComputeAggregatesRounding(t *testing.T) {
	join := &JoinResult{
		TaxonColumns: []string{"d__Bacteria"},
		Rows: []JoinedRow{
			{OrganismName: "soil metagenome", Values: []float64{1}},
			{OrganismName: "soil metagenome", Values: []float64{1}},
			{OrganismName: "soil metagenome", Values: []float64{0}},
		},
	}
	set, err := ComputeAggregates(join, 1)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}
	// 2/3 rounds to 0.6667 at 4 decimals
	if got := set.Environments["soil metagenome"].Stats["d__Bacteria"].Mean; got != 0.6667 {
		t.Errorf("expected mean 0.6667, got %v", got)
	}
}

func TestComputeAggregatesNil(t *testing.T) {
	if _, err := ComputeAggregates(nil, 1); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestComposition(t *testing.T) {
	set, err := ComputeAggregates(joinedFixture(), 1)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}

	comp, err := set.Composition("soil metagenome", 0.5)
	if err != nil {
		t.Fatalf("composition failed: %v", err)
	}
	if comp.Environment != "soil metagenome" || comp.TotalSamples != 2 {
		t.Errorf("unexpected header: %+v", comp)
	}

	// Means: p__X 70, unassigned 25, Archaea 5 - all above 0.5, sorted desc.
	want := []CompositionEntry{
		{Taxon: "Bacteria - X", TaxonFull: "d__Bacteria;p__X", Abundance: 70},
		{Taxon: "Unassigned", TaxonFull: "unassigned", Abundance: 25},
		{Taxon: "Archaea", TaxonFull: "d__Archaea", Abundance: 5},
	}
	if len(comp.Composition) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(comp.Composition))
	}
	for i, entry := range comp.Composition {
		if entry != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, entry, want[i])
		}
	}

	// Sorted strictly descending
	for i := 1; i < len(comp.Composition); i++ {
		if comp.Composition[i].Abundance > comp.Composition[i-1].Abundance {
			t.Error("composition not sorted descending")
		}
	}
}

func TestCompositionMinAbundance(t *testing.T) {
	set, err := ComputeAggregates(joinedFixture(), 1)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}

	comp, err := set.Composition("soil metagenome", 10)
	if err != nil {
		t.Fatalf("composition failed: %v", err)
	}
	if len(comp.Composition) != 2 {
		t.Fatalf("expected 2 entries above 10%%, got %d", len(comp.Composition))
	}
	for _, entry := range comp.Composition {
		if entry.Abundance <= 10 {
			t.Errorf("entry %v below threshold", entry)
		}
	}
}

func TestCompositionTieStable(t *testing.T) {
	join := &JoinResult{
		TaxonColumns: []string{"d__Bacteria;p__A", "d__Bacteria;p__B", "d__Bacteria;p__C"},
		Rows: []JoinedRow{
			{OrganismName: "soil metagenome", Values: []float64{30, 40, 30}},
		},
	}
	set, err := ComputeAggregates(join, 1)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}
	comp, err := set.Composition("soil metagenome", 0.5)
	if err != nil {
		t.Fatalf("composition failed: %v", err)
	}

	// B first, then the 30/30 tie in original column order: A before C.
	got := []string{comp.Composition[0].TaxonFull, comp.Composition[1].TaxonFull, comp.Composition[2].TaxonFull}
	want := []string{"d__Bacteria;p__B", "d__Bacteria;p__A", "d__Bacteria;p__C"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCompositionNotFound(t *testing.T) {
	set, err := ComputeAggregates(joinedFixture(), 1)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}

	_, err = set.Composition("lunar regolith", 0.5)
	var notFound *EnvironmentNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected EnvironmentNotFoundError, got %v", err)
	}
	if notFound.Name != "lunar regolith" {
		t.Errorf("unexpected name %q", notFound.Name)
	}
	if len(notFound.Available) == 0 || len(notFound.Available) > 5 {
		t.Errorf("expected 1-5 example names, got %v", notFound.Available)
	}
}

func TestEnvironmentList(t *testing.T) {
	set, err := ComputeAggregates(joinedFixture(), 1)
	if err != nil {
		t.Fatalf("aggregation failed: %v", err)
	}

	list := set.EnvironmentList()
	if len(list) != 2 {
		t.Fatalf("expected 2 environments, got %d", len(list))
	}
	if list[0].Name != "soil metagenome" || list[0].SampleCount != 2 {
		t.Errorf("unexpected first entry: %+v", list[0])
	}
	if list[1].Name != "marine metagenome" || list[1].SampleCount != 1 {
		t.Errorf("unexpected second entry: %+v", list[1])
	}
}
