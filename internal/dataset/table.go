package dataset

import "strings"

// SampleMetadataRow describes one biological sample run.
type SampleMetadataRow struct {
	RunAccession string `json:"run_accession"`
	OrganismName string `json:"organism_name"`
	Biosample    string `json:"biosample"`
}

// MetadataTable holds the biorun metadata rows in file order.
type MetadataTable struct {
	Rows []SampleMetadataRow
}

// Len returns the number of metadata rows.
func (t *MetadataTable) Len() int {
	return len(t.Rows)
}

// AbundanceRow is one sample's taxonomic composition. Values is parallel
// to the owning table's TaxonColumns.
type AbundanceRow struct {
	Biorun string
	Values []float64
}

// AbundanceTable holds per-sample phylum abundance fractions. TaxonColumns
// preserves the column order of the source file; that order is the stable
// tiebreak used when compositions are sorted.
type AbundanceTable struct {
	TaxonColumns []string
	Rows         []AbundanceRow
}

// Len returns the number of abundance rows.
func (t *AbundanceTable) Len() int {
	return len(t.Rows)
}

// IsTaxonColumn reports whether a column name is a taxon abundance column.
// Taxon columns are either the literal "unassigned" or GTDB-style names
// prefixed with the domain marker d__.
func IsTaxonColumn(name string) bool {
	return name == "unassigned" || strings.HasPrefix(name, "d__")
}
