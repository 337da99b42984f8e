package pipeline

import (
	"github.com/damianti/micro-organisms/internal/dataset"
)

// JoinedRow combines one abundance row with its matching metadata row.
// Values is parallel to the join result's TaxonColumns.
type JoinedRow struct {
	RunAccession string
	OrganismName string
	Biosample    string
	Values       []float64
}

// JoinResult is the output of the metagenome filter + inner join stage.
type JoinResult struct {
	Rows         []JoinedRow
	TaxonColumns []string

	// Diagnostics. RowsLost counts abundance rows that found no metagenome
	// metadata match (expected attrition, not an error).
	TotalMetadataRows int
	MetagenomeRows    int
	RowsLost          int
}

// Join filters the metadata table to metagenome rows and inner-joins the
// abundance table against it on biorun == run_accession. Rows without a
// match on either side are dropped silently. Result order follows the
// abundance table; duplicate run accessions on the metadata side fan out.
func Join(meta *dataset.MetadataTable, abundance *dataset.AbundanceTable) (*JoinResult, error) {
	if meta == nil || abundance == nil {
		return nil, ErrNotReady
	}

	metagenomes := FilterMetagenomes(meta)

	byAccession := make(map[string][]dataset.SampleMetadataRow, metagenomes.Len())
	for _, row := range metagenomes.Rows {
		byAccession[row.RunAccession] = append(byAccession[row.RunAccession], row)
	}

	result := &JoinResult{
		TaxonColumns:      abundance.TaxonColumns,
		TotalMetadataRows: meta.Len(),
		MetagenomeRows:    metagenomes.Len(),
	}
	for _, ab := range abundance.Rows {
		for _, md := range byAccession[ab.Biorun] {
			result.Rows = append(result.Rows, JoinedRow{
				RunAccession: md.RunAccession,
				OrganismName: md.OrganismName,
				Biosample:    md.Biosample,
				Values:       ab.Values,
			})
		}
	}
	result.RowsLost = abundance.Len() - len(result.Rows)

	return result, nil
}
