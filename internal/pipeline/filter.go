package pipeline

import (
	"strings"

	"github.com/damianti/micro-organisms/internal/dataset"
)

// metagenomeMarker identifies organism names that describe pooled microbial
// community samples rather than single organisms.
const metagenomeMarker = "metagenome"

// FilterMetagenomes returns the subset of metadata rows whose organism name
// contains the metagenome marker. The match is case-sensitive; rows with an
// empty organism name are excluded. Original row order is preserved.
func FilterMetagenomes(meta *dataset.MetadataTable) *dataset.MetadataTable {
	filtered := &dataset.MetadataTable{}
	for _, row := range meta.Rows {
		if strings.Contains(row.OrganismName, metagenomeMarker) {
			filtered.Rows = append(filtered.Rows, row)
		}
	}
	return filtered
}
