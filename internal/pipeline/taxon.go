package pipeline

import "strings"

// unassignedLabel is the display name for reads with no taxonomic assignment.
const unassignedLabel = "Unassigned"

// CleanTaxonName converts a raw taxon column name into a display label.
// GTDB-style names carry domain and phylum prefixes:
//
//	d__Bacteria;p__Pseudomonadota -> "Bacteria - Pseudomonadota"
//	d__Archaea                    -> "Archaea"
//	unassigned                    -> "Unassigned"
func CleanTaxonName(taxon string) string {
	if taxon == "unassigned" {
		return unassignedLabel
	}

	parts := strings.Split(taxon, ";")
	if len(parts) >= 2 {
		domain := strings.Replace(parts[0], "d__", "", 1)
		phylum := strings.Replace(parts[1], "p__", "", 1)
		return domain + " - " + phylum
	}
	return strings.Replace(taxon, "d__", "", 1)
}
