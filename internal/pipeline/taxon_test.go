package pipeline

import "testing"

func TestCleanTaxonName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"unassigned", "Unassigned"},
		{"d__Bacteria;p__Pseudomonadota", "Bacteria - Pseudomonadota"},
		{"d__Archaea", "Archaea"},
		{"d__Bacteria;p__X", "Bacteria - X"},
		{"d__Archaea;p__Thermoproteota", "Archaea - Thermoproteota"},
	}
	for _, tc := range cases {
		if got := CleanTaxonName(tc.in); got != tc.want {
			t.Errorf("CleanTaxonName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
