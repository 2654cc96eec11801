package directory

import "strings"

// categoryFacets maps intent categories onto the search index's facet
// vocabulary. The facet names are a configuration contract with the index:
// adding a category means updating both the intent prompt and this table.
var categoryFacets = map[string]string{
	"food":           "Food Assistance",
	"housing":        "Housing & Shelter",
	"health":         "Health Care",
	"employment":     "Jobs & Training",
	"legal":          "Legal Services",
	"transportation": "Transportation",
	"utilities":      "Utility Assistance",
	"childcare":      "Child Care",
	"education":      "Education",
	"financial":      "Financial Assistance",
	"pets":           "Pet Resources",

	// Narrow audiences collapse onto the broader facets their programs are
	// indexed under.
	"seniors":    "Health Care",
	"veterans":   "Jobs & Training",
	"disability": "Health Care",
}

// FacetFor returns the index facet for an intent category, or empty when the
// search should be unfiltered (general / unknown categories).
func FacetFor(category string) string {
	return categoryFacets[strings.ToLower(strings.TrimSpace(category))]
}
