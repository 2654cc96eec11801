// Package directory provides access to the program catalog search index.
package directory

// Program is one directory entry. The assistant treats it as opaque beyond
// display: names, numbers, and links are surfaced verbatim, never invented.
type Program struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Areas       []string `json:"areas,omitempty"`
}
