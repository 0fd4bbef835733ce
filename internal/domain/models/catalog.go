package models

// Product is one catalog entry. File names the product's review and series
// table under the data directory.
type Product struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	Category string `json:"category,omitempty"`
}
