package domain

import (
	"regexp"
	"strings"
)

// Product represents a catalog item
type Product struct {
	ID            int64             `json:"id" db:"id"`
	Name          string            `json:"name" db:"name"`
	Slug          string            `json:"slug" db:"slug"`
	Description   string            `json:"description" db:"description"`
	Price         float64           `json:"price" db:"price"`
	OriginalPrice *float64          `json:"originalPrice,omitempty" db:"original_price"`
	Category      string            `json:"category" db:"category"`
	Brand         string            `json:"brand,omitempty" db:"brand"`
	Image         string            `json:"image" db:"image"`
	Thumbnail     string            `json:"thumbnail" db:"thumbnail"`
	Rating        float64           `json:"rating" db:"rating"`
	Stock         int               `json:"stock" db:"stock"`
	Specs         map[string]string `json:"specs,omitempty" db:"specs"`
}

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s_-]+`)
)

// Slugify derives a URL slug from a product name: lowercased, non-word
// characters stripped, whitespace/underscore runs collapsed to single
// hyphens, leading and trailing hyphens trimmed.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
