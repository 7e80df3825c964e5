package catalog

import (
	"strings"

	"github.com/bank-spn/manus-pos/internal/domain"
)

// Filter derives the visible product list from a catalog snapshot. A
// product matches when it belongs to the selected category (nil selects
// all) and its name contains the search term in either language,
// case-insensitively. An empty term matches everything. Pure function;
// the same inputs always produce the same output.
func Filter(products []domain.Product, categoryID *int64, query string) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if categoryID != nil && (p.CategoryID == nil || *p.CategoryID != *categoryID) {
			continue
		}
		if query != "" && !matchesName(p.Name, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesName(name domain.MultiLang, loweredQuery string) bool {
	return strings.Contains(strings.ToLower(name.TH), loweredQuery) ||
		strings.Contains(strings.ToLower(name.EN), loweredQuery)
}
