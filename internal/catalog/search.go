package catalog

import (
	"strings"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
)

// Search filters products by a case-insensitive substring of name,
// description or category. Name matches come first; otherwise the input
// order is kept. A blank query returns every product.
func Search(products []domain.Product, query string) []domain.Product {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		out := make([]domain.Product, len(products))
		copy(out, products)
		return out
	}

	var byName, byOther []domain.Product
	for _, p := range products {
		switch {
		case strings.Contains(strings.ToLower(p.Name), term):
			byName = append(byName, p)
		case strings.Contains(strings.ToLower(p.Description), term),
			strings.Contains(strings.ToLower(p.Category), term):
			byOther = append(byOther, p)
		}
	}
	out := make([]domain.Product, 0, len(byName)+len(byOther))
	out = append(out, byName...)
	return append(out, byOther...)
}
