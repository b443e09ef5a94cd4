package catalog

import (
	"testing"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	products := []domain.Product{
		{ID: "1", Name: "Wireless Headphones", Description: "noise cancellation", Category: "electronics"},
		{ID: "2", Name: "Phone case", Description: "fits any smartphone", Category: "electronics"},
		{ID: "3", Name: "Smartphone", Description: "advanced features", Category: "electronics"},
		{ID: "4", Name: "Gatsby", Description: "Classic novel", Category: "books"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"blank returns all", "   ", []string{"1", "2", "3", "4"}},
		{"name matches first", "smartphone", []string{"3", "2"}},
		{"case insensitive", "PHONE", []string{"1", "2", "3"}},
		{"category match", "books", []string{"4"}},
		{"no match", "garden hose", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Search(products, tt.query)))
		})
	}
}

func TestSearch_DoesNotAliasInput(t *testing.T) {
	products := []domain.Product{{ID: "1", Name: "a"}}

	out := Search(products, "")
	out[0].Name = "changed"

	assert.Equal(t, "a", products[0].Name)
}
