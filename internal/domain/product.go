package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	ImageURL      string           `json:"imageUrl"`
	IsOnSale      bool             `json:"isOnSale"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Rating        float64          `json:"rating"`
	ReviewCount   int              `json:"reviewCount"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CartItem converts the product to a cart line with the given quantity.
func (p Product) CartItem(quantity int) CartItem {
	return CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		Category: p.Category,
		Quantity: quantity,
	}
}
