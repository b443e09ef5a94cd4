package domain

import "github.com/shopspring/decimal"

type Cart struct {
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
}

// NewCart builds a cart from items and derives both totals from them.
// Totals are never set any other way.
func NewCart(items []CartItem) Cart {
	cart := Cart{
		Items:      items,
		TotalPrice: decimal.Zero,
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	for _, item := range cart.Items {
		cart.TotalItems += item.Quantity
		cart.TotalPrice = cart.TotalPrice.Add(item.Subtotal())
	}
	return cart
}

// Subtotal returns price * quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FormattedTotal is the two-decimal presentation of TotalPrice.
func (c Cart) FormattedTotal() string {
	return c.TotalPrice.StringFixed(2)
}

// Clone returns a copy whose item slice does not alias c.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
