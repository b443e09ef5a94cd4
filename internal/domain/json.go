package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Prices are written as JSON numbers. decimal.Decimal reads both numbers and
// quoted strings, so only the encoding side needs overriding.

func priceNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func (i CartItem) MarshalJSON() ([]byte, error) {
	type cartItem CartItem
	return json.Marshal(struct {
		cartItem
		Price json.Number `json:"price"`
	}{cartItem(i), priceNumber(i.Price)})
}

func (c Cart) MarshalJSON() ([]byte, error) {
	type cart Cart
	return json.Marshal(struct {
		cart
		TotalPrice json.Number `json:"totalPrice"`
	}{cart(c), priceNumber(c.TotalPrice)})
}

func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	out := struct {
		product
		Price         json.Number  `json:"price"`
		OriginalPrice *json.Number `json:"originalPrice,omitempty"`
	}{product: product(p), Price: priceNumber(p.Price)}
	if p.OriginalPrice != nil {
		n := priceNumber(*p.OriginalPrice)
		out.OriginalPrice = &n
	}
	return json.Marshal(out)
}
