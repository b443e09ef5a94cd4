package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCart_DerivesTotals(t *testing.T) {
	cart := NewCart([]CartItem{
		{ID: "7", Name: "Cotton T-Shirt", Price: decimal.RequireFromString("19.99"), Quantity: 1},
		{ID: "8", Name: "Denim Jeans", Price: decimal.RequireFromString("79.99"), Quantity: 2},
	})

	assert.Equal(t, 3, cart.TotalItems)
	assert.True(t, decimal.RequireFromString("179.97").Equal(cart.TotalPrice), "got %s", cart.TotalPrice)
	assert.Equal(t, "179.97", cart.FormattedTotal())
}

func TestNewCart_NilItemsIsEmpty(t *testing.T) {
	cart := NewCart(nil)

	assert.NotNil(t, cart.Items)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.TotalItems)
	assert.True(t, cart.TotalPrice.IsZero())
	assert.Equal(t, "0.00", cart.FormattedTotal())
}

func TestFormattedTotal_RoundsOnlyForDisplay(t *testing.T) {
	cart := NewCart([]CartItem{
		{ID: "1", Price: decimal.RequireFromString("0.333"), Quantity: 3},
	})

	assert.Equal(t, "0.999", cart.TotalPrice.String())
	assert.Equal(t, "1.00", cart.FormattedTotal())
}

func TestClone_DoesNotAliasItems(t *testing.T) {
	cart := NewCart([]CartItem{{ID: "1", Price: decimal.NewFromInt(1), Quantity: 1}})
	clone := cart.Clone()

	clone.Items[0].Quantity = 50

	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestUser_IdentityStripsPassword(t *testing.T) {
	u := User{ID: "u1", Email: "a@x.com", Password: "Passw0rd"}

	id := u.Identity()

	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "a@x.com", id.Email)
}

func TestSessionStatus_IsSettled(t *testing.T) {
	assert.False(t, SessionInitializing.IsSettled())
	assert.False(t, SessionAuthenticating.IsSettled())
	assert.True(t, SessionUnauthenticated.IsSettled())
	assert.True(t, SessionAuthenticated.IsSettled())
}

func TestCartItem_PriceIsJSONNumber(t *testing.T) {
	item := CartItem{ID: "7", Name: "Cotton T-Shirt", Price: decimal.RequireFromString("19.99"), Category: "clothing", Quantity: 2}

	data, err := json.Marshal([]CartItem{item})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"7","name":"Cotton T-Shirt","price":19.99,"imageUrl":"","category":"clothing","quantity":2}]`, string(data))

	var back []CartItem
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 1)
	assert.True(t, item.Price.Equal(back[0].Price))
}

func TestCartItem_ReadsQuotedPrice(t *testing.T) {
	var item CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","price":"19.99","quantity":1}`), &item))
	assert.Equal(t, "19.99", item.Price.String())
}

func TestCart_TotalPriceIsJSONNumber(t *testing.T) {
	cart := NewCart([]CartItem{
		{ID: "7", Price: decimal.RequireFromString("19.99"), Quantity: 1},
		{ID: "8", Price: decimal.RequireFromString("79.99"), Quantity: 2},
	})

	data, err := json.Marshal(cart)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "179.97", string(raw["totalPrice"]))
	assert.Equal(t, "3", string(raw["totalItems"]))
}

func TestProduct_PricesAreJSONNumbers(t *testing.T) {
	original := decimal.RequireFromString("799.99")
	p := Product{ID: "2", Name: "Smartphone", Price: decimal.RequireFromString("699.99"), IsOnSale: true, OriginalPrice: &original}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "699.99", string(raw["price"]))
	assert.Equal(t, "799.99", string(raw["originalPrice"]))

	data, err = json.Marshal(Product{ID: "1", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "originalPrice")
}
