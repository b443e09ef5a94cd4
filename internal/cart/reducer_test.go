package cart

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, name, price string, quantity int) domain.CartItem {
	return domain.CartItem{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "clothing",
		Quantity: quantity,
	}
}

func assertTotalsConsistent(t *testing.T, cart domain.Cart) {
	t.Helper()
	totalItems := 0
	totalPrice := decimal.Zero
	for _, it := range cart.Items {
		totalItems += it.Quantity
		totalPrice = totalPrice.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.Equal(t, totalItems, cart.TotalItems)
	assert.True(t, totalPrice.Equal(cart.TotalPrice), "total price %s, want %s", cart.TotalPrice, totalPrice)
}

func assertSameCart(t *testing.T, want, got domain.Cart) {
	t.Helper()
	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		assert.Equal(t, want.Items[i].ID, got.Items[i].ID)
		assert.Equal(t, want.Items[i].Quantity, got.Items[i].Quantity)
		assert.True(t, want.Items[i].Price.Equal(got.Items[i].Price))
	}
	assert.Equal(t, want.TotalItems, got.TotalItems)
	assert.True(t, want.TotalPrice.Equal(got.TotalPrice))
}

func TestReduce_AddItemAppendsInOrder(t *testing.T) {
	state := domain.NewCart(nil)

	state = Reduce(state, AddItem{Item: item("7", "Cotton T-Shirt", "19.99", 1)})
	state = Reduce(state, AddItem{Item: item("8", "Denim Jeans", "79.99", 2)})

	require.Len(t, state.Items, 2)
	assert.Equal(t, "7", state.Items[0].ID)
	assert.Equal(t, "8", state.Items[1].ID)
	assert.Equal(t, 3, state.TotalItems)
	assert.Equal(t, "179.97", state.TotalPrice.StringFixed(2))
}

func TestReduce_AddSameIDMergesQuantity(t *testing.T) {
	state := domain.NewCart(nil)

	state = Reduce(state, AddItem{Item: item("7", "Cotton T-Shirt", "19.99", 1)})
	state = Reduce(state, AddItem{Item: item("7", "Renamed Shirt", "5.00", 3)})

	require.Len(t, state.Items, 1)
	assert.Equal(t, 4, state.Items[0].Quantity)
	assert.Equal(t, "Cotton T-Shirt", state.Items[0].Name, "later adds must not overwrite fields")
	assert.Equal(t, "19.99", state.Items[0].Price.String())
	assertTotalsConsistent(t, state)
}

func TestReduce_RemoveItem(t *testing.T) {
	state := domain.NewCart([]domain.CartItem{
		item("1", "a", "1.00", 1),
		item("2", "b", "2.00", 2),
	})

	state = Reduce(state, RemoveItem{ID: "1"})

	require.Len(t, state.Items, 1)
	assert.Equal(t, "2", state.Items[0].ID)
	assertTotalsConsistent(t, state)
}

func TestReduce_RemoveMissingIsNoop(t *testing.T) {
	state := domain.NewCart([]domain.CartItem{item("1", "a", "1.00", 1)})

	next := Reduce(state, RemoveItem{ID: "missing"})

	assertSameCart(t, state, next)
}

func TestReduce_UpdateQuantitySetsAbsolute(t *testing.T) {
	state := domain.NewCart([]domain.CartItem{item("1", "a", "1.50", 5)})

	state = Reduce(state, UpdateQuantity{ID: "1", Quantity: 2})

	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, "3", state.TotalPrice.String())
}

func TestReduce_UpdateQuantityZeroRemoves(t *testing.T) {
	state := domain.NewCart([]domain.CartItem{item("1", "a", "1.00", 1), item("2", "b", "1.00", 1)})

	state = Reduce(state, UpdateQuantity{ID: "1", Quantity: 0})
	assert.Len(t, state.Items, 1)

	state = Reduce(state, UpdateQuantity{ID: "2", Quantity: -3})
	assert.Empty(t, state.Items)
	assertTotalsConsistent(t, state)
}

func TestReduce_UpdateQuantityMissingIsNoop(t *testing.T) {
	state := domain.NewCart([]domain.CartItem{item("1", "a", "1.00", 1)})

	next := Reduce(state, UpdateQuantity{ID: "missing", Quantity: 4})

	assertSameCart(t, state, next)
}

func TestReduce_ClearCart(t *testing.T) {
	state := domain.NewCart([]domain.CartItem{item("1", "a", "9.99", 4)})

	state = Reduce(state, ClearCart{})

	assert.Empty(t, state.Items)
	assert.Equal(t, 0, state.TotalItems)
	assert.True(t, state.TotalPrice.IsZero())
}

func TestReduce_LoadCartRecomputesTotals(t *testing.T) {
	loaded := []domain.CartItem{item("3", "Laptop", "1299.99", 1), item("4", "Gatsby", "12.99", 2)}

	state := Reduce(domain.NewCart(nil), LoadCart{Items: loaded})

	assert.Equal(t, 3, state.TotalItems)
	assert.Equal(t, "1325.97", state.TotalPrice.String())

	loaded[0].Quantity = 99
	assert.Equal(t, 1, state.Items[0].Quantity, "loaded items must be copied")
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	state := domain.NewCart([]domain.CartItem{item("1", "a", "1.00", 1)})

	_ = Reduce(state, AddItem{Item: item("1", "a", "1.00", 5)})
	_ = Reduce(state, UpdateQuantity{ID: "1", Quantity: 7})

	assert.Equal(t, 1, state.Items[0].Quantity)
}

func TestReduce_RandomSequencesKeepTotalsConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prices := []string{"19.99", "79.99", "0.01", "1299.99", "12.5"}

	for run := 0; run < 50; run++ {
		state := domain.NewCart(nil)
		for step := 0; step < 40; step++ {
			id := strconv.Itoa(rng.Intn(6))
			switch rng.Intn(4) {
			case 0, 1:
				state = Reduce(state, AddItem{Item: item(id, "p"+id, prices[rng.Intn(len(prices))], rng.Intn(5)+1)})
			case 2:
				state = Reduce(state, RemoveItem{ID: id})
			case 3:
				state = Reduce(state, UpdateQuantity{ID: id, Quantity: rng.Intn(6) - 1})
			}
			assertTotalsConsistent(t, state)

			ids := make(map[string]bool)
			for _, it := range state.Items {
				assert.False(t, ids[it.ID], "duplicate line %s", it.ID)
				ids[it.ID] = true
				assert.GreaterOrEqual(t, it.Quantity, 1)
			}
		}
	}
}
