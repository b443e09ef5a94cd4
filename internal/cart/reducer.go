package cart

import "github.com/fjod/go_cart/storefront-service/internal/domain"

// Action is one of AddItem, RemoveItem, UpdateQuantity, ClearCart, LoadCart.
type Action interface {
	actionName() string
}

// AddItem merges Item into the cart; Item.Quantity is the amount to add.
type AddItem struct {
	Item domain.CartItem
}

type RemoveItem struct {
	ID string
}

// UpdateQuantity sets an absolute quantity. Zero or less removes the line.
type UpdateQuantity struct {
	ID       string
	Quantity int
}

type ClearCart struct{}

// LoadCart replaces the whole cart.
type LoadCart struct {
	Items []domain.CartItem
}

func (AddItem) actionName() string        { return "add_item" }
func (RemoveItem) actionName() string     { return "remove_item" }
func (UpdateQuantity) actionName() string { return "update_quantity" }
func (ClearCart) actionName() string      { return "clear_cart" }
func (LoadCart) actionName() string       { return "load_cart" }

// Reduce maps the current cart and an action to the next cart. It never
// modifies state and has no side effects.
func Reduce(state domain.Cart, action Action) domain.Cart {
	switch a := action.(type) {
	case AddItem:
		items := make([]domain.CartItem, 0, len(state.Items)+1)
		found := false
		for _, item := range state.Items {
			if item.ID == a.Item.ID {
				item.Quantity += a.Item.Quantity
				found = true
			}
			items = append(items, item)
		}
		if !found {
			items = append(items, a.Item)
		}
		return domain.NewCart(items)

	case RemoveItem:
		items := make([]domain.CartItem, 0, len(state.Items))
		for _, item := range state.Items {
			if item.ID != a.ID {
				items = append(items, item)
			}
		}
		return domain.NewCart(items)

	case UpdateQuantity:
		if a.Quantity <= 0 {
			return Reduce(state, RemoveItem{ID: a.ID})
		}
		items := make([]domain.CartItem, len(state.Items))
		for i, item := range state.Items {
			if item.ID == a.ID {
				item.Quantity = a.Quantity
			}
			items[i] = item
		}
		return domain.NewCart(items)

	case ClearCart:
		return domain.NewCart(nil)

	case LoadCart:
		items := make([]domain.CartItem, len(a.Items))
		copy(items, a.Items)
		return domain.NewCart(items)

	default:
		return state
	}
}
