package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the cart-status variant of Order. A Cart value always holds at
// least one line; operations that would empty it return nil instead.
type Cart struct {
	id        uuid.UUID
	userID    uuid.UUID
	items     []OrderItem
	createdAt time.Time
	updatedAt time.Time
}

// NewCart opens a cart for userID holding a single line.
func NewCart(userID uuid.UUID, first OrderItem, now time.Time) (*Cart, error) {
	if first.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	id := uuid.New()
	first.OrderID = id
	return &Cart{
		id:        id,
		userID:    userID,
		items:     []OrderItem{first},
		createdAt: now,
		updatedAt: now,
	}, nil
}

// CartFromOrder narrows a persisted order to the cart variant.
func CartFromOrder(o Order) (*Cart, error) {
	if o.Status != StatusCart {
		return nil, ErrInvalidTransition.WithMessage(
			fmt.Sprintf("order %s is %s, not a cart", o.ID, o.Status))
	}
	if len(o.Items) == 0 {
		return nil, ErrCartEmpty
	}
	return &Cart{
		id:        o.ID,
		userID:    o.UserID,
		items:     slices.Clone(o.Items),
		createdAt: o.CreatedAt,
		updatedAt: o.UpdatedAt,
	}, nil
}

func (c *Cart) ID() uuid.UUID     { return c.id }
func (c *Cart) UserID() uuid.UUID { return c.userID }

// Items returns a copy of the lines.
func (c *Cart) Items() []OrderItem { return slices.Clone(c.items) }

// Total is always derived from the lines.
func (c *Cart) Total() decimal.Decimal { return Total(c.items) }

// Quantity returns the quantity already in the cart for productID.
func (c *Cart) Quantity(productID uuid.UUID) int {
	if i := c.index(productID); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Add returns a new cart in which line.Quantity is added to any existing line
// for the same product. The price snapshot of that line is replaced by line's.
func (c *Cart) Add(line OrderItem, now time.Time) (*Cart, error) {
	if line.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	next := c.clone(now)
	line.OrderID = c.id
	if i := next.index(line.ProductID); i >= 0 {
		line.ID = next.items[i].ID
		line.Quantity += next.items[i].Quantity
		next.items[i] = line
	} else {
		next.items = append(next.items, line)
	}
	return next, nil
}

// Without returns a new cart lacking productID's line. A nil cart with a nil
// error means the cart became empty and must be discarded.
func (c *Cart) Without(productID uuid.UUID, now time.Time) (*Cart, error) {
	i := c.index(productID)
	if i < 0 {
		return nil, ErrItemNotInCart
	}
	if len(c.items) == 1 {
		return nil, nil
	}
	next := c.clone(now)
	next.items = slices.Delete(next.items, i, i+1)
	return next, nil
}

// Order renders the cart as its persisted document.
func (c *Cart) Order() Order {
	return Order{
		ID:         c.id,
		UserID:     c.userID,
		Status:     StatusCart,
		Items:      c.Items(),
		TotalPrice: c.Total(),
		CreatedAt:  c.createdAt,
		UpdatedAt:  c.updatedAt,
	}
}

// Checkout produces the pending order that replaces this cart.
func (c *Cart) Checkout(shipping Address, now time.Time) (Order, error) {
	if missing := shipping.MissingFields(); len(missing) > 0 {
		return Order{}, ErrInvalidAddress.WithMessage(
			fmt.Sprintf("shipping address is missing required fields: %v", missing))
	}
	o := c.Order()
	if err := o.TransitionTo(StatusPending, now); err != nil {
		return Order{}, err
	}
	o.ShippingAddress = &shipping
	return o, nil
}

func (c *Cart) index(productID uuid.UUID) int {
	return slices.IndexFunc(c.items, func(item OrderItem) bool {
		return item.ProductID == productID
	})
}

func (c *Cart) clone(now time.Time) *Cart {
	return &Cart{
		id:        c.id,
		userID:    c.userID,
		items:     slices.Clone(c.items),
		createdAt: c.createdAt,
		updatedAt: now,
	}
}
