// Package pricing resolves the effective unit price of a product.
package pricing

import (
	"time"

	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is the resolved price of one unit.
type Quote struct {
	BasePrice       decimal.Decimal
	DiscountedPrice decimal.Decimal
	PromotionID     *uuid.UUID
}

var hundred = decimal.NewFromInt(100)

// Resolve applies the product's promotion when it is valid at now. Discounted
// prices are rounded half away from zero to two decimal places.
func Resolve(p model.Product, now time.Time) Quote {
	q := Quote{BasePrice: p.Price, DiscountedPrice: p.Price}

	promo := p.Promotion
	if !promo.ValidAt(now) {
		return q
	}

	pct := decimal.Min(decimal.Max(promo.DiscountPercentage, decimal.Zero), hundred)
	discount := p.Price.Mul(pct).Div(hundred)
	q.DiscountedPrice = p.Price.Sub(discount).Round(2)
	id := promo.ID
	q.PromotionID = &id
	return q
}

// Line builds a cart line for qty units of p priced at now.
func Line(p model.Product, qty int, now time.Time) model.OrderItem {
	q := Resolve(p, now)
	return model.OrderItem{
		ProductID:       p.ID,
		SellerID:        p.SellerID,
		Quantity:        qty,
		Price:           q.BasePrice,
		DiscountedPrice: q.DiscountedPrice,
		PromotionID:     q.PromotionID,
		Unit:            p.Unit,
	}
}
