package model

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order document.
type OrderStatus string

const (
	StatusCart           OrderStatus = "cart"
	StatusPending        OrderStatus = "pending"
	StatusWaitingConfirm OrderStatus = "waiting_confirm"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusCart:           {StatusPending, StatusCancelled},
	StatusPending:        {StatusWaitingConfirm, StatusCancelled},
	StatusWaitingConfirm: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusDelivered, StatusCancelled},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusCart, StatusPending, StatusWaitingConfirm, StatusConfirmed,
		StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the state machine permits s -> next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(transitions[s], next)
}

// OrderItem is one product line of an order or cart. Prices are snapshots
// taken when the line was last added to.
type OrderItem struct {
	ID              uuid.UUID       `json:"-" db:"id"`
	OrderID         uuid.UUID       `json:"-" db:"order_id"`
	ProductID       uuid.UUID       `json:"productId" db:"product_id"`
	SellerID        uuid.UUID       `json:"sellerId" db:"seller_id"`
	Quantity        int             `json:"quantity" db:"quantity"`
	Price           decimal.Decimal `json:"price" db:"price"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice" db:"discounted_price"`
	PromotionID     *uuid.UUID      `json:"promotionId,omitempty" db:"promotion_id"`
	Unit            string          `json:"unit,omitempty" db:"unit"`

	Product *Product `json:"product,omitempty"`
}

// LineTotal returns discountedPrice x quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.DiscountedPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums the line totals of items.
func Total(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Order is a persisted order document. While Status is StatusCart it is the
// buyer's basket; use Cart to mutate it.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	Status          OrderStatus     `json:"orderStatus" db:"status"`
	Items           []OrderItem     `json:"items"`
	TotalPrice      decimal.Decimal `json:"totalPrice" db:"total_price"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty" db:"shipping_address"`
	TransactionID   *string         `json:"transactionId,omitempty" db:"transaction_id"`
	PaymentProofRef *string         `json:"paymentProof,omitempty" db:"payment_proof_ref"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// TransitionTo moves the order to next, enforcing the status table.
func (o *Order) TransitionTo(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition.WithMessage(
			fmt.Sprintf("order %s cannot move from %s to %s", o.ID, o.Status, next))
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// SellerIDs returns the distinct non-nil sellers of the order's lines in
// first-seen order.
func (o Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, item := range o.Items {
		if item.SellerID == uuid.Nil {
			continue
		}
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		ids = append(ids, item.SellerID)
	}
	return ids
}

// HasSeller reports whether any line belongs to sellerID.
func (o Order) HasSeller(sellerID uuid.UUID) bool {
	return slices.ContainsFunc(o.Items, func(item OrderItem) bool {
		return item.SellerID == sellerID
	})
}

// ForSeller returns a copy of the order restricted to sellerID's lines,
// with TotalPrice reduced to their subtotal.
func (o Order) ForSeller(sellerID uuid.UUID) Order {
	out := o
	out.Items = nil
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			out.Items = append(out.Items, item)
		}
	}
	out.TotalPrice = Total(out.Items)
	return out
}

// SubtotalFor sums sellerID's lines.
func (o Order) SubtotalFor(sellerID uuid.UUID) decimal.Decimal {
	return o.ForSeller(sellerID).TotalPrice
}

// AddToCartRequest represents the request payload for adding to the cart.
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// CheckoutRequest represents the request payload for checking out the cart.
type CheckoutRequest struct {
	ShippingAddress *Address `json:"shippingAddress"`
}

// ApprovePaymentRequest represents the request payload for a seller approval.
type ApprovePaymentRequest struct {
	OrderID uuid.UUID `json:"orderId"`
}

// ConfirmPaymentInput carries a buyer's payment confirmation and the
// uploaded proof file.
type ConfirmPaymentInput struct {
	OrderID          uuid.UUID
	TransactionID    string
	ProofName        string
	ProofContentType string
	Proof            io.Reader
}

// SellerPayment tells the buyer how much to transfer to one seller.
type SellerPayment struct {
	SellerID   uuid.UUID       `json:"sellerId"`
	SellerName string          `json:"sellerName"`
	QRCodeURL  string          `json:"qrCodeUrl"`
	Amount     decimal.Decimal `json:"amount"`
}

// CheckoutResult is returned by a successful checkout.
type CheckoutResult struct {
	Order    Order           `json:"order"`
	Payments []SellerPayment `json:"sellerPayments"`
}
