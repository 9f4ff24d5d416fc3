package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products in the catalogue.
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"categoryName" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
}

// Product represents a listing owned by a single seller.
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Code          string          `json:"productCode" db:"code"`
	SellerID      uuid.UUID       `json:"sellerId" db:"seller_id"`
	CategoryID    uuid.UUID       `json:"categoryId" db:"category_id"`
	Name          string          `json:"productName" db:"name"`
	Description   string          `json:"description,omitempty" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	Unit          string          `json:"unit,omitempty" db:"unit"`
	Grades        []string        `json:"grades" db:"grades"`
	Units         []string        `json:"units" db:"units"`
	ImageRefs     []string        `json:"imageUrls" db:"image_refs"`
	PromotionID   *uuid.UUID      `json:"promotionId,omitempty" db:"promotion_id"`
	Sold          int             `json:"sold" db:"sold"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`

	Promotion     *Promotion `json:"promotion,omitempty"`
	Reviews       []Review   `json:"reviews,omitempty"`
	AverageRating *float64   `json:"averageRating,omitempty"`
}

// DefaultGrades are applied when a seller does not supply any.
var DefaultGrades = []string{"A+", "B+", "C+", "D+"}

// DefaultUnits are applied when a seller does not supply any.
var DefaultUnits = []string{"กิโลกรัม", "ตัน"}

// Promotion is a time-bounded percentage discount attached to one product.
type Promotion struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Name               string          `json:"promotionName" db:"name"`
	Description        string          `json:"description,omitempty" db:"description"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage" db:"discount_percentage"`
	StartDate          time.Time       `json:"startDate" db:"start_date"`
	EndDate            time.Time       `json:"endDate" db:"end_date"`
	IsActive           bool            `json:"isActive" db:"is_active"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at"`
}

// ValidAt reports whether the promotion applies at instant now: it must be
// active and now must fall inside [StartDate, EndDate].
func (p *Promotion) ValidAt(now time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// Review is a rating left on a product.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Username  string    `json:"username,omitempty" db:"username"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ProductRequest represents the request payload for creating or updating a product.
// On update, zero values leave the stored field unchanged.
type ProductRequest struct {
	CategoryID    *uuid.UUID       `json:"categoryId,omitempty"`
	Code          string           `json:"productCode,omitempty"`
	Name          string           `json:"productName"`
	Description   string           `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	StockQuantity *int             `json:"stockQuantity,omitempty"`
	Unit          string           `json:"unit,omitempty"`
	Grades        []string         `json:"grades,omitempty"`
	Units         []string         `json:"units,omitempty"`
	ImageRefs     []string         `json:"imageUrls,omitempty"`
}

// PromotionRequest represents the request payload for attaching or editing a promotion.
type PromotionRequest struct {
	Name               string          `json:"promotionName"`
	Description        string          `json:"description,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
	IsActive           *bool           `json:"isActive,omitempty"`
}

// Validate checks the promotion fields.
func (r PromotionRequest) Validate() error {
	if r.Name == "" || r.DiscountPercentage.IsZero() || r.StartDate.IsZero() || r.EndDate.IsZero() {
		return ErrInvalidPromotion.WithMessage("promotion name, discount percentage, start date and end date are required")
	}
	if r.DiscountPercentage.IsNegative() || r.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPromotion.WithMessage("discount percentage must be between 0 and 100")
	}
	if r.EndDate.Before(r.StartDate) {
		return ErrInvalidPromotion.WithMessage("end date must not be before start date")
	}
	return nil
}

// ReviewRequest represents the request payload for a review.
type ReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}
