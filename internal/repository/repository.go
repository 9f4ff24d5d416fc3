package repository

import (
	"context"
	"errors"
	"time"

	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create inserts a new user. Duplicate username, email or ID card yields model.ErrDuplicateUser.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user by ID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByUsername retrieves a user by username. Returns (nil, nil) when absent.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// GetByIDs retrieves several users by ID.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)

	// ShopNameTaken reports whether another user already uses shopName.
	ShopNameTaken(ctx context.Context, shopName string, except uuid.UUID) (bool, error)

	// Update persists every mutable field of user.
	Update(ctx context.Context, user *model.User) error

	// List retrieves users with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]model.User, error)

	// Delete removes a user. Returns false when nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	// Create inserts a new category.
	Create(ctx context.Context, category *model.Category) error

	// GetByID retrieves a category. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)

	// List retrieves every category ordered by name.
	List(ctx context.Context) ([]model.Category, error)
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	Limit      int
	Offset     int
}

// StockChange is one line of a checkout stock decrement.
type StockChange struct {
	ProductID uuid.UUID
	Quantity  int
}

// ProductRepository defines the interface for product and promotion data access operations.
type ProductRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetAll retrieves products with their promotion, newest first.
	GetAll(ctx context.Context, filter ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product with its promotion. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products with their promotions.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Create inserts a new product. A duplicate code yields model.ErrDuplicateProduct.
	Create(ctx context.Context, product *model.Product) error

	// Update persists the editable fields of product.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product and its promotion.
	Delete(ctx context.Context, id uuid.UUID) error

	// LockForCheckout row-locks the given products in ID order within tx.
	LockForCheckout(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error)

	// ApplyCheckout decrements stock and increments sold for every change within tx.
	// Any line whose stock would go negative aborts with model.ErrInsufficientStock.
	ApplyCheckout(ctx context.Context, tx pgx.Tx, changes []StockChange) error

	// Popular returns products ranked by average review rating, then recency,
	// keeping one product per code.
	Popular(ctx context.Context, categoryID *uuid.UUID, limit int) ([]model.Product, error)

	// Promotional returns products whose promotion is valid at now.
	Promotional(ctx context.Context, now time.Time, limit int) ([]model.Product, error)

	// AttachPromotion inserts promo and links it to productID within tx.
	// A product that already has one yields model.ErrPromotionExists.
	AttachPromotion(ctx context.Context, tx pgx.Tx, productID uuid.UUID, promo *model.Promotion) error

	// UpdatePromotion persists promo.
	UpdatePromotion(ctx context.Context, promo *model.Promotion) error

	// DetachPromotion unlinks and deletes the promotion of productID within tx.
	DetachPromotion(ctx context.Context, tx pgx.Tx, productID, promotionID uuid.UUID) error
}

// ReviewRepository defines the interface for review data access operations.
type ReviewRepository interface {
	// Create inserts a review.
	Create(ctx context.Context, review *model.Review) error

	// GetByID retrieves a review of productID. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, productID, reviewID uuid.UUID) (*model.Review, error)

	// Update persists the rating and comment of review.
	Update(ctx context.Context, review *model.Review) error

	// Delete removes a review.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByProduct returns a product's reviews, newest first.
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error)

	// AverageRatings returns the mean rating keyed by product ID.
	AverageRatings(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]float64, error)
}

// OrderFilter narrows order listings. Nil fields do not filter.
type OrderFilter struct {
	UserID        *uuid.UUID
	SellerID      *uuid.UUID
	Status        *model.OrderStatus
	ExcludeStatus []model.OrderStatus
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetCart retrieves the buyer's cart-status order. Returns (nil, nil) when absent.
	GetCart(ctx context.Context, userID uuid.UUID) (*model.Order, error)

	// GetCartForUpdate is GetCart with the order row locked within tx.
	GetCartForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Order, error)

	// SaveCart inserts or replaces the cart document and its lines within tx.
	SaveCart(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// Delete removes an order and its lines within tx.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// GetByID retrieves an order with its lines. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIDForUpdate is GetByID with the order row locked within tx.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateState persists status, shipping address, payment fields and line seller
	// snapshots of order within tx.
	UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// List retrieves orders with their lines, newest first.
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)
}

// NotificationRepository defines the interface for notification data access operations.
type NotificationRepository interface {
	// Create inserts a notification.
	Create(ctx context.Context, n *model.Notification) error

	// ListByUser returns a user's notifications newest first, optionally unread only.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error)

	// MarkRead flags a notification owned by userID as read. Returns false when none matched.
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)

	// Delete removes a notification owned by userID. Returns false when none matched.
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

const uniqueViolation = "23505"

// uniqueConstraint returns the violated unique constraint name, if err is one.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
