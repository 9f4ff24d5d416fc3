package service

import (
	"context"
	"io"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/repository"

	"github.com/google/uuid"
)

// OrderService drives the cart and order lifecycle.
type OrderService interface {
	// AddToCart adds quantity units of a product to the actor's cart, opening
	// the cart when none exists.
	AddToCart(ctx context.Context, actor authz.Actor, req model.AddToCartRequest) (*model.Order, error)

	// GetCart returns the actor's cart with product details, or an empty cart
	// with a nil ID when the actor has none.
	GetCart(ctx context.Context, actor authz.Actor) (*model.Order, error)

	// RemoveFromCart drops a product line. It returns nil when the cart was
	// emptied and therefore deleted.
	RemoveFromCart(ctx context.Context, actor authz.Actor, productID uuid.UUID) (*model.Order, error)

	// Checkout turns the cart into a pending order and takes the stock.
	Checkout(ctx context.Context, actor authz.Actor, req model.CheckoutRequest) (*model.CheckoutResult, error)

	// ConfirmPayment records the buyer's payment proof on a pending order.
	ConfirmPayment(ctx context.Context, actor authz.Actor, in model.ConfirmPaymentInput) (*model.Order, error)

	// ApprovePayment confirms an order awaiting payment review.
	ApprovePayment(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*model.Order, error)

	// ListAll returns every order, optionally restricted to one status.
	ListAll(ctx context.Context, actor authz.Actor, status *model.OrderStatus) ([]model.Order, error)

	// GetForAdmin returns any order by ID.
	GetForAdmin(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error)

	// ListForSeller returns the orders holding the actor's products, reduced to the actor's lines.
	ListForSeller(ctx context.Context, actor authz.Actor) ([]model.Order, error)

	// GetForSeller returns one such order.
	GetForSeller(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error)

	// ListForBuyer returns the actor's checked-out orders.
	ListForBuyer(ctx context.Context, actor authz.Actor) ([]model.Order, error)

	// GetForBuyer returns one of the actor's orders.
	GetForBuyer(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error)
}

// CatalogService manages categories, products, promotions and reviews.
type CatalogService interface {
	CreateCategory(ctx context.Context, actor authz.Actor, name, description string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, actor authz.Actor, req model.ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor authz.Actor, id uuid.UUID, req model.ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) error

	// Popular ranks products by average rating, newest first on ties, one per product code.
	Popular(ctx context.Context, categoryID *uuid.UUID, limit int) ([]model.Product, error)

	// Promotional lists products whose promotion is currently valid.
	Promotional(ctx context.Context, limit int) ([]model.Product, error)

	AddPromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.PromotionRequest) (*model.Product, error)
	UpdatePromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.PromotionRequest) (*model.Promotion, error)
	RemovePromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID) (*model.Product, error)

	ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error)
	AddReview(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.ReviewRequest) (*model.Review, error)
	UpdateReview(ctx context.Context, actor authz.Actor, productID, reviewID uuid.UUID, req model.ReviewRequest) (*model.Review, error)
	DeleteReview(ctx context.Context, actor authz.Actor, productID, reviewID uuid.UUID) error
}

// IdentityService manages accounts, credentials and profiles.
type IdentityService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)

	// Authenticate resolves an access token to the current account.
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)

	ResetPassword(ctx context.Context, actor authz.Actor, req model.ResetPasswordRequest) error
	GetProfile(ctx context.Context, actor authz.Actor) (*model.User, error)
	UpdateProfile(ctx context.Context, actor authz.Actor, req model.ProfileUpdate) (*model.User, error)
	UploadPromptPayQR(ctx context.Context, actor authz.Actor, filename, contentType string, body io.Reader) (*model.User, error)
	OpenStore(ctx context.Context, actor authz.Actor, req model.StoreRequest) (*model.User, error)

	ListUsers(ctx context.Context, actor authz.Actor, limit, offset int) ([]model.User, error)
	GetUser(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, actor authz.Actor, id uuid.UUID, req model.AdminUserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, actor authz.Actor, id uuid.UUID) error
}

// NotificationService exposes a user's notifications.
type NotificationService interface {
	List(ctx context.Context, actor authz.Actor, unreadOnly bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
}
