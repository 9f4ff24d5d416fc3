package handler

import (
	"context"
	"io"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func orderResult(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func ordersResult(args mock.Arguments) ([]model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func productResult(args mock.Arguments) (*model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func productsResult(args mock.Arguments) ([]model.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func reviewResult(args mock.Arguments) (*model.Review, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func userResult(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) AddToCart(ctx context.Context, actor authz.Actor, req model.AddToCartRequest) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor, req))
}

func (m *MockOrderService) GetCart(ctx context.Context, actor authz.Actor) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor))
}

func (m *MockOrderService) RemoveFromCart(ctx context.Context, actor authz.Actor, productID uuid.UUID) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor, productID))
}

func (m *MockOrderService) Checkout(ctx context.Context, actor authz.Actor, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResult), args.Error(1)
}

func (m *MockOrderService) ConfirmPayment(ctx context.Context, actor authz.Actor, in model.ConfirmPaymentInput) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor, in))
}

func (m *MockOrderService) ApprovePayment(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor, orderID))
}

func (m *MockOrderService) ListAll(ctx context.Context, actor authz.Actor, status *model.OrderStatus) ([]model.Order, error) {
	return ordersResult(m.Called(ctx, actor, status))
}

func (m *MockOrderService) GetForAdmin(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor, id))
}

func (m *MockOrderService) ListForSeller(ctx context.Context, actor authz.Actor) ([]model.Order, error) {
	return ordersResult(m.Called(ctx, actor))
}

func (m *MockOrderService) GetForSeller(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor, id))
}

func (m *MockOrderService) ListForBuyer(ctx context.Context, actor authz.Actor) ([]model.Order, error) {
	return ordersResult(m.Called(ctx, actor))
}

func (m *MockOrderService) GetForBuyer(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error) {
	return orderResult(m.Called(ctx, actor, id))
}

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, actor authz.Actor, name, description string) (*model.Category, error) {
	args := m.Called(ctx, actor, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	return productsResult(m.Called(ctx, filter))
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return productResult(m.Called(ctx, id))
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, actor authz.Actor, req model.ProductRequest) (*model.Product, error) {
	return productResult(m.Called(ctx, actor, req))
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, actor authz.Actor, id uuid.UUID, req model.ProductRequest) (*model.Product, error) {
	return productResult(m.Called(ctx, actor, id, req))
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockCatalogService) Popular(ctx context.Context, categoryID *uuid.UUID, limit int) ([]model.Product, error) {
	return productsResult(m.Called(ctx, categoryID, limit))
}

func (m *MockCatalogService) Promotional(ctx context.Context, limit int) ([]model.Product, error) {
	return productsResult(m.Called(ctx, limit))
}

func (m *MockCatalogService) AddPromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.PromotionRequest) (*model.Product, error) {
	return productResult(m.Called(ctx, actor, productID, req))
}

func (m *MockCatalogService) UpdatePromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.PromotionRequest) (*model.Promotion, error) {
	args := m.Called(ctx, actor, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockCatalogService) RemovePromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID) (*model.Product, error) {
	return productResult(m.Called(ctx, actor, productID))
}

func (m *MockCatalogService) ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockCatalogService) AddReview(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.ReviewRequest) (*model.Review, error) {
	return reviewResult(m.Called(ctx, actor, productID, req))
}

func (m *MockCatalogService) UpdateReview(ctx context.Context, actor authz.Actor, productID, reviewID uuid.UUID, req model.ReviewRequest) (*model.Review, error) {
	return reviewResult(m.Called(ctx, actor, productID, reviewID, req))
}

func (m *MockCatalogService) DeleteReview(ctx context.Context, actor authz.Actor, productID, reviewID uuid.UUID) error {
	return m.Called(ctx, actor, productID, reviewID).Error(0)
}

// MockIdentityService is a mock implementation of IdentityService.
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	return userResult(m.Called(ctx, req))
}

func (m *MockIdentityService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenPair), args.Error(1)
}

func (m *MockIdentityService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenPair), args.Error(1)
}

func (m *MockIdentityService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	return userResult(m.Called(ctx, accessToken))
}

func (m *MockIdentityService) ResetPassword(ctx context.Context, actor authz.Actor, req model.ResetPasswordRequest) error {
	return m.Called(ctx, actor, req).Error(0)
}

func (m *MockIdentityService) GetProfile(ctx context.Context, actor authz.Actor) (*model.User, error) {
	return userResult(m.Called(ctx, actor))
}

func (m *MockIdentityService) UpdateProfile(ctx context.Context, actor authz.Actor, req model.ProfileUpdate) (*model.User, error) {
	return userResult(m.Called(ctx, actor, req))
}

func (m *MockIdentityService) UploadPromptPayQR(ctx context.Context, actor authz.Actor, filename, contentType string, body io.Reader) (*model.User, error) {
	return userResult(m.Called(ctx, actor, filename, contentType, body))
}

func (m *MockIdentityService) OpenStore(ctx context.Context, actor authz.Actor, req model.StoreRequest) (*model.User, error) {
	return userResult(m.Called(ctx, actor, req))
}

func (m *MockIdentityService) ListUsers(ctx context.Context, actor authz.Actor, limit, offset int) ([]model.User, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockIdentityService) GetUser(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.User, error) {
	return userResult(m.Called(ctx, actor, id))
}

func (m *MockIdentityService) UpdateUser(ctx context.Context, actor authz.Actor, id uuid.UUID, req model.AdminUserUpdate) (*model.User, error) {
	return userResult(m.Called(ctx, actor, id, req))
}

func (m *MockIdentityService) DeleteUser(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockNotificationService is a mock implementation of NotificationService.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, actor authz.Actor, unreadOnly bool) ([]model.Notification, error) {
	args := m.Called(ctx, actor, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockNotificationService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}
