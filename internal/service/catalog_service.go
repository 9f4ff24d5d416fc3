package service

import (
	"context"
	"fmt"
	"strings"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
	defaultRankingLimit = 5
	maxRankingLimit     = 50
)

// catalogService implements CatalogService.
type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	reviewRepo   repository.ReviewRepository
	authz        authz.Authorizer
	now          Clock
	logger       zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	authorizer authz.Authorizer,
	logger zerolog.Logger,
) CatalogService {
	return newCatalogService(categoryRepo, productRepo, reviewRepo, authorizer, systemClock, logger)
}

func newCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	authorizer authz.Authorizer,
	now Clock,
	logger zerolog.Logger,
) *catalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		reviewRepo:   reviewRepo,
		authz:        authorizer,
		now:          now,
		logger:       logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, actor authz.Actor, name, description string) (*model.Category, error) {
	if err := s.authz.Require(actor, authz.ActCategoryCreate, authz.Resource{}); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("categoryName is required")
	}

	category := &model.Category{ID: uuid.New(), Name: name, Description: description}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info().Str("category_id", category.ID.String()).Str("name", name).Msg("category created")
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ListProducts retrieves products with pagination and their average rating.
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultProductLimit
	}
	if filter.Limit > maxProductLimit {
		filter.Limit = maxProductLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	ratings, err := s.reviewRepo.AverageRatings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get ratings: %w", err)
	}
	for i := range products {
		if avg, ok := ratings[products[i].ID]; ok {
			products[i].AverageRating = &avg
		}
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", filter.Limit).
		Int("offset", filter.Offset).
		Msg("retrieved products")
	return products, nil
}

// GetProduct retrieves a product with its promotion and reviews.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.mustProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	product.Reviews = reviews
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		avg := float64(sum) / float64(len(reviews))
		product.AverageRating = &avg
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, actor authz.Actor, req model.ProductRequest) (*model.Product, error) {
	if err := s.authz.Require(actor, authz.ActProductCreate, authz.Resource{}); err != nil {
		return nil, err
	}

	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "productName")
	}
	if req.Price == nil {
		missing = append(missing, "price")
	}
	if req.StockQuantity == nil {
		missing = append(missing, "stockQuantity")
	}
	if req.CategoryID == nil {
		missing = append(missing, "categoryId")
	}
	if len(missing) > 0 {
		return nil, model.NewValidationError("missing required fields: " + strings.Join(missing, ", "))
	}
	if err := validateProductNumbers(req); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:            uuid.New(),
		Code:          strings.TrimSpace(req.Code),
		SellerID:      actor.ID,
		CategoryID:    *req.CategoryID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         *req.Price,
		StockQuantity: *req.StockQuantity,
		Unit:          req.Unit,
		Grades:        req.Grades,
		Units:         req.Units,
		ImageRefs:     req.ImageRefs,
		CreatedAt:     s.now(),
	}
	if product.Code == "" {
		product.Code = uuid.NewString()
	}
	if len(product.Grades) == 0 {
		product.Grades = model.DefaultGrades
	}
	if len(product.Units) == 0 {
		product.Units = model.DefaultUnits
	}
	if product.ImageRefs == nil {
		product.ImageRefs = []string{}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("seller_id", actor.ID.String()).
		Msg("product created")
	return product, nil
}

// UpdateProduct applies the non-zero fields of req. Image refs are replaced
// only when new ones are supplied.
func (s *catalogService) UpdateProduct(ctx context.Context, actor authz.Actor, id uuid.UUID, req model.ProductRequest) (*model.Product, error) {
	product, err := s.ownedProduct(ctx, actor, authz.ActProductMutate, id)
	if err != nil {
		return nil, err
	}
	if err := validateProductNumbers(req); err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if code := strings.TrimSpace(req.Code); code != "" {
		product.Code = code
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		product.Name = name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if len(req.Grades) > 0 {
		product.Grades = req.Grades
	}
	if len(req.Units) > 0 {
		product.Units = req.Units
	}
	if len(req.ImageRefs) > 0 {
		product.ImageRefs = req.ImageRefs
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, actor, authz.ActProductMutate, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

func (s *catalogService) Popular(ctx context.Context, categoryID *uuid.UUID, limit int) ([]model.Product, error) {
	products, err := s.productRepo.Popular(ctx, categoryID, rankingLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get popular products: %w", err)
	}
	return products, nil
}

func (s *catalogService) Promotional(ctx context.Context, limit int) ([]model.Product, error) {
	products, err := s.productRepo.Promotional(ctx, s.now(), rankingLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get promotional products: %w", err)
	}
	return products, nil
}

func (s *catalogService) AddPromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.PromotionRequest) (*model.Product, error) {
	product, err := s.ownedProduct(ctx, actor, authz.ActPromotionManage, productID)
	if err != nil {
		return nil, err
	}
	if product.Promotion != nil {
		return nil, model.ErrPromotionExists
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	promo := &model.Promotion{
		ID:                 uuid.New(),
		Name:               req.Name,
		Description:        req.Description,
		DiscountPercentage: req.DiscountPercentage,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}

	err = inTx(ctx, s.productRepo.BeginTx, s.logger, func(tx pgx.Tx) error {
		return s.productRepo.AttachPromotion(ctx, tx, productID, promo)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", productID.String()).
		Str("promotion_id", promo.ID.String()).
		Msg("promotion attached")

	product.PromotionID = &promo.ID
	product.Promotion = promo
	return product, nil
}

func (s *catalogService) UpdatePromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.PromotionRequest) (*model.Promotion, error) {
	product, err := s.ownedProduct(ctx, actor, authz.ActPromotionManage, productID)
	if err != nil {
		return nil, err
	}
	if product.Promotion == nil {
		return nil, model.ErrPromotionNotFound
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	promo := *product.Promotion
	promo.Name = req.Name
	promo.Description = req.Description
	promo.DiscountPercentage = req.DiscountPercentage
	promo.StartDate = req.StartDate
	promo.EndDate = req.EndDate
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}
	promo.UpdatedAt = s.now()

	if err := s.productRepo.UpdatePromotion(ctx, &promo); err != nil {
		return nil, err
	}
	return &promo, nil
}

func (s *catalogService) RemovePromotion(ctx context.Context, actor authz.Actor, productID uuid.UUID) (*model.Product, error) {
	product, err := s.ownedProduct(ctx, actor, authz.ActPromotionManage, productID)
	if err != nil {
		return nil, err
	}
	if product.Promotion == nil {
		return nil, model.ErrPromotionNotFound
	}

	promotionID := product.Promotion.ID
	err = inTx(ctx, s.productRepo.BeginTx, s.logger, func(tx pgx.Tx) error {
		return s.productRepo.DetachPromotion(ctx, tx, productID, promotionID)
	})
	if err != nil {
		return nil, err
	}

	product.PromotionID = nil
	product.Promotion = nil
	return product, nil
}

func (s *catalogService) ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	if _, err := s.mustProduct(ctx, productID); err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	return reviews, nil
}

func (s *catalogService) AddReview(ctx context.Context, actor authz.Actor, productID uuid.UUID, req model.ReviewRequest) (*model.Review, error) {
	if err := s.authz.Require(actor, authz.ActReviewCreate, authz.Resource{}); err != nil {
		return nil, err
	}
	if req.Rating == nil {
		return nil, model.ErrInvalidRating.WithMessage("rating is required")
	}
	if err := validateRating(*req.Rating); err != nil {
		return nil, err
	}
	if _, err := s.mustProduct(ctx, productID); err != nil {
		return nil, err
	}

	review := &model.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    actor.ID,
		Rating:    *req.Rating,
		CreatedAt: s.now(),
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateReview is limited to the review's author.
func (s *catalogService) UpdateReview(ctx context.Context, actor authz.Actor, productID, reviewID uuid.UUID, req model.ReviewRequest) (*model.Review, error) {
	review, err := s.mustReview(ctx, productID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(actor, authz.ActReviewUpdate, authz.Owned(review.UserID)); err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			return nil, err
		}
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview is open to the author, the product's seller and admins.
func (s *catalogService) DeleteReview(ctx context.Context, actor authz.Actor, productID, reviewID uuid.UUID) error {
	product, err := s.mustProduct(ctx, productID)
	if err != nil {
		return err
	}
	review, err := s.mustReview(ctx, productID, reviewID)
	if err != nil {
		return err
	}
	if err := s.authz.Require(actor, authz.ActReviewDelete, authz.Owned(review.UserID, product.SellerID)); err != nil {
		return err
	}
	return s.reviewRepo.Delete(ctx, reviewID)
}

func (s *catalogService) mustProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

// ownedProduct loads a product and checks that actor may perform act on it.
func (s *catalogService) ownedProduct(ctx context.Context, actor authz.Actor, act authz.Action, id uuid.UUID) (*model.Product, error) {
	if actor.ID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	product, err := s.mustProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(actor, act, authz.Owned(product.SellerID)); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) mustReview(ctx context.Context, productID, reviewID uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, productID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, model.ErrReviewNotFound
	}
	return review, nil
}

func (s *catalogService) requireCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return model.ErrCategoryNotFound
	}
	return nil
}

func validateProductNumbers(req model.ProductRequest) error {
	if req.Price != nil && req.Price.IsNegative() {
		return model.NewValidationError("price must not be negative")
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return model.NewValidationError("stockQuantity must not be negative")
	}
	return nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return model.ErrInvalidRating
	}
	return nil
}

func rankingLimit(limit int) int {
	if limit <= 0 {
		return defaultRankingLimit
	}
	return min(limit, maxRankingLimit)
}
