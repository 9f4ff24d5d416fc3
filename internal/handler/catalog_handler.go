package handler

import (
	"net/http"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/repository"
	"promptmart/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler handles category, product, promotion and review requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// ListCategories handles GET /categories requests.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /categories requests.
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.Category
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	category, err := h.service.CreateCategory(r.Context(), authz.ActorFrom(r.Context()), req.Name, req.Description)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusCreated, "Category created", category)
}

// ListProducts handles GET /products requests with pagination and optional
// categoryId/sellerId filters.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		filter repository.ProductFilter
		err    error
	)
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		respondError(w, err, h.logger)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		respondError(w, err, h.logger)
		return
	}
	if filter.CategoryID, err = queryUUID(r, "categoryId"); err != nil {
		respondError(w, err, h.logger)
		return
	}
	if filter.SellerID, err = queryUUID(r, "sellerId"); err != nil {
		respondError(w, err, h.logger)
		return
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Popular handles GET /products/popular requests.
func (h *CatalogHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	categoryID, err := queryUUID(r, "categoryId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	products, err := h.service.Popular(r.Context(), categoryID, limit)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Promotional handles GET /products/promotional requests.
func (h *CatalogHandler) Promotional(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	products, err := h.service.Promotional(r.Context(), limit)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /products/{id} requests.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles POST /products requests.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), authz.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusCreated, "Product created", product)
}

// UpdateProduct handles PUT /products/{id} requests.
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	var req model.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), authz.ActorFrom(r.Context()), id, req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Product updated", product)
}

// DeleteProduct handles DELETE /products/{id} requests.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), authz.ActorFrom(r.Context()), id); err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted", nil)
}

// AddPromotion handles POST /products/{productId}/promotion requests.
func (h *CatalogHandler) AddPromotion(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	var req model.PromotionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	product, err := h.service.AddPromotion(r.Context(), authz.ActorFrom(r.Context()), productID, req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusCreated, "Promotion added", product)
}

// UpdatePromotion handles PUT /products/{productId}/promotion requests.
func (h *CatalogHandler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	var req model.PromotionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	promotion, err := h.service.UpdatePromotion(r.Context(), authz.ActorFrom(r.Context()), productID, req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Promotion updated", promotion)
}

// RemovePromotion handles DELETE /products/{productId}/promotion requests.
func (h *CatalogHandler) RemovePromotion(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	product, err := h.service.RemovePromotion(r.Context(), authz.ActorFrom(r.Context()), productID)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Promotion removed", product)
}

// ListReviews handles GET /products/{productId}/reviews requests.
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), productID)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// AddReview handles POST /products/{productId}/reviews requests.
func (h *CatalogHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	var req model.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	review, err := h.service.AddReview(r.Context(), authz.ActorFrom(r.Context()), productID, req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusCreated, "Review added", review)
}

// UpdateReview handles PUT /products/{productId}/reviews/{reviewId} requests.
func (h *CatalogHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	reviewID, err := pathUUID(r, "reviewId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	var req model.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), authz.ActorFrom(r.Context()), productID, reviewID, req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Review updated", review)
}

// DeleteReview handles DELETE /products/{productId}/reviews/{reviewId} requests.
func (h *CatalogHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	reviewID, err := pathUUID(r, "reviewId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	if err := h.service.DeleteReview(r.Context(), authz.ActorFrom(r.Context()), productID, reviewID); err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Review deleted", nil)
}
