package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogHandler_ListProducts(t *testing.T) {
	categoryID := uuid.New()
	testProducts := []model.Product{
		{ID: uuid.New(), Code: "P001", Name: "Jasmine rice", Price: decimal.NewFromInt(100), CreatedAt: time.Now()},
		{ID: uuid.New(), Code: "P002", Name: "Mango", Price: decimal.NewFromInt(40), CreatedAt: time.Now()},
	}

	tests := []struct {
		name           string
		query          string
		expectedFilter *repository.ProductFilter
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "Default pagination",
			query:          "",
			expectedFilter: &repository.ProductFilter{},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "Custom pagination and category",
			query:          "?limit=5&offset=10&categoryId=" + categoryID.String(),
			expectedFilter: &repository.ProductFilter{Limit: 5, Offset: 10, CategoryID: &categoryID},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "Invalid limit parameter",
			query:          "?limit=invalid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid offset parameter",
			query:          "?offset=invalid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid category parameter",
			query:          "?categoryId=rice",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCatalogService)
			if tt.expectedFilter != nil {
				mockService.On("ListProducts", mock.Anything, *tt.expectedFilter).Return(testProducts, nil)
			}
			handler := NewCatalogHandler(mockService, zerolog.Nop())

			w := httptest.NewRecorder()
			handler.ListProducts(w, httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				products := decodeBody[[]model.Product](t, w)
				assert.Len(t, products, tt.expectedCount)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestCatalogHandler_GetProduct(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name           string
		pathValue      string
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			pathValue:      productID.String(),
			mockReturn:     &model.Product{ID: productID, Name: "Jasmine rice", Price: decimal.NewFromInt(100)},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Product not found",
			pathValue:      productID.String(),
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Invalid UUID format",
			pathValue:      "P001",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCatalogService)
			if tt.expectService {
				mockService.On("GetProduct", mock.Anything, productID).Return(tt.mockReturn, tt.mockError)
			}
			handler := NewCatalogHandler(mockService, zerolog.Nop())

			req := httptest.NewRequest(http.MethodGet, "/products/"+tt.pathValue, nil)
			req.SetPathValue("id", tt.pathValue)
			w := httptest.NewRecorder()
			handler.GetProduct(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestCatalogHandler_Rankings(t *testing.T) {
	categoryID := uuid.New()
	mockService := new(MockCatalogService)
	mockService.On("Popular", mock.Anything, &categoryID, 3).Return([]model.Product{{ID: uuid.New()}}, nil)
	mockService.On("Promotional", mock.Anything, 0).Return([]model.Product{}, nil)
	handler := NewCatalogHandler(mockService, zerolog.Nop())

	w := httptest.NewRecorder()
	handler.Popular(w, httptest.NewRequest(http.MethodGet, "/products/popular?limit=3&categoryId="+categoryID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]model.Product](t, w), 1)

	w = httptest.NewRecorder()
	handler.Promotional(w, httptest.NewRequest(http.MethodGet, "/products/promotional", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	mockService.AssertExpectations(t)
}

func TestCatalogHandler_CreateProduct(t *testing.T) {
	seller := authz.Actor{ID: uuid.New(), Role: model.RoleSeller}
	customer := authz.Actor{ID: uuid.New(), Role: model.RoleCustomer}
	body := `{"productName":"Jasmine rice","price":"100","stockQuantity":10,"categoryId":"` + uuid.NewString() + `"}`

	mockService := new(MockCatalogService)
	mockService.On("CreateProduct", mock.Anything, seller, mock.MatchedBy(func(req model.ProductRequest) bool {
		return req.Name == "Jasmine rice" && req.Price != nil && req.Price.Equal(decimal.NewFromInt(100)) &&
			req.StockQuantity != nil && *req.StockQuantity == 10
	})).Return(&model.Product{ID: uuid.New(), Name: "Jasmine rice"}, nil)
	mockService.On("CreateProduct", mock.Anything, customer, mock.Anything).Return(nil, model.ErrForbidden)
	handler := NewCatalogHandler(mockService, zerolog.Nop())

	w := httptest.NewRecorder()
	handler.CreateProduct(w, asActor(httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)), seller))
	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody[MessageResponse](t, w)
	assert.Equal(t, "Product created", resp.Message)

	w = httptest.NewRecorder()
	handler.CreateProduct(w, asActor(httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)), customer))
	assert.Equal(t, http.StatusForbidden, w.Code)

	mockService.AssertExpectations(t)
}

func TestCatalogHandler_UpdateAndDeleteProduct(t *testing.T) {
	seller := authz.Actor{ID: uuid.New(), Role: model.RoleSeller}
	productID := uuid.New()

	mockService := new(MockCatalogService)
	mockService.On("UpdateProduct", mock.Anything, seller, productID, mock.AnythingOfType("model.ProductRequest")).
		Return(&model.Product{ID: productID}, nil)
	mockService.On("DeleteProduct", mock.Anything, seller, productID).Return(model.ErrProductNotFound)
	handler := NewCatalogHandler(mockService, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String(), strings.NewReader(`{"description":"new crop"}`))
	req.SetPathValue("id", productID.String())
	w := httptest.NewRecorder()
	handler.UpdateProduct(w, asActor(req, seller))
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/products/"+productID.String(), nil)
	req.SetPathValue("id", productID.String())
	w = httptest.NewRecorder()
	handler.DeleteProduct(w, asActor(req, seller))
	assert.Equal(t, http.StatusNotFound, w.Code)

	mockService.AssertExpectations(t)
}

func TestCatalogHandler_Promotion(t *testing.T) {
	seller := authz.Actor{ID: uuid.New(), Role: model.RoleSeller}
	productID := uuid.New()
	body := `{"promotionName":"Songkran","discountPercentage":"20","startDate":"2026-04-01T00:00:00Z","endDate":"2026-04-30T00:00:00Z"}`

	tests := []struct {
		name           string
		method         string
		call           func(h *CatalogHandler) http.HandlerFunc
		mockReturn     interface{}
		mockError      error
		expectedStatus int
	}{
		{
			name:           "Add",
			method:         "AddPromotion",
			call:           func(h *CatalogHandler) http.HandlerFunc { return h.AddPromotion },
			mockReturn:     &model.Product{ID: productID},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Add when one exists",
			method:         "AddPromotion",
			call:           func(h *CatalogHandler) http.HandlerFunc { return h.AddPromotion },
			mockError:      model.ErrPromotionExists,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Update missing",
			method:         "UpdatePromotion",
			call:           func(h *CatalogHandler) http.HandlerFunc { return h.UpdatePromotion },
			mockError:      model.ErrPromotionNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Update invalid",
			method:         "UpdatePromotion",
			call:           func(h *CatalogHandler) http.HandlerFunc { return h.UpdatePromotion },
			mockError:      model.ErrInvalidPromotion,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCatalogService)
			mockService.On(tt.method, mock.Anything, seller, productID, mock.MatchedBy(func(req model.PromotionRequest) bool {
				return req.Name == "Songkran" && req.DiscountPercentage.Equal(decimal.NewFromInt(20))
			})).Return(tt.mockReturn, tt.mockError)
			handler := NewCatalogHandler(mockService, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/promotion", strings.NewReader(body))
			req.SetPathValue("productId", productID.String())
			w := httptest.NewRecorder()
			tt.call(handler)(w, asActor(req, seller))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestCatalogHandler_RemovePromotion(t *testing.T) {
	seller := authz.Actor{ID: uuid.New(), Role: model.RoleSeller}
	productID := uuid.New()

	mockService := new(MockCatalogService)
	mockService.On("RemovePromotion", mock.Anything, seller, productID).Return(&model.Product{ID: productID}, nil)
	handler := NewCatalogHandler(mockService, zerolog.Nop())

	req := httptest.NewRequest(http.MethodDelete, "/products/"+productID.String()+"/promotion", nil)
	req.SetPathValue("productId", productID.String())
	w := httptest.NewRecorder()
	handler.RemovePromotion(w, asActor(req, seller))

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestCatalogHandler_Reviews(t *testing.T) {
	author := authz.Actor{ID: uuid.New(), Role: model.RoleCustomer}
	productID := uuid.New()
	reviewID := uuid.New()

	reviewRequest := func(method, body string) *http.Request {
		req := httptest.NewRequest(method, "/products/"+productID.String()+"/reviews/"+reviewID.String(), strings.NewReader(body))
		req.SetPathValue("productId", productID.String())
		req.SetPathValue("reviewId", reviewID.String())
		return asActor(req, author)
	}

	t.Run("List", func(t *testing.T) {
		mockService := new(MockCatalogService)
		mockService.On("ListReviews", mock.Anything, productID).Return([]model.Review{{ID: reviewID, Rating: 5}}, nil)
		handler := NewCatalogHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		handler.ListReviews(w, reviewRequest(http.MethodGet, ""))

		assert.Equal(t, http.StatusOK, w.Code)
		reviews := decodeBody[[]model.Review](t, w)
		require.Len(t, reviews, 1)
		assert.Equal(t, 5, reviews[0].Rating)
	})

	t.Run("Add with bad rating", func(t *testing.T) {
		mockService := new(MockCatalogService)
		mockService.On("AddReview", mock.Anything, author, productID, mock.AnythingOfType("model.ReviewRequest")).
			Return(nil, model.ErrInvalidRating)
		handler := NewCatalogHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		handler.AddReview(w, reviewRequest(http.MethodPost, `{"rating":9}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeInvalidRating, decodeBody[model.ErrorResponse](t, w).Code)
	})

	t.Run("Update", func(t *testing.T) {
		mockService := new(MockCatalogService)
		mockService.On("UpdateReview", mock.Anything, author, productID, reviewID, mock.AnythingOfType("model.ReviewRequest")).
			Return(&model.Review{ID: reviewID, Rating: 4}, nil)
		handler := NewCatalogHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		handler.UpdateReview(w, reviewRequest(http.MethodPut, `{"rating":4}`))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Delete someone else's review", func(t *testing.T) {
		mockService := new(MockCatalogService)
		mockService.On("DeleteReview", mock.Anything, author, productID, reviewID).Return(model.ErrForbidden)
		handler := NewCatalogHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		handler.DeleteReview(w, reviewRequest(http.MethodDelete, ""))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCatalogHandler_Categories(t *testing.T) {
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	mockService := new(MockCatalogService)
	mockService.On("ListCategories", mock.Anything).Return([]model.Category{{ID: uuid.New(), Name: "Rice"}}, nil)
	mockService.On("CreateCategory", mock.Anything, admin, "Fruit", "Fresh fruit").
		Return(&model.Category{ID: uuid.New(), Name: "Fruit"}, nil)
	mockService.On("CreateCategory", mock.Anything, admin, "Rice", "").Return(nil, model.ErrDuplicateCategory)
	handler := NewCatalogHandler(mockService, zerolog.Nop())

	w := httptest.NewRecorder()
	handler.ListCategories(w, httptest.NewRequest(http.MethodGet, "/categories", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.CreateCategory(w, asActor(httptest.NewRequest(http.MethodPost, "/categories",
		strings.NewReader(`{"categoryName":"Fruit","description":"Fresh fruit"}`)), admin))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	handler.CreateCategory(w, asActor(httptest.NewRequest(http.MethodPost, "/categories",
		strings.NewReader(`{"categoryName":"Rice"}`)), admin))
	assert.Equal(t, http.StatusConflict, w.Code)

	mockService.AssertExpectations(t)
}
