package router

import (
	"net/http"

	"promptmart/internal/handler"
	"promptmart/internal/middleware"
	"promptmart/internal/telemetry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	User         *handler.UserHandler
	Catalog      *handler.CatalogHandler
	Order        *handler.OrderHandler
	Notification *handler.NotificationHandler
}

// Options configures the outer layers of the router.
type Options struct {
	AllowedOrigin string
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
	// UploadDir, when set, is served read-only under /uploads/.
	UploadDir string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth middleware.Authenticator, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, telemetry.WithHTTPRoute(fn))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.UploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))))
	}

	// Identity
	route("POST /users/register", h.User.Register)
	route("POST /users/login", h.User.Login)
	route("POST /users/refresh-token", h.User.Refresh)
	route("PUT /users/reset-password", h.User.ResetPassword)
	route("GET /users/profile", h.User.GetProfile)
	route("PUT /users/profile", h.User.UpdateProfile)
	route("POST /users/profile/promptpay-qr", h.User.UploadPromptPayQR)
	route("POST /users/open-store", h.User.OpenStore)
	route("GET /users/orders", h.Order.ListForBuyer)
	route("GET /users/orders/{orderId}", h.Order.GetForBuyer)
	route("GET /users/all", h.User.ListUsers)
	route("GET /users/{id}", h.User.GetUser)
	route("PUT /users/{id}", h.User.UpdateUser)
	route("DELETE /users/{id}", h.User.DeleteUser)

	// Catalog
	route("GET /categories", h.Catalog.ListCategories)
	route("POST /categories", h.Catalog.CreateCategory)
	route("GET /products", h.Catalog.ListProducts)
	route("POST /products", h.Catalog.CreateProduct)
	route("GET /products/popular", h.Catalog.Popular)
	route("GET /products/promotional", h.Catalog.Promotional)
	route("GET /products/{id}", h.Catalog.GetProduct)
	route("PUT /products/{id}", h.Catalog.UpdateProduct)
	route("DELETE /products/{id}", h.Catalog.DeleteProduct)
	route("POST /products/{productId}/promotion", h.Catalog.AddPromotion)
	route("PUT /products/{productId}/promotion", h.Catalog.UpdatePromotion)
	route("DELETE /products/{productId}/promotion", h.Catalog.RemovePromotion)
	route("GET /products/{productId}/reviews", h.Catalog.ListReviews)
	route("POST /products/{productId}/reviews", h.Catalog.AddReview)
	route("PUT /products/{productId}/reviews/{reviewId}", h.Catalog.UpdateReview)
	route("DELETE /products/{productId}/reviews/{reviewId}", h.Catalog.DeleteReview)

	// Cart and orders
	route("POST /orders/cart", h.Order.AddToCart)
	route("GET /orders/cart", h.Order.GetCart)
	route("DELETE /orders/cart/{productId}", h.Order.RemoveFromCart)
	route("POST /orders/confirm", h.Order.Checkout)
	route("POST /orders/confirm-payment", h.Order.ConfirmPayment)
	route("POST /orders/approve-payment", h.Order.ApprovePayment)
	route("GET /orders/all", h.Order.ListAll)
	route("GET /orders/all/{orderId}", h.Order.GetForAdmin)
	route("GET /orders/seller", h.Order.ListForSeller)
	route("GET /orders/seller/{orderId}", h.Order.GetForSeller)

	// Notifications
	route("GET /notifications", h.Notification.List)
	route("GET /notifications/unread", h.Notification.ListUnread)
	route("PUT /notifications/{id}/read", h.Notification.MarkRead)
	route("DELETE /notifications/{id}", h.Notification.Delete)

	// Apply middleware in order: Recovery -> Logging -> CORS -> Authenticate
	chain := middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.CORS(opts.AllowedOrigin),
		middleware.Authenticate(auth, logger),
	)

	return otelhttp.NewHandler(chain, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	)
}
