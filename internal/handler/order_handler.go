package handler

import (
	"context"
	"net/http"
	"strings"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const paymentProofField = "paymentProof"

// OrderHandler handles cart and order HTTP requests.
type OrderHandler struct {
	service   service.OrderService
	maxUpload int64
	logger    zerolog.Logger
}

// NewOrderHandler creates a new order handler. maxUpload bounds the size of a
// payment proof upload in bytes.
func NewOrderHandler(service service.OrderService, maxUpload int64, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:   service,
		maxUpload: maxUpload,
		logger:    logger.With().Str("handler", "order").Logger(),
	}
}

// AddToCart handles POST /orders/cart requests.
func (h *OrderHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	cart, err := h.service.AddToCart(r.Context(), authz.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Product added to cart", cart)
}

// GetCart handles GET /orders/cart requests.
func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), authz.ActorFrom(r.Context()))
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveFromCart handles DELETE /orders/cart/{productId} requests.
func (h *OrderHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	cart, err := h.service.RemoveFromCart(r.Context(), authz.ActorFrom(r.Context()), productID)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	if cart == nil {
		writeMessage(w, http.StatusOK, "Cart is now empty and has been removed", nil)
		return
	}
	writeMessage(w, http.StatusOK, "Product removed from cart", cart)
}

// Checkout handles POST /orders/confirm requests.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	result, err := h.service.Checkout(r.Context(), authz.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusCreated, "Order placed, awaiting payment", result)
}

// ConfirmPayment handles POST /orders/confirm-payment multipart requests
// carrying orderId, transactionId and the paymentProof file.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFrom(r.Context())
	if actor.ID == uuid.Nil {
		respondError(w, model.ErrUnauthenticated, h.logger)
		return
	}
	if !parseMultipart(w, r, h.maxUpload, h.logger) {
		return
	}

	orderID, err := uuid.Parse(r.FormValue("orderId"))
	if err != nil {
		respondError(w, model.NewValidationError("orderId is required"), h.logger)
		return
	}
	transactionID := strings.TrimSpace(r.FormValue("transactionId"))
	if transactionID == "" {
		respondError(w, model.NewValidationError("transactionId is required"), h.logger)
		return
	}

	file, header, err := r.FormFile(paymentProofField)
	if err != nil {
		respondError(w, model.NewValidationError("paymentProof file is required"), h.logger)
		return
	}
	defer file.Close()

	order, err := h.service.ConfirmPayment(r.Context(), actor, model.ConfirmPaymentInput{
		OrderID:          orderID,
		TransactionID:    transactionID,
		ProofName:        header.Filename,
		ProofContentType: header.Header.Get("Content-Type"),
		Proof:            file,
	})
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Payment submitted, waiting for seller confirmation", order)
}

// ApprovePayment handles POST /orders/approve-payment requests.
func (h *OrderHandler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	var req model.ApprovePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	order, err := h.service.ApprovePayment(r.Context(), authz.ActorFrom(r.Context()), req.OrderID)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Payment approved", order)
}

// ListAll handles GET /orders/all requests with an optional status filter.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	var status *model.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.OrderStatus(raw)
		status = &s
	}

	orders, err := h.service.ListAll(r.Context(), authz.ActorFrom(r.Context()), status)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetForAdmin handles GET /orders/all/{orderId} requests.
func (h *OrderHandler) GetForAdmin(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, h.service.GetForAdmin)
}

// ListForSeller handles GET /orders/seller requests.
func (h *OrderHandler) ListForSeller(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.service.ListForSeller)
}

// GetForSeller handles GET /orders/seller/{orderId} requests.
func (h *OrderHandler) GetForSeller(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, h.service.GetForSeller)
}

// ListForBuyer handles GET /users/orders requests.
func (h *OrderHandler) ListForBuyer(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.service.ListForBuyer)
}

// GetForBuyer handles GET /users/orders/{orderId} requests.
func (h *OrderHandler) GetForBuyer(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, h.service.GetForBuyer)
}

type orderGetter func(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error)

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, get orderGetter) {
	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	order, err := get(r.Context(), authz.ActorFrom(r.Context()), orderID)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request, list func(context.Context, authz.Actor) ([]model.Order, error)) {
	orders, err := list(r.Context(), authz.ActorFrom(r.Context()))
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
