package service

import (
	"context"
	"errors"
	"fmt"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/notify"
	"promptmart/internal/pricing"
	"promptmart/internal/repository"
	"promptmart/internal/storage"
	"promptmart/internal/telemetry"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	authz       authz.Authorizer
	sink        notify.Sink
	proofs      storage.Store
	metrics     *telemetry.Metrics
	now         Clock
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	authorizer authz.Authorizer,
	sink notify.Sink,
	proofs storage.Store,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) OrderService {
	return newOrderService(orderRepo, productRepo, userRepo, authorizer, sink, proofs, metrics, systemClock, logger)
}

func newOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	authorizer authz.Authorizer,
	sink notify.Sink,
	proofs storage.Store,
	metrics *telemetry.Metrics,
	now Clock,
	logger zerolog.Logger,
) *orderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		authz:       authorizer,
		sink:        sink,
		proofs:      proofs,
		metrics:     metrics,
		now:         now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// AddToCart prices the product at the current instant and merges it into the
// buyer's cart. The stock check here is advisory; checkout re-validates.
func (s *orderService) AddToCart(ctx context.Context, actor authz.Actor, req model.AddToCartRequest) (*model.Order, error) {
	if err := s.authz.Require(actor, authz.ActCartMutate, authz.Resource{}); err != nil {
		return nil, err
	}
	if req.ProductID == uuid.Nil {
		return nil, model.NewValidationError("productId is required")
	}
	if req.Quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	var saved model.Order
	err = inTx(ctx, s.orderRepo.BeginTx, s.logger, func(tx pgx.Tx) error {
		existing, err := s.orderRepo.GetCartForUpdate(ctx, tx, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}

		now := s.now()
		line := pricing.Line(*product, req.Quantity, now)

		var cart *model.Cart
		if existing == nil {
			if req.Quantity > product.StockQuantity {
				return insufficientStock(product, req.Quantity)
			}
			cart, err = model.NewCart(actor.ID, line, now)
			if err != nil {
				return err
			}
		} else {
			current, err := model.CartFromOrder(*existing)
			if err != nil {
				return err
			}
			if total := current.Quantity(product.ID) + req.Quantity; total > product.StockQuantity {
				return insufficientStock(product, total)
			}
			if cart, err = current.Add(line, now); err != nil {
				return err
			}
		}

		saved = cart.Order()
		return s.orderRepo.SaveCart(ctx, tx, &saved)
	})
	if err != nil {
		if errors.Is(err, model.ErrInsufficientStock) {
			s.logger.Debug().
				Str("user_id", actor.ID.String()).
				Str("product_id", product.ID.String()).
				Int("stock", product.StockQuantity).
				Msg("add to cart rejected")
		}
		return nil, err
	}

	s.metrics.CartMutation(ctx, "add")
	s.logger.Info().
		Str("order_id", saved.ID.String()).
		Str("product_id", product.ID.String()).
		Int("quantity", req.Quantity).
		Msg("cart updated")

	return &saved, nil
}

func (s *orderService) GetCart(ctx context.Context, actor authz.Actor) (*model.Order, error) {
	if err := s.authz.Require(actor, authz.ActCartView, authz.Resource{}); err != nil {
		return nil, err
	}

	cart, err := s.orderRepo.GetCart(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		return &model.Order{UserID: actor.ID, Status: model.StatusCart, Items: []model.OrderItem{}}, nil
	}

	if err := s.attachProducts(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *orderService) RemoveFromCart(ctx context.Context, actor authz.Actor, productID uuid.UUID) (*model.Order, error) {
	if err := s.authz.Require(actor, authz.ActCartMutate, authz.Resource{}); err != nil {
		return nil, err
	}

	var result *model.Order
	err := inTx(ctx, s.orderRepo.BeginTx, s.logger, func(tx pgx.Tx) error {
		existing, err := s.orderRepo.GetCartForUpdate(ctx, tx, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if existing == nil {
			return model.ErrCartNotFound
		}

		current, err := model.CartFromOrder(*existing)
		if err != nil {
			return err
		}
		next, err := current.Without(productID, s.now())
		if err != nil {
			return err
		}

		if next == nil {
			return s.orderRepo.Delete(ctx, tx, current.ID())
		}
		order := next.Order()
		if err := s.orderRepo.SaveCart(ctx, tx, &order); err != nil {
			return err
		}
		result = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CartMutation(ctx, "remove")
	return result, nil
}

// Checkout validates the cart against live stock under row locks and applies
// every decrement in one transaction, so a rejected checkout mutates nothing.
func (s *orderService) Checkout(ctx context.Context, actor authz.Actor, req model.CheckoutRequest) (result *model.CheckoutResult, err error) {
	defer func() {
		s.metrics.Checkout(ctx, checkoutOutcome(err))
	}()

	if err := s.authz.Require(actor, authz.ActCheckout, authz.Resource{}); err != nil {
		return nil, err
	}
	if req.ShippingAddress == nil {
		return nil, model.ErrInvalidAddress.WithMessage("shippingAddress is required")
	}

	var order model.Order
	err = inTx(ctx, s.orderRepo.BeginTx, s.logger, func(tx pgx.Tx) error {
		existing, err := s.orderRepo.GetCartForUpdate(ctx, tx, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if existing == nil {
			return model.ErrCartEmpty
		}
		cart, err := model.CartFromOrder(*existing)
		if err != nil {
			return err
		}

		items := cart.Items()
		ids := make([]uuid.UUID, len(items))
		for i, item := range items {
			ids[i] = item.ProductID
		}

		locked, err := s.productRepo.LockForCheckout(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}
		live := make(map[uuid.UUID]model.Product, len(locked))
		for _, p := range locked {
			live[p.ID] = p
		}

		changes := make([]repository.StockChange, 0, len(items))
		for _, item := range items {
			p, ok := live[item.ProductID]
			if !ok {
				// A deleted product keeps its line but takes no stock and has no seller.
				continue
			}
			if item.Quantity > p.StockQuantity {
				return insufficientStock(&p, item.Quantity)
			}
			changes = append(changes, repository.StockChange{ProductID: p.ID, Quantity: item.Quantity})
		}

		order, err = cart.Checkout(*req.ShippingAddress, s.now())
		if err != nil {
			return err
		}
		// Sellers are re-read from the live products; a deleted product or seller leaves uuid.Nil.
		for i := range order.Items {
			order.Items[i].SellerID = live[order.Items[i].ProductID].SellerID
		}
		if len(order.SellerIDs()) == 0 {
			return model.ErrNoValidSellers
		}

		if err := s.productRepo.ApplyCheckout(ctx, tx, changes); err != nil {
			return err
		}
		return s.orderRepo.UpdateState(ctx, tx, &order)
	})
	if err != nil {
		return nil, err
	}

	sellers := order.SellerIDs()
	for _, sellerID := range sellers {
		s.sink.Notify(ctx, sellerID, fmt.Sprintf("Order #%s is awaiting payment", order.ID), &order.ID)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", actor.ID.String()).
		Int("sellers", len(sellers)).
		Str("total", order.TotalPrice.StringFixed(2)).
		Msg("checkout completed")

	return &model.CheckoutResult{Order: order, Payments: s.sellerPayments(ctx, order, sellers)}, nil
}

// sellerPayments lists the transfer due to each seller with a PromptPay QR.
// The order is already committed, so lookup failures only cost the list.
func (s *orderService) sellerPayments(ctx context.Context, order model.Order, sellers []uuid.UUID) []model.SellerPayment {
	payments := []model.SellerPayment{}

	users, err := s.userRepo.GetByIDs(ctx, sellers)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to load sellers for payment details")
		return payments
	}
	byID := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, sellerID := range sellers {
		u, ok := byID[sellerID]
		if !ok || u.PromptPayQR == "" {
			continue
		}
		payments = append(payments, model.SellerPayment{
			SellerID:   sellerID,
			SellerName: u.DisplayName(),
			QRCodeURL:  u.PromptPayQR,
			Amount:     order.SubtotalFor(sellerID),
		})
	}
	return payments
}

// ConfirmPayment stores the buyer's proof and moves a pending order to
// waiting_confirm. The proof is written only once the order has been locked,
// authorized and found in a status that accepts payment.
func (s *orderService) ConfirmPayment(ctx context.Context, actor authz.Actor, in model.ConfirmPaymentInput) (*model.Order, error) {
	if in.OrderID == uuid.Nil {
		return nil, model.NewValidationError("orderId is required")
	}
	if in.TransactionID == "" {
		return nil, model.NewValidationError("transactionId is required")
	}
	if in.Proof == nil {
		return nil, model.NewValidationError("paymentProof is required")
	}

	authorize := func(o *model.Order) error {
		return s.authz.Require(actor, authz.ActConfirmPayment, authz.Owned(o.UserID))
	}
	attach := func(o *model.Order) error {
		ref, err := s.proofs.Put(ctx, in.ProofName, in.ProofContentType, in.Proof)
		if err != nil {
			return fmt.Errorf("failed to store payment proof: %w", err)
		}
		o.TransactionID = &in.TransactionID
		o.PaymentProofRef = &ref
		return nil
	}

	order, err := s.transition(ctx, in.OrderID, model.StatusWaitingConfirm, authorize, attach)
	if err != nil {
		return nil, err
	}

	for _, sellerID := range order.SellerIDs() {
		s.sink.Notify(ctx, sellerID,
			fmt.Sprintf("Payment for order #%s has been submitted, please review", order.ID), &order.ID)
	}
	return order, nil
}

// ApprovePayment confirms the whole order once any seller on it approves.
func (s *orderService) ApprovePayment(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*model.Order, error) {
	if orderID == uuid.Nil {
		return nil, model.NewValidationError("orderId is required")
	}

	order, err := s.transition(ctx, orderID, model.StatusConfirmed, func(o *model.Order) error {
		return s.authz.Require(actor, authz.ActApprovePayment, authz.Owned(o.SellerIDs()...))
	}, nil)
	if err != nil {
		return nil, err
	}

	s.sink.Notify(ctx, order.UserID, fmt.Sprintf("The seller approved the payment for order #%s", order.ID), &order.ID)
	return order, nil
}

// transition locks the order, authorizes the actor, moves it to next and then
// lets apply amend it before it is saved. A cart is reported as missing to
// anyone the authorizer rejects, and as an invalid transition to its owner.
func (s *orderService) transition(
	ctx context.Context,
	id uuid.UUID,
	next model.OrderStatus,
	authorize func(*model.Order) error,
	apply func(*model.Order) error,
) (*model.Order, error) {
	var order *model.Order
	err := inTx(ctx, s.orderRepo.BeginTx, s.logger, func(tx pgx.Tx) error {
		o, err := s.orderRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}
		if o == nil {
			return model.ErrOrderNotFound
		}
		if err := authorize(o); err != nil {
			if o.Status == model.StatusCart && !errors.Is(err, model.ErrUnauthenticated) {
				return model.ErrOrderNotFound
			}
			return err
		}
		if err := o.TransitionTo(next, s.now()); err != nil {
			return err
		}
		if apply != nil {
			if err := apply(o); err != nil {
				return err
			}
		}
		order = o
		return s.orderRepo.UpdateState(ctx, tx, o)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentTransition(ctx, string(next))
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(next)).
		Msg("order status changed")
	return order, nil
}

func (s *orderService) ListAll(ctx context.Context, actor authz.Actor, status *model.OrderStatus) ([]model.Order, error) {
	if err := s.authz.Require(actor, authz.ActOrderListAll, authz.Resource{}); err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown order status %q", *status))
	}

	orders, err := s.orderRepo.List(ctx, repository.OrderFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetForAdmin(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error) {
	if err := s.authz.Require(actor, authz.ActOrderListAll, authz.Resource{}); err != nil {
		return nil, err
	}
	return s.getOrder(ctx, id, true)
}

func (s *orderService) ListForSeller(ctx context.Context, actor authz.Actor) ([]model.Order, error) {
	if err := s.authz.Require(actor, authz.ActOrderListSeller, authz.Resource{}); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.List(ctx, repository.OrderFilter{
		SellerID:      &actor.ID,
		ExcludeStatus: []model.OrderStatus{model.StatusCart},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list seller orders: %w", err)
	}

	out := make([]model.Order, len(orders))
	for i, o := range orders {
		out[i] = o.ForSeller(actor.ID)
	}
	return out, nil
}

func (s *orderService) GetForSeller(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error) {
	if err := s.authz.Require(actor, authz.ActOrderListSeller, authz.Resource{}); err != nil {
		return nil, err
	}

	order, err := s.getOrder(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !order.HasSeller(actor.ID) {
		return nil, model.ErrOrderNotFound
	}
	view := order.ForSeller(actor.ID)
	return &view, nil
}

func (s *orderService) ListForBuyer(ctx context.Context, actor authz.Actor) ([]model.Order, error) {
	if err := s.authz.Require(actor, authz.ActOrderView, authz.Owned(actor.ID)); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.List(ctx, repository.OrderFilter{
		UserID:        &actor.ID,
		ExcludeStatus: []model.OrderStatus{model.StatusCart},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list buyer orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetForBuyer(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Order, error) {
	order, err := s.getOrder(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(actor, authz.ActOrderView, authz.Owned(order.UserID)); err != nil {
		return nil, err
	}
	if err := s.attachProducts(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// getOrder loads a checked-out order. Carts are only visible to admins.
func (s *orderService) getOrder(ctx context.Context, id uuid.UUID, includeCart bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || (!includeCart && order.Status == model.StatusCart) {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// attachProducts resolves product and promotion details for display.
func (s *orderService) attachProducts(ctx context.Context, order *model.Order) error {
	if len(order.Items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to retrieve product details: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range order.Items {
		order.Items[i].Product = byID[order.Items[i].ProductID]
	}
	return nil
}

func insufficientStock(p *model.Product, requested int) error {
	return model.ErrInsufficientStock.WithMessage(fmt.Sprintf(
		"requested %d of %q but only %d in stock", requested, p.Name, p.StockQuantity))
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrCartEmpty):
		return "empty_cart"
	case errors.Is(err, model.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, model.ErrNoValidSellers):
		return "no_sellers"
	}
	var de *model.DomainError
	if errors.As(err, &de) {
		return "rejected"
	}
	return "error"
}
