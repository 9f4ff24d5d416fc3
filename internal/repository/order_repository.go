package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, user_id, status, total_price, shipping_address, transaction_id, payment_proof_ref,
	created_at, updated_at
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.ShippingAddress, &o.TransactionID,
		&o.PaymentProofRef, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetCart retrieves the buyer's cart-status order.
func (r *orderRepository) GetCart(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND status = 'cart'`
	return r.getOne(ctx, r.pool, query, userID)
}

// GetCartForUpdate is GetCart with the order row locked within tx.
func (r *orderRepository) GetCartForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND status = 'cart' FOR UPDATE`
	return r.getOne(ctx, tx, query, userID)
}

// GetByID retrieves an order with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOne(ctx, r.pool, query, id)
}

// GetByIDForUpdate is GetByID with the order row locked within tx.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, tx, query, id)
}

// SaveCart inserts or replaces the cart document and its lines within tx.
func (r *orderRepository) SaveCart(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	upsert := `
		INSERT INTO orders (id, user_id, status, total_price, created_at, updated_at)
		VALUES ($1, $2, 'cart', $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET total_price = EXCLUDED.total_price, updated_at = EXCLUDED.updated_at
		WHERE orders.status = 'cart'
	`

	tag, err := tx.Exec(ctx, upsert, order.ID, order.UserID, order.TotalPrice, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "uq_orders_one_cart_per_user" {
			r.logger.Warn().Str("user_id", order.UserID.String()).Msg("concurrent cart creation")
			return model.ErrConcurrentUpdate
		}
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrConcurrentUpdate
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to clear cart lines")
		return fmt.Errorf("failed to clear cart lines: %w", err)
	}

	insert := `
		INSERT INTO order_items (
			id, order_id, product_id, seller_id, position, quantity, price, discounted_price, promotion_id, unit
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		batch.Queue(insert,
			item.ID, item.OrderID, item.ProductID, nullableID(item.SellerID), i, item.Quantity,
			item.Price, item.DiscountedPrice, item.PromotionID, item.Unit,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, item := range order.Items {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("product_id", item.ProductID.String()).
				Msg("failed to insert cart line")
			return fmt.Errorf("failed to insert cart line: %w", err)
		}
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("lines", len(order.Items)).
		Msg("cart saved")

	return nil
}

// Delete removes an order and its lines within tx.
func (r *orderRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// UpdateState persists status, shipping address, payment fields and line seller snapshots within tx.
func (r *orderRepository) UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders SET
			status = $2, total_price = $3, shipping_address = $4, transaction_id = $5,
			payment_proof_ref = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		order.ID, order.Status, order.TotalPrice, order.ShippingAddress, order.TransactionID,
		order.PaymentProofRef, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	if len(order.Items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, item := range order.Items {
		batch.Queue(`UPDATE order_items SET seller_id = $2 WHERE id = $1`, item.ID, nullableID(item.SellerID))
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range order.Items {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update line sellers")
			return fmt.Errorf("failed to update line sellers: %w", err)
		}
	}

	return nil
}

// List retrieves orders with their lines, newest first.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != nil {
		conds = append(conds, "o.user_id = "+arg(*filter.UserID))
	}
	if filter.SellerID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.seller_id = "+arg(*filter.SellerID)+")")
	}
	if filter.Status != nil {
		conds = append(conds, "o.status = "+arg(string(*filter.Status)))
	}
	if len(filter.ExcludeStatus) > 0 {
		excluded := make([]string, len(filter.ExcludeStatus))
		for i, s := range filter.ExcludeStatus {
			excluded[i] = string(s)
		}
		conds = append(conds, "o.status <> ALL("+arg(excluded)+")")
	}

	query := `SELECT o.id, o.user_id, o.status, o.total_price, o.shipping_address, o.transaction_id,
		o.payment_proof_ref, o.created_at, o.updated_at
		FROM orders o`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY o.created_at DESC, o.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := []model.Order{}
	func() {
		defer rows.Close()
		for rows.Next() {
			var o *model.Order
			if o, err = scanOrder(rows); err != nil {
				return
			}
			orders = append(orders, *o)
		}
		err = rows.Err()
	}()
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan order rows")
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.loadItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *orderRepository) getOne(ctx context.Context, q querier, query string, args ...any) (*model.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.loadItems(ctx, q, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, q querier, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, seller_id, quantity, price, discounted_price, promotion_id, unit
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item     model.OrderItem
			sellerID *uuid.UUID
		)
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &sellerID, &item.Quantity, &item.Price,
			&item.DiscountedPrice, &item.PromotionID, &item.Unit,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if sellerID != nil {
			item.SellerID = *sellerID
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return out, nil
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
