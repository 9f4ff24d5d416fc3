package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const productColumns = `
	p.id, p.code, p.seller_id, p.category_id, p.name, p.description, p.price, p.stock_quantity,
	p.unit, p.grades, p.units, p.image_refs, p.promotion_id, p.sold, p.created_at,
	pr.id, pr.name, pr.description, pr.discount_percentage, pr.start_date, pr.end_date,
	pr.is_active, pr.created_at, pr.updated_at
`

const productFrom = `
	FROM products p
	LEFT JOIN promotions pr ON pr.id = p.promotion_id
`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// scanProduct reads productColumns plus any extra destinations appended by the caller.
func scanProduct(row rowScanner, extra ...any) (*model.Product, error) {
	var (
		p        model.Product
		sellerID *uuid.UUID

		promoID          *uuid.UUID
		promoName        *string
		promoDescription *string
		promoDiscount    decimal.NullDecimal
		promoStart       *time.Time
		promoEnd         *time.Time
		promoActive      *bool
		promoCreated     *time.Time
		promoUpdated     *time.Time
	)

	dest := []any{
		&p.ID, &p.Code, &sellerID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
		&p.Unit, &p.Grades, &p.Units, &p.ImageRefs, &p.PromotionID, &p.Sold, &p.CreatedAt,
		&promoID, &promoName, &promoDescription, &promoDiscount, &promoStart, &promoEnd,
		&promoActive, &promoCreated, &promoUpdated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if sellerID != nil {
		p.SellerID = *sellerID
	}
	if promoID != nil {
		p.Promotion = &model.Promotion{
			ID:                 *promoID,
			Name:               deref(promoName),
			Description:        deref(promoDescription),
			DiscountPercentage: promoDiscount.Decimal,
			StartDate:          deref(promoStart),
			EndDate:            deref(promoEnd),
			IsActive:           deref(promoActive),
			CreatedAt:          deref(promoCreated),
			UpdatedAt:          deref(promoUpdated),
		}
	}
	return &p, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// BeginTx starts a new database transaction.
func (r *productRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetAll retrieves products with their promotion, newest first.
func (r *productRepository) GetAll(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	query := `SELECT ` + productColumns + productFrom + `
		WHERE ($1::uuid IS NULL OR p.category_id = $1)
		  AND ($2::uuid IS NULL OR p.seller_id = $2)
		ORDER BY p.created_at DESC, p.id
		LIMIT $3 OFFSET $4
	`

	return r.queryProducts(ctx, query, filter.CategoryID, filter.SellerID, filter.Limit, filter.Offset)
}

// GetByID retrieves a single product with its promotion.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetByIDs retrieves multiple products with their promotions.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + productFrom + ` WHERE p.id = ANY($1) ORDER BY p.id`
	return r.queryProducts(ctx, query, ids)
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (
			id, code, seller_id, category_id, name, description, price, stock_quantity,
			unit, grades, units, image_refs, sold, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		product.ID, product.Code, product.SellerID, product.CategoryID, product.Name,
		product.Description, product.Price, product.StockQuantity, product.Unit,
		emptyIfNil(product.Grades), emptyIfNil(product.Units), emptyIfNil(product.ImageRefs),
		product.Sold, product.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "products_code_key" {
			return model.ErrDuplicateProduct
		}
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", product.ID.String()).Msg("product created successfully")
	return nil
}

// Update persists the editable fields of product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	query := `
		UPDATE products SET
			code = $2, category_id = $3, name = $4, description = $5, price = $6,
			stock_quantity = $7, unit = $8, grades = $9, units = $10, image_refs = $11
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		product.ID, product.Code, product.CategoryID, product.Name, product.Description,
		product.Price, product.StockQuantity, product.Unit, emptyIfNil(product.Grades),
		emptyIfNil(product.Units), emptyIfNil(product.ImageRefs),
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "products_code_key" {
			return model.ErrDuplicateProduct
		}
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// Delete removes a product and its promotion.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var promotionID *uuid.UUID
		err := tx.QueryRow(ctx, `DELETE FROM products WHERE id = $1 RETURNING promotion_id`, id).Scan(&promotionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrProductNotFound
			}
			return err
		}
		if promotionID == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, *promotionID)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return err
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// LockForCheckout row-locks the given products in ID order within tx.
func (r *productRepository) LockForCheckout(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + productFrom + `
		WHERE p.id = ANY($1)
		ORDER BY p.id
		FOR UPDATE OF p
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	return r.collectProducts(rows)
}

// ApplyCheckout decrements stock and increments sold for every change within tx.
func (r *productRepository) ApplyCheckout(ctx context.Context, tx pgx.Tx, changes []StockChange) error {
	if len(changes) == 0 {
		return nil
	}

	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, sold = sold + $2
		WHERE id = $1 AND stock_quantity >= $2
	`

	batch := &pgx.Batch{}
	for _, c := range changes {
		batch.Queue(query, c.ProductID, c.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, c := range changes {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("product_id", c.ProductID.String()).
				Msg("failed to decrement stock")
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			r.logger.Warn().
				Str("product_id", c.ProductID.String()).
				Int("quantity", c.Quantity).
				Msg("stock exhausted during checkout")
			return model.ErrInsufficientStock.WithMessage(
				fmt.Sprintf("product %s does not have %d units in stock", c.ProductID, c.Quantity))
		}
	}

	r.logger.Debug().Int("count", len(changes)).Msg("checkout stock applied")
	return nil
}

// Popular returns products ranked by average review rating, then recency.
func (r *productRepository) Popular(ctx context.Context, categoryID *uuid.UUID, limit int) ([]model.Product, error) {
	query := `
		WITH rated AS (
			SELECT DISTINCT ON (p.code) p.id, p.created_at, AVG(rv.rating)::float8 AS avg_rating
			FROM products p
			LEFT JOIN reviews rv ON rv.product_id = p.id
			WHERE ($1::uuid IS NULL OR p.category_id = $1)
			GROUP BY p.id
			ORDER BY p.code, avg_rating DESC NULLS LAST, p.created_at DESC
		)
		SELECT ` + productColumns + `, rated.avg_rating
		FROM rated
		JOIN products p ON p.id = rated.id
		LEFT JOIN promotions pr ON pr.id = p.promotion_id
		ORDER BY rated.avg_rating DESC NULLS LAST, rated.created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, categoryID, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query popular products")
		return nil, fmt.Errorf("failed to query popular products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var avg *float64
		p, err := scanProduct(rows, &avg)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.AverageRating = avg
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Promotional returns products whose promotion is valid at now.
func (r *productRepository) Promotional(ctx context.Context, now time.Time, limit int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		JOIN promotions pr ON pr.id = p.promotion_id
		WHERE pr.is_active AND pr.start_date <= $1 AND pr.end_date >= $1
		ORDER BY pr.end_date, p.id
		LIMIT $2
	`

	return r.queryProducts(ctx, query, now, limit)
}

// AttachPromotion inserts promo and links it to productID within tx.
func (r *productRepository) AttachPromotion(ctx context.Context, tx pgx.Tx, productID uuid.UUID, promo *model.Promotion) error {
	insert := `
		INSERT INTO promotions (id, name, description, discount_percentage, start_date, end_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, insert,
		promo.ID, promo.Name, promo.Description, promo.DiscountPercentage, promo.StartDate,
		promo.EndDate, promo.IsActive, promo.CreatedAt, promo.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to insert promotion")
		return fmt.Errorf("failed to insert promotion: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE products SET promotion_id = $2 WHERE id = $1 AND promotion_id IS NULL`,
		productID, promo.ID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to link promotion")
		return fmt.Errorf("failed to link promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromotionExists
	}

	return nil
}

// UpdatePromotion persists promo.
func (r *productRepository) UpdatePromotion(ctx context.Context, promo *model.Promotion) error {
	query := `
		UPDATE promotions SET
			name = $2, description = $3, discount_percentage = $4, start_date = $5,
			end_date = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		promo.ID, promo.Name, promo.Description, promo.DiscountPercentage, promo.StartDate,
		promo.EndDate, promo.IsActive, promo.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("promotion_id", promo.ID.String()).Msg("failed to update promotion")
		return fmt.Errorf("failed to update promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}
	return nil
}

// DetachPromotion unlinks and deletes the promotion of productID within tx.
func (r *productRepository) DetachPromotion(ctx context.Context, tx pgx.Tx, productID, promotionID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE products SET promotion_id = NULL WHERE id = $1 AND promotion_id = $2`,
		productID, promotionID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to unlink promotion")
		return fmt.Errorf("failed to unlink promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, promotionID); err != nil {
		r.logger.Error().Err(err).Str("promotion_id", promotionID.String()).Msg("failed to delete promotion")
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	return nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return r.collectProducts(rows)
}

func (r *productRepository) collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
