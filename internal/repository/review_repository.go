package repository

import (
	"context"
	"errors"
	"fmt"

	"promptmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const reviewSelect = `
	SELECT rv.id, rv.product_id, rv.user_id, COALESCE(u.username, '') AS username,
		rv.rating, rv.comment, rv.created_at
	FROM reviews rv
	LEFT JOIN users u ON u.id = rv.user_id
`

// reviewRepository implements the ReviewRepository interface using PostgreSQL.
type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		review.ID, review.ProductID, review.UserID, review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", review.ProductID.String()).Msg("failed to create review")
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, productID, reviewID uuid.UUID) (*model.Review, error) {
	rows, err := r.pool.Query(ctx, reviewSelect+` WHERE rv.id = $1 AND rv.product_id = $2`, reviewID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", reviewID.String()).Msg("failed to query review")
		return nil, fmt.Errorf("failed to query review: %w", err)
	}

	review, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("review_id", reviewID.String()).Msg("failed to scan review")
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return &review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reviews SET rating = $2, comment = $3 WHERE id = $1`,
		review.ID, review.Rating, review.Comment,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("review_id", review.ID.String()).Msg("failed to update review")
		return fmt.Errorf("failed to update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to delete review")
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, reviewSelect+` WHERE rv.product_id = $1 ORDER BY rv.created_at DESC, rv.id`, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}

	reviews, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Review])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan review rows")
		return nil, fmt.Errorf("failed to scan reviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) AverageRatings(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, AVG(rating)::float8 FROM reviews WHERE product_id = ANY($1) GROUP BY product_id`,
		productIDs,
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query average ratings")
		return nil, fmt.Errorf("failed to query average ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  uuid.UUID
			avg float64
		)
		if err := rows.Scan(&id, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan average rating: %w", err)
		}
		out[id] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating average ratings: %w", err)
	}
	return out, nil
}
