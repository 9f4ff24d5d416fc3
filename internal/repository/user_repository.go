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

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `
	id, username, password_hash, role, shop_name, first_name, last_name, birth_date,
	id_card, email, tel, sex, image_ref, promptpay_qr, addresses, created_at, updated_at
`

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.ShopName, &u.FirstName, &u.LastName,
		&u.BirthDate, &u.IDCard, &u.Email, &u.Tel, &u.Sex, &u.ImageRef, &u.PromptPayQR,
		&u.Addresses, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if u.Addresses == nil {
		u.Addresses = []model.Address{}
	}
	return &u, nil
}

func addressesOrEmpty(addresses []model.Address) []model.Address {
	if addresses == nil {
		return []model.Address{}
	}
	return addresses
}

// Create inserts a new user.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, username, password_hash, role, shop_name, first_name, last_name, birth_date,
			id_card, email, tel, sex, image_ref, promptpay_qr, addresses, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Role, user.ShopName, user.FirstName,
		user.LastName, user.BirthDate, user.IDCard, user.Email, user.Tel, user.Sex, user.ImageRef,
		user.PromptPayQR, addressesOrEmpty(user.Addresses), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			r.logger.Debug().Str("constraint", constraint).Msg("duplicate user")
			return mapUserConstraint(constraint)
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("user_id", user.ID.String()).Msg("user created successfully")
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("user_id", id.String()).Msg("user not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user by username")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetByIDs retrieves several users by ID.
func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	return r.queryUsers(ctx, query, ids)
}

// ShopNameTaken reports whether another user already uses shopName.
func (r *userRepository) ShopNameTaken(ctx context.Context, shopName string, except uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE shop_name = $1 AND id <> $2)`

	var taken bool
	if err := r.pool.QueryRow(ctx, query, shopName, except).Scan(&taken); err != nil {
		r.logger.Error().Err(err).Msg("failed to check shop name")
		return false, fmt.Errorf("failed to check shop name: %w", err)
	}
	return taken, nil
}

// Update persists every mutable field of user.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			password_hash = $2, role = $3, shop_name = $4, first_name = $5, last_name = $6,
			birth_date = $7, email = $8, tel = $9, sex = $10, image_ref = $11,
			promptpay_qr = $12, addresses = $13, updated_at = $14
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		user.ID, user.PasswordHash, user.Role, user.ShopName, user.FirstName, user.LastName,
		user.BirthDate, user.Email, user.Tel, user.Sex, user.ImageRef, user.PromptPayQR,
		addressesOrEmpty(user.Addresses), user.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			return mapUserConstraint(constraint)
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to update user")
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// List retrieves users with pagination, newest first.
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	return r.queryUsers(ctx, query, limit, offset)
}

// Delete removes a user.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete user")
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan user row")
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating user rows")
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func mapUserConstraint(constraint string) error {
	switch constraint {
	case "users_shop_name_key":
		return model.ErrShopNameTaken
	case "users_username_key":
		return model.ErrDuplicateUser.WithMessage("Username is already in use")
	case "users_email_key":
		return model.ErrDuplicateUser.WithMessage("Email is already in use")
	case "users_id_card_key":
		return model.ErrDuplicateUser.WithMessage("ID card is already in use")
	}
	return model.ErrDuplicateUser
}
