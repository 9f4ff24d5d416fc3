// Package credential hashes passwords and issues signed access and refresh tokens.
package credential

import (
	"errors"
	"fmt"
	"time"

	"promptmart/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the signing secrets and lifetimes.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

// Service is the opaque credential service used by identity operations.
type Service interface {
	// HashPassword returns a bcrypt hash of password.
	HashPassword(password string) (string, error)

	// CheckPassword reports whether password matches hash.
	CheckPassword(hash, password string) bool

	// IssuePair signs a new access and refresh token for userID.
	IssuePair(userID uuid.UUID) (model.TokenPair, error)

	// IssueAccess signs a new access token for userID.
	IssueAccess(userID uuid.UUID) (string, error)

	// ParseAccess validates an access token and returns its user ID.
	ParseAccess(token string) (uuid.UUID, error)

	// ParseRefresh validates a refresh token and returns its user ID.
	ParseRefresh(token string) (uuid.UUID, error)
}

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

type tokenClaims struct {
	UserID string `json:"id"`
	Kind   string `json:"typ"`
	jwt.RegisteredClaims
}

type service struct {
	cfg Config
	now func() time.Time
}

// NewService creates a credential service.
func NewService(cfg Config) Service {
	return newService(cfg, time.Now)
}

func newService(cfg Config, now func() time.Time) *service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &service{cfg: cfg, now: now}
}

func (s *service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

func (s *service) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *service) IssuePair(userID uuid.UUID) (model.TokenPair, error) {
	access, err := s.IssueAccess(userID)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, err := s.sign(userID, kindRefresh, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) IssueAccess(userID uuid.UUID) (string, error) {
	return s.sign(userID, kindAccess, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

func (s *service) ParseAccess(token string) (uuid.UUID, error) {
	return s.parse(token, kindAccess, s.cfg.AccessSecret)
}

func (s *service) ParseRefresh(token string) (uuid.UUID, error) {
	return s.parse(token, kindRefresh, s.cfg.RefreshSecret)
}

func (s *service) sign(userID uuid.UUID, kind, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &tokenClaims{
		UserID: userID.String(),
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (s *service) parse(tokenString, kind, secret string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, model.ErrInvalidToken
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Kind != kind {
		return uuid.Nil, model.ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, errors.Join(model.ErrInvalidToken, err)
	}
	return id, nil
}
