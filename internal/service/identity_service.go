package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"promptmart/internal/authz"
	"promptmart/internal/credential"
	"promptmart/internal/model"
	"promptmart/internal/repository"
	"promptmart/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const minPasswordLength = 8

// identityService implements IdentityService.
type identityService struct {
	userRepo    repository.UserRepository
	credentials credential.Service
	store       storage.Store
	authz       authz.Authorizer
	now         Clock
	logger      zerolog.Logger
}

// NewIdentityService creates a new identity service.
func NewIdentityService(
	userRepo repository.UserRepository,
	credentials credential.Service,
	store storage.Store,
	authorizer authz.Authorizer,
	logger zerolog.Logger,
) IdentityService {
	return newIdentityService(userRepo, credentials, store, authorizer, systemClock, logger)
}

func newIdentityService(
	userRepo repository.UserRepository,
	credentials credential.Service,
	store storage.Store,
	authorizer authz.Authorizer,
	now Clock,
	logger zerolog.Logger,
) *identityService {
	return &identityService{
		userRepo:    userRepo,
		credentials: credentials,
		store:       store,
		authz:       authorizer,
		now:         now,
		logger:      logger.With().Str("service", "identity").Logger(),
	}
}

func (s *identityService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"username", req.Username},
		{"password", req.Password},
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"email", req.Email},
		{"tel", req.Tel},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, model.NewValidationError("missing required fields: " + strings.Join(missing, ", "))
	}
	if len(req.Password) < minPasswordLength {
		return nil, model.ErrWeakPassword
	}

	addresses := []model.Address{}
	if req.Address != nil {
		normalized, err := model.NormalizeAddresses([]model.Address{*req.Address})
		if err != nil {
			return nil, err
		}
		addresses = normalized
	}

	hash, err := s.credentials.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    req.BirthDate,
		Email:        req.Email,
		Tel:          req.Tel,
		Addresses:    addresses,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if idCard := strings.TrimSpace(req.IDCard); idCard != "" {
		user.IDCard = &idCard
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")
	return user, nil
}

func (s *identityService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenPair, error) {
	if req.Username == "" || req.Password == "" {
		return nil, model.NewValidationError("username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !s.credentials.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Debug().Str("username", req.Username).Msg("login rejected")
		return nil, model.ErrInvalidCredential
	}

	pair, err := s.credentials.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh issues a new access token. The refresh token itself is not rotated.
func (s *identityService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	if refreshToken == "" {
		return nil, model.ErrInvalidToken
	}
	userID, err := s.credentials.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadActive(ctx, userID); err != nil {
		return nil, err
	}

	access, err := s.credentials.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{AccessToken: access}, nil
}

func (s *identityService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	userID, err := s.credentials.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	return s.loadActive(ctx, userID)
}

// loadActive resolves a token subject. A deleted account invalidates its tokens.
func (s *identityService) loadActive(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidToken
	}
	return user, nil
}

func (s *identityService) ResetPassword(ctx context.Context, actor authz.Actor, req model.ResetPasswordRequest) error {
	user, err := s.self(ctx, actor)
	if err != nil {
		return err
	}
	if !s.credentials.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return model.ErrInvalidCredential.WithMessage("current password is incorrect")
	}
	if len(req.NewPassword) < minPasswordLength {
		return model.ErrWeakPassword
	}

	hash, err := s.credentials.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("password changed")
	return nil
}

func (s *identityService) GetProfile(ctx context.Context, actor authz.Actor) (*model.User, error) {
	return s.self(ctx, actor)
}

func (s *identityService) UpdateProfile(ctx context.Context, actor authz.Actor, req model.ProfileUpdate) (*model.User, error) {
	user, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}

	if req.PromptPayQR != nil {
		if !user.IsSeller() {
			return nil, model.ErrForbidden.WithMessage("only sellers can set a PromptPay QR")
		}
		user.PromptPayQR = *req.PromptPayQR
	}
	if req.ShopName != nil {
		shopName := strings.TrimSpace(*req.ShopName)
		if shopName == "" {
			return nil, model.NewValidationError("shopName must not be blank")
		}
		taken, err := s.userRepo.ShopNameTaken(ctx, shopName, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check shop name: %w", err)
		}
		if taken {
			return nil, model.ErrShopNameTaken
		}
		user.ShopName = &shopName
	}
	if req.Addresses != nil {
		addresses, err := model.NormalizeAddresses(req.Addresses)
		if err != nil {
			return nil, err
		}
		user.Addresses = addresses
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.BirthDate != nil {
		user.BirthDate = req.BirthDate
	}
	if req.Tel != nil {
		user.Tel = *req.Tel
	}
	if req.Sex != nil {
		user.Sex = *req.Sex
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return nil, model.NewValidationError("email must not be blank")
		}
		user.Email = email
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *identityService) UploadPromptPayQR(ctx context.Context, actor authz.Actor, filename, contentType string, body io.Reader) (*model.User, error) {
	if err := s.authz.Require(actor, authz.ActPromptPayUpload, authz.Resource{}); err != nil {
		return nil, err
	}
	user, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Put(ctx, filename, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store PromptPay QR: %w", err)
	}
	user.PromptPayQR = ref
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("ref", ref).Msg("PromptPay QR updated")
	return user, nil
}

// OpenStore promotes a customer to seller under a shop name nobody else uses.
func (s *identityService) OpenStore(ctx context.Context, actor authz.Actor, req model.StoreRequest) (*model.User, error) {
	user, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}

	next, err := user.OpenStore(req, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.authz.Require(actor, authz.ActStoreOpen, authz.Resource{}); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.ShopNameTaken(ctx, *next.ShopName, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check shop name: %w", err)
	}
	if taken {
		return nil, model.ErrShopNameTaken
	}

	if err := s.userRepo.Update(ctx, &next); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", next.ID.String()).
		Str("shop_name", *next.ShopName).
		Msg("store opened")
	return &next, nil
}

func (s *identityService) ListUsers(ctx context.Context, actor authz.Actor, limit, offset int) ([]model.User, error) {
	if err := s.authz.Require(actor, authz.ActUserAdmin, authz.Resource{}); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultProductLimit
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *identityService) GetUser(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.User, error) {
	if err := s.authz.Require(actor, authz.ActUserAdmin, authz.Resource{}); err != nil {
		return nil, err
	}
	return s.mustUser(ctx, id)
}

func (s *identityService) UpdateUser(ctx context.Context, actor authz.Actor, id uuid.UUID, req model.AdminUserUpdate) (*model.User, error) {
	if err := s.authz.Require(actor, authz.ActUserAdmin, authz.Resource{}); err != nil {
		return nil, err
	}
	if req.Role != nil && !req.Role.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown role %q", *req.Role))
	}

	user, err := s.mustUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Tel != nil {
		user.Tel = *req.Tel
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("admin_id", actor.ID.String()).
		Msg("user updated by admin")
	return user, nil
}

func (s *identityService) DeleteUser(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := s.authz.Require(actor, authz.ActUserAdmin, authz.Resource{}); err != nil {
		return err
	}
	deleted, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrUserNotFound
	}
	s.logger.Info().
		Str("user_id", id.String()).
		Str("admin_id", actor.ID.String()).
		Msg("user deleted")
	return nil
}

func (s *identityService) self(ctx context.Context, actor authz.Actor) (*model.User, error) {
	if actor.ID == uuid.Nil {
		return nil, model.ErrUnauthenticated
	}
	return s.mustUser(ctx, actor.ID)
}

func (s *identityService) mustUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}
