package handler

import (
	"net/http"

	"promptmart/internal/authz"
	"promptmart/internal/model"
	"promptmart/internal/service"

	"github.com/rs/zerolog"
)

const promptPayQRField = "promptPayQR"

// UserHandler handles account, profile and user administration requests.
type UserHandler struct {
	service   service.IdentityService
	maxUpload int64
	logger    zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.IdentityService, maxUpload int64, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service:   service,
		maxUpload: maxUpload,
		logger:    logger.With().Str("handler", "user").Logger(),
	}
}

// Register handles POST /users/register requests.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered", user)
}

// Login handles POST /users/login requests.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	tokens, err := h.service.Login(r.Context(), req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// Refresh handles POST /users/refresh-token requests.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.TokenPair
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// ResetPassword handles PUT /users/reset-password requests.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	if err := h.service.ResetPassword(r.Context(), authz.ActorFrom(r.Context()), req); err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated", nil)
}

// GetProfile handles GET /users/profile requests.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), authz.ActorFrom(r.Context()))
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /users/profile requests.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), authz.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Profile updated", user)
}

// UploadPromptPayQR handles POST /users/profile/promptpay-qr multipart requests.
func (h *UserHandler) UploadPromptPayQR(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUpload, h.logger) {
		return
	}

	file, header, err := r.FormFile(promptPayQRField)
	if err != nil {
		respondError(w, model.NewValidationError("promptPayQR file is required"), h.logger)
		return
	}
	defer file.Close()

	user, err := h.service.UploadPromptPayQR(r.Context(), authz.ActorFrom(r.Context()),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "PromptPay QR updated", user)
}

// OpenStore handles POST /users/open-store requests.
func (h *UserHandler) OpenStore(w http.ResponseWriter, r *http.Request) {
	var req model.StoreRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	user, err := h.service.OpenStore(r.Context(), authz.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "Store opened", user)
}

// ListUsers handles GET /users/all requests with limit/offset pagination.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	users, err := h.service.ListUsers(r.Context(), authz.ActorFrom(r.Context()), limit, offset)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{id} requests.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	user, err := h.service.GetUser(r.Context(), authz.ActorFrom(r.Context()), id)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /users/{id} requests.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	var req model.AdminUserUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err, h.logger)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), authz.ActorFrom(r.Context()), id, req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "User updated", user)
}

// DeleteUser handles DELETE /users/{id} requests.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	if err := h.service.DeleteUser(r.Context(), authz.ActorFrom(r.Context()), id); err != nil {
		respondError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted", nil)
}
