package handler

import (
	"log/slog"
	"net/http"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/handler/dto"
	"github.com/shelfapi/shelf/internal/service"
)

// AuthHandler handles token issuance and revocation.
type AuthHandler struct {
	svc       *service.AuthService
	validator *Validator
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, validator *Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:       svc,
		validator: validator,
		logger:    logger,
	}
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, "")
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleServiceError(w, r, h.logger, err, "")
		return
	}

	token, err := h.svc.Authenticate(r.Context(), service.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err, "")
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

// RevokeToken handles DELETE /auth/token, revoking the token used to call it.
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if err := h.svc.Revoke(r.Context(), identity); err != nil {
		handleServiceError(w, r, h.logger, err, "")
		return
	}

	h.logger.Info("token_revoked",
		"user_id", identity.UserID,
		"token_id", identity.TokenID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "The token has been revoked."})
}
