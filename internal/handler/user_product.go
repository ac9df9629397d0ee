package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/handler/dto"
	"github.com/shelfapi/shelf/internal/service"
)

// UserProductHandler handles the caller's product collection.
type UserProductHandler struct {
	svc       *service.UserProductService
	validator *Validator
	baseURL   string
	logger    *slog.Logger
}

// NewUserProductHandler creates a new UserProductHandler.
func NewUserProductHandler(svc *service.UserProductService, validator *Validator, baseURL string, logger *slog.Logger) *UserProductHandler {
	return &UserProductHandler{
		svc:       svc,
		validator: validator,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		logger:    logger,
	}
}

// List handles GET /user-products.
func (h *UserProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), auth.IdentityFromContext(r.Context()), pageParam(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProductListResponse(page.Products, page.Page, page.PerPage, page.Total, h.baseURL+r.URL.Path))
}

// Attach handles POST /user-products.
func (h *UserProductHandler) Attach(w http.ResponseWriter, r *http.Request) {
	var req dto.AttachUserProductRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.svc.Attach(r.Context(), identity, *req.ProductID); err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	h.logger.Info("user_product_attached",
		"product_id", *req.ProductID,
		"user_id", identity.UserID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "The product has been attached to the user."})
}

// Detach handles DELETE /user-products/{id}. Detaching a product that is not
// attached succeeds.
func (h *UserProductHandler) Detach(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeNotFound(w, productNotFound)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.svc.Detach(r.Context(), identity, id); err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	h.logger.Info("user_product_detached",
		"product_id", id,
		"user_id", identity.UserID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "The product has been detached from the user."})
}
