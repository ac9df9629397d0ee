package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/handler/dto"
	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/service"
)

const productNotFound = "PRODUCT_NOT_FOUND"

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	svc     *service.ProductService
	baseURL string
	logger  *slog.Logger
}

// NewProductHandler creates a new ProductHandler. baseURL is the public
// origin used to build pagination links.
func NewProductHandler(svc *service.ProductService, baseURL string, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		svc:     svc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// List handles GET /products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), auth.IdentityFromContext(r.Context()), pageParam(r))
	if err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProductListResponse(page.Products, page.Page, page.PerPage, page.Total, h.baseURL+r.URL.Path))
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeNotFound(w, productNotFound)
		return
	}

	product, err := h.svc.Get(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductEnvelope{Data: dto.ToProductResponse(product)})
}

// Create handles POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	price, err := dto.ParsePrice(req.Price)
	if err != nil {
		handleServiceError(w, r, h.logger, invalidPrice(err), productNotFound)
		return
	}

	input := service.CreateProductInput{
		Description: req.Description,
		Price:       price,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}

	identity := auth.IdentityFromContext(r.Context())
	product, err := h.svc.Create(r.Context(), identity, input)
	if err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	h.logger.Info("product_created",
		"product_id", product.ID,
		"user_id", identity.UserID,
	)

	writeJSON(w, http.StatusCreated, dto.ProductEnvelope{Data: dto.ToProductResponse(product)})
}

// Update handles PATCH /products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeNotFound(w, productNotFound)
		return
	}

	var req dto.UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	price, err := dto.ParsePrice(req.Price)
	if err != nil {
		handleServiceError(w, r, h.logger, invalidPrice(err), productNotFound)
		return
	}

	patch := model.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
	}

	identity := auth.IdentityFromContext(r.Context())
	product, err := h.svc.Update(r.Context(), identity, id, patch)
	if err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	h.logger.Info("product_updated",
		"product_id", product.ID,
		"user_id", identity.UserID,
	)

	writeJSON(w, http.StatusOK, dto.ProductEnvelope{Data: dto.ToProductResponse(product)})
}

// Delete handles DELETE /products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeNotFound(w, productNotFound)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), identity, id); err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	h.logger.Info("product_deleted",
		"product_id", id,
		"user_id", identity.UserID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "This product has been deleted."})
}

func invalidPrice(err error) error {
	if errors.Is(err, dto.ErrInvalidPrice) {
		return fieldError("price", "The price must be a number.")
	}
	return err
}
