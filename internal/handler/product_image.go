package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/handler/dto"
	"github.com/shelfapi/shelf/internal/model"
	"github.com/shelfapi/shelf/internal/service"
)

const (
	imageField = "image"
	// multipartOverhead allows for boundaries and headers around the file part.
	multipartOverhead = 1 << 20
	// multipartMemory is how much of the form is held in memory before spilling to disk.
	multipartMemory = 8 << 20
)

// ProductImageHandler handles image uploads for products.
type ProductImageHandler struct {
	svc       *service.ProductService
	maxUpload int64
	logger    *slog.Logger
}

// NewProductImageHandler creates a new ProductImageHandler.
func NewProductImageHandler(svc *service.ProductService, maxUpload int64, logger *slog.Logger) *ProductImageHandler {
	return &ProductImageHandler{
		svc:       svc,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Attach handles POST /products/{id}/image with a multipart "image" field.
func (h *ProductImageHandler) Attach(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeNotFound(w, productNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	file, header, err := h.formFile(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		handleServiceError(w, r, h.logger, fieldError(imageField, "The image is too large."), productNotFound)
		return
	}

	identity := auth.IdentityFromContext(r.Context())
	url, err := h.svc.AttachImage(r.Context(), identity, id, model.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err, productNotFound)
		return
	}

	h.logger.Info("image_attached",
		"product_id", id,
		"user_id", identity.UserID,
		"size", header.Size,
		"url", url,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "The image has been attached to the product."})
}

// formFile extracts the uploaded image. A missing part or a body that is not
// multipart is reported as a missing image.
func (h *ProductImageHandler) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, nil, maxBytesErr
		}
		return nil, nil, fieldError(imageField, "The image field is required.")
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		return nil, nil, fieldError(imageField, "The image field is required.")
	}
	return file, header, nil
}
