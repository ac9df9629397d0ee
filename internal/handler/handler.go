// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// errInvalidJSON marks request bodies that are not valid JSON.
var errInvalidJSON = errors.New("invalid JSON body")

// Handler serves the router's fallback responses.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found.", nil)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed.", nil)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes the request body into dst. An empty body decodes as {}
// so missing fields surface as validation errors rather than syntax errors.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return maxBytesErr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeError(typeErr)
	}

	return fmt.Errorf("%w: %v", errInvalidJSON, err)
}

// typeError reports a JSON value of the wrong type against its field.
func typeError(err *json.UnmarshalTypeError) error {
	field := err.Field
	label := strings.ReplaceAll(field, "_", " ")

	kind := err.Type.Kind()
	if kind == reflect.Pointer {
		kind = err.Type.Elem().Kind()
	}

	switch kind {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return fieldError(field, "The "+label+" must be an integer.")
	case reflect.String:
		return fieldError(field, "The "+label+" must be a string.")
	default:
		return fieldError(field, "The "+label+" is invalid.")
	}
}

// urlID parses a positive integer route parameter.
func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageParam reads the 1-based page query parameter. Anything unusable is page 1;
// numbers past the int range saturate.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if errors.Is(err, strconv.ErrRange) && page > 0 {
		return page
	}
	if err != nil || page < 1 {
		return 1
	}
	return page
}
