// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shelfapi/shelf/internal/model"
)

// DateFormat renders product timestamps, e.g. "January 2, 2006".
const DateFormat = "January 2, 2006"

// ErrInvalidPrice is returned when a price is not a number.
var ErrInvalidPrice = errors.New("price is not a number")

// CreateProductRequest represents the request body for creating a product.
type CreateProductRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Price       json.RawMessage `json:"price"`
}

// UpdateProductRequest represents the request body for a partial product update.
// Absent and null fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Price       json.RawMessage `json:"price"`
}

// ParsePrice reads a price sent as a JSON number or numeric string.
// Absent or null prices return nil.
func ParsePrice(raw json.RawMessage) (*decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return nil, ErrInvalidPrice
	}
	return &price, nil
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       *string `json:"image"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ToProductResponse converts a Product model to its response DTO.
func ToProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Image:       p.Image,
		CreatedAt:   p.CreatedAt.Format(DateFormat),
		UpdatedAt:   p.UpdatedAt.Format(DateFormat),
	}
}

// ProductEnvelope wraps a single product.
type ProductEnvelope struct {
	Data ProductResponse `json:"data"`
}

// ProductListResponse is one page of products with pagination links.
type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Links PageLinks         `json:"links"`
	Meta  PageMeta          `json:"meta"`
}

// PageLinks holds absolute URLs of neighbouring pages.
type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// PageMeta describes the position of a page within a listing.
type PageMeta struct {
	CurrentPage int    `json:"current_page"`
	From        *int   `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          *int   `json:"to"`
	Total       int    `json:"total"`
}

// ToProductListResponse builds a paginated listing. path is the absolute
// URL of the listing without a query string.
func ToProductListResponse(products []*model.Product, page, perPage, total int, path string) ProductListResponse {
	data := make([]ProductResponse, len(products))
	for i, p := range products {
		data[i] = ToProductResponse(p)
	}

	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = int(math.Ceil(float64(total) / float64(perPage)))
	}

	pageURL := func(n int) string {
		return path + "?page=" + strconv.Itoa(n)
	}

	links := PageLinks{
		First: pageURL(1),
		Last:  pageURL(lastPage),
	}
	if page > 1 {
		prev := pageURL(page - 1)
		links.Prev = &prev
	}
	if page < lastPage {
		next := pageURL(page + 1)
		links.Next = &next
	}

	meta := PageMeta{
		CurrentPage: page,
		LastPage:    lastPage,
		Path:        path,
		PerPage:     perPage,
		Total:       total,
	}
	if len(products) > 0 && perPage > 0 && page-1 <= (math.MaxInt-len(products))/perPage {
		from := (page-1)*perPage + 1
		to := from + len(products) - 1
		meta.From, meta.To = &from, &to
	}

	return ProductListResponse{Data: data, Links: links, Meta: meta}
}
