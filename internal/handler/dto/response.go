package dto

// TokenRequest represents the credentials posted to the token endpoint.
type TokenRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a newly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// AttachUserProductRequest represents the body of POST /user-products.
type AttachUserProductRequest struct {
	ProductID *int64 `json:"product_id" validate:"required,gt=0"`
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes what went wrong. Fields is set for validation failures.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
