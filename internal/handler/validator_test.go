package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfapi/shelf/internal/handler/dto"
	"github.com/shelfapi/shelf/internal/service"
)

func TestValidator_TokenRequest(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		req    dto.TokenRequest
		fields map[string]string
	}{
		{
			name: "valid",
			req:  dto.TokenRequest{Email: "test@example.com", Password: "password"},
		},
		{
			name: "missing both",
			req:  dto.TokenRequest{},
			fields: map[string]string{
				"email":    "The email field is required.",
				"password": "The password field is required.",
			},
		},
		{
			name: "malformed email",
			req:  dto.TokenRequest{Email: "not-an-email", Password: "password"},
			fields: map[string]string{
				"email": "The email must be a valid email address.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, verr.Fields)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestValidator_AttachUserProductRequest(t *testing.T) {
	v := NewValidator()
	zero, five := int64(0), int64(5)

	var verr *service.ValidationError
	require.ErrorAs(t, v.Validate(dto.AttachUserProductRequest{}), &verr)
	assert.Equal(t, "The product id field is required.", verr.Fields["product_id"])

	require.ErrorAs(t, v.Validate(dto.AttachUserProductRequest{ProductID: &zero}), &verr)
	assert.Equal(t, "The product id must be greater than 0.", verr.Fields["product_id"])

	assert.NoError(t, v.Validate(dto.AttachUserProductRequest{ProductID: &five}))
}
