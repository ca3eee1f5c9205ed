package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/apperr"
)

func TestRespondWithAppError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{apperr.NotFound("Order not found"), http.StatusNotFound, `{"error":"Order not found"}`},
		{apperr.InsufficientStock("Not enough stock"), http.StatusConflict, `{"error":"Not enough stock"}`},
		{apperr.InvalidIdentity("no id"), http.StatusBadRequest, `{"error":"no id"}`},
		{apperr.Forbidden("vendors only"), http.StatusForbidden, `{"error":"vendors only"}`},
		{errors.New("mongo exploded"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		RespondWithAppError(rec, zap.NewNop(), tt.err)
		assert.Equal(t, tt.status, rec.Code)
		assert.JSONEq(t, tt.body, rec.Body.String())
	}
}

func TestGenerateRandomDigitString(t *testing.T) {
	otp, err := GenerateRandomDigitString(6)
	require.NoError(t, err)
	assert.Len(t, otp, 6)
	assert.Regexp(t, `^[0-9]{6}$`, otp)
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, ValidateDate("order_date", "2024-02-29", false))
	assert.NoError(t, ValidateDate("delivery_date", "", true))
	assert.ErrorIs(t, ValidateDate("order_date", "", false), apperr.ErrValidation)
	assert.ErrorIs(t, ValidateDate("order_date", "29/02/2024", false), apperr.ErrValidation)
}
