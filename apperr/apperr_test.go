package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatchingThroughWrap(t *testing.T) {
	err := fmt.Errorf("placing order: %w", InsufficientStock("Not enough stock for item %q", "rice"))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.Equal(t, `placing order: Not enough stock for item "rice"`, err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "INTERNAL", KindOf(nil).String())
}

func TestKindStrings(t *testing.T) {
	cases := map[Kind]string{
		KindNotFound:          "NOT_FOUND",
		KindInvalidIdentity:   "INVALID_IDENTITY",
		KindValidation:        "VALIDATION_ERROR",
		KindIntegrityConflict: "INTEGRITY_CONFLICT",
		KindUnauthorized:      "UNAUTHORIZED",
		KindForbidden:         "FORBIDDEN",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}
