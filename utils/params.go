package utils

import (
	"strings"
	"time"

	"storefront/apperr"
)

// ValidateDate checks a YYYY-MM-DD date. Empty input is allowed when optional.
func ValidateDate(field, s string, optional bool) error {
	s = strings.TrimSpace(s)
	if s == "" {
		if optional {
			return nil
		}
		return apperr.Validation("%s is required", field)
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return apperr.Validation("%s must be a YYYY-MM-DD date", field)
	}
	return nil
}
