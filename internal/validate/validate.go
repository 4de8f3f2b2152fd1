// Package validate implements the per-operation input checks that run after
// the auth gate and before any transport call. Checks are pure: no I/O, no
// side effects, and a deterministic verdict for a given input. Each operation
// declares an ordered check list and the first violation wins.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tallyforge/erpd/internal/result"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
)

// Check is one deferred field check. It returns nil when the field passes.
type Check func() *result.ErrorInfo

// First evaluates checks in declaration order and returns the first
// violation found, or nil when every check passes. Later checks never run
// once a violation is found.
func First(checks ...Check) *result.ErrorInfo {
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Doctype requires a non-empty doctype-class field. Violations map to
// INVALID_DOCTYPE rather than FIELD_ERROR.
func Doctype(field, value string) Check {
	return func() *result.ErrorInfo {
		if strings.TrimSpace(value) == "" {
			return result.Errorf(result.InvalidDoctype, "%s must be a non-empty string", field)
		}
		return nil
	}
}

// NonEmpty requires a non-empty string field.
func NonEmpty(field, value string) Check {
	return func() *result.ErrorInfo {
		if strings.TrimSpace(value) == "" {
			return result.Errorf(result.FieldError, "%s must be a non-empty string", field)
		}
		return nil
	}
}

// Required reports a missing field. Used where the contract phrases the
// violation as absence rather than emptiness.
func Required(field, value string) Check {
	return func() *result.ErrorInfo {
		if value == "" {
			return result.Errorf(result.FieldError, "%s is required", field)
		}
		return nil
	}
}

// NonEmptySlice requires at least one element.
func NonEmptySlice[E any](field string, values []E) Check {
	return func() *result.ErrorInfo {
		if len(values) == 0 {
			return result.Errorf(result.FieldError, "%s must be a non-empty array", field)
		}
		return nil
	}
}

// NotNilSlice requires the slice itself. An empty non-nil slice passes;
// replacing a table with zero rows is a legitimate request.
func NotNilSlice[E any](field string, values []E) Check {
	return func() *result.ErrorInfo {
		if values == nil {
			return result.Errorf(result.FieldError, "%s is required", field)
		}
		return nil
	}
}

// Email validates the format of an optional email field. Empty values pass;
// presence is a separate check.
func Email(field, value string) Check {
	return func() *result.ErrorInfo {
		if value == "" {
			return nil
		}
		if !emailPattern.MatchString(value) {
			return result.Errorf(result.FieldError, "%s must be a valid email address", field)
		}
		return nil
	}
}

// Positive requires an integer greater than zero.
func Positive(field string, n int) Check {
	return func() *result.ErrorInfo {
		if n <= 0 {
			return result.Errorf(result.FieldError, "%s must be a positive integer", field)
		}
		return nil
	}
}

// OptionalPositive allows zero as "not provided" but rejects negative
// values. Used for limit-style fields that default when omitted.
func OptionalPositive(field string, n int) Check {
	return func() *result.ErrorInfo {
		if n < 0 {
			return result.Errorf(result.FieldError, "%s must be a positive integer", field)
		}
		return nil
	}
}

// GreaterThanZero requires a numeric field strictly above zero.
func GreaterThanZero(field string, n float64) Check {
	return func() *result.ErrorInfo {
		if n <= 0 {
			return result.Errorf(result.FieldError, "%s must be greater than 0", field)
		}
		return nil
	}
}

// NonNegative requires a numeric field of zero or more.
func NonNegative(field string, n float64) Check {
	return func() *result.ErrorInfo {
		if n < 0 {
			return result.Errorf(result.FieldError, "%s must be greater than or equal to 0", field)
		}
		return nil
	}
}

// MaxLen bounds a string field's length in characters.
func MaxLen(field, value string, max int) Check {
	return func() *result.ErrorInfo {
		if len(value) > max {
			return result.Errorf(result.FieldError, "%s must be at most %d characters", field, max)
		}
		return nil
	}
}

// Base64 checks alphabet, padding, and length without decoding. Presence is
// a separate check; empty values pass.
func Base64(field, value string) Check {
	return func() *result.ErrorInfo {
		if value == "" {
			return nil
		}
		if len(value)%4 != 0 || !base64Pattern.MatchString(value) {
			return result.Errorf(result.FieldError, "%s must be valid base64", field)
		}
		return nil
	}
}

// MaxDecodedSize rejects base64 payloads whose decoded size would exceed
// limit bytes. The size is computed from the encoded length so oversized
// payloads are refused before any decoding happens. The message is fixed by
// the caller's contract, not derived from the field name.
func MaxDecodedSize(value string, limit int64, message string) Check {
	return func() *result.ErrorInfo {
		if DecodedSize(value) > limit {
			return &result.ErrorInfo{Code: result.FieldError, Message: message}
		}
		return nil
	}
}

// DecodedSize reports the byte size a base64 string decodes to, derived from
// its encoded length and trailing padding.
func DecodedSize(encoded string) int64 {
	n := int64(len(encoded))
	if n == 0 {
		return 0
	}
	var padding int64
	switch {
	case strings.HasSuffix(encoded, "=="):
		padding = 2
	case strings.HasSuffix(encoded, "="):
		padding = 1
	}
	return n*3/4 - padding
}

// Indexed prefixes a field name with its slice position, e.g. items[2].qty.
func Indexed(slice string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", slice, i, field)
}
