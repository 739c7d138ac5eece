package binder

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	maxRelPathLength = 4096
	// Telegram caps callback_data at 64 bytes and tokens are produced for it.
	maxTokenLength = 64
)

// relpathValidator only checks that the value is a plausible path string.
// Whether the path stays inside the root is decided later by the path guard,
// which has to see the raw value to report the rejection.
func relpathValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) > maxRelPathLength {
		return false
	}
	return utf8.ValidString(value) && !strings.ContainsRune(value, 0)
}

// tokenValidator ensures the value could have come out of a rendered listing.
// Decoding is left to the navigation codec.
func tokenValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" || len(value) > maxTokenLength {
		return false
	}
	return utf8.ValidString(value)
}
