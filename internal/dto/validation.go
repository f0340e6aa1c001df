package dto

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

const maxIdempotencyKeyLen = 128

var actionTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]{0,63}$`)

// RegisterValidators installs the ledger's custom binding tags on v.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("idempotency_key", validIdempotencyKey); err != nil {
		return err
	}
	return v.RegisterValidation("action_type", validActionType)
}

// Printable ASCII without spaces, so keys survive headers and logs intact.
func validIdempotencyKey(fl validator.FieldLevel) bool {
	return IsValidIdempotencyKey(fl.Field().String())
}

func validActionType(fl validator.FieldLevel) bool {
	return actionTypePattern.MatchString(fl.Field().String())
}

// IsValidIdempotencyKey reports whether key may be used as an idempotency key.
func IsValidIdempotencyKey(key string) bool {
	if key == "" || len(key) > maxIdempotencyKeyLen {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] > '~' {
			return false
		}
	}
	return true
}
