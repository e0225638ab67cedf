package envconfig

import (
	"os"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Get returns the value of the requested environment variable or the supplied
// fallback when unset or empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// Validate checks a config struct against its validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
