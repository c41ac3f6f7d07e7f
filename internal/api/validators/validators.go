// Package validators builds the request validator shared by the HTTP handlers.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// New returns the process-wide validator. Field names in errors follow json tags.
func New() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		instance = v
	})
	return instance
}

// Messages flattens validation failures into one line per field.
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "required_with":
			out = append(out, fmt.Sprintf("%s is required", field))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is not a valid %s", field, fe.Tag()))
		}
	}
	return out
}
