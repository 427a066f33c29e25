package validation

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Errors flattens validator failures into field -> failed tag.
func Errors(err error) map[string]string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	out := make(map[string]string, len(ves))
	for _, ve := range ves {
		out[ve.Field()] = ve.Tag()
	}
	return out
}

// Struct validates a request body and returns a 400 fiber error naming the
// failing fields.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	fields := Errors(err)
	if fields == nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	parts := make([]string, 0, len(fields))
	for f, tag := range fields {
		parts = append(parts, f+": "+tag)
	}
	sort.Strings(parts)
	return fiber.NewError(fiber.StatusBadRequest, "invalid request: "+strings.Join(parts, ", "))
}
