package inventory

import (
	"errors"
	"strconv"
	"time"

	"factory-backend/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// toHTTPError maps service errors onto fiber errors. Unknown errors are
// logged and hidden behind a 500.
func (s *Service) toHTTPError(funcName string, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrDuplicateBOMLine):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidOperation),
		errors.Is(err, ErrDuplicateIdentifier):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	logging.LogError(s.log, "inventory", funcName, "handler", nil, err)
	return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func queryID(c *fiber.Ctx, name string) (uint, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func parseDate(field, v string) (time.Time, error) {
	t, err := time.Parse(apiDateLayout, v)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" must be YYYY-MM-DD")
	}
	return t, nil
}

// queryDateRange reads optional start_date and end_date.
func queryDateRange(c *fiber.Ctx) (from, to time.Time, err error) {
	if v := c.Query("start_date"); v != "" {
		if from, err = parseDate("start_date", v); err != nil {
			return
		}
	}
	if v := c.Query("end_date"); v != "" {
		if to, err = parseDate("end_date", v); err != nil {
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		err = fiber.NewError(fiber.StatusBadRequest, "end_date is before start_date")
	}
	return
}

func bodyError() error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
}
