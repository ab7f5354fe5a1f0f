// Package httpx holds the request parsing helpers shared by the handlers.
package httpx

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"
	"github.com/pawanbhattarai/PMS/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// DateTimeLayout is how timestamps are rendered in responses.
const DateTimeLayout = "2006-01-02 15:04:05"

func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Field(name, "must be a positive integer")
	}
	return uint(id), nil
}

// QueryUint returns nil when the parameter is absent.
func QueryUint(c *fiber.Ctx, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, apperr.Field(name, "must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

// BranchQuery reads ?branchId.
func BranchQuery(c *fiber.Ctx) (*uint, error) {
	return QueryUint(c, "branchId")
}

// ParseBody decodes the JSON body into dst and runs its validate tags.
func ParseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validationf("invalid request body")
	}
	return validate.Struct(dst)
}

// ParseDate parses a required date field, naming it in the error.
func ParseDate(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, apperr.Field(field, "is required")
	}
	t, err := stay.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Field(field, "must be a date (YYYY-MM-DD)")
	}
	return t, nil
}

// ParseOptionalDate returns nil for a nil or empty value.
func ParseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// StayQuery reads ?checkIn&checkOut as a stay interval.
func StayQuery(c *fiber.Ctx) (stay.Interval, error) {
	in, err := ParseDate("checkIn", c.Query("checkIn"))
	if err != nil {
		return stay.Interval{}, err
	}
	out, err := ParseDate("checkOut", c.Query("checkOut"))
	if err != nil {
		return stay.Interval{}, err
	}
	iv, err := stay.New(in, out)
	if err != nil {
		return stay.Interval{}, apperr.Field("checkOut", "must be after checkIn")
	}
	return iv, nil
}

func FormatTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

func FormatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateTimeLayout)
	return &s
}

// StoreError maps store sentinels onto the error taxonomy; what names the
// entity in the message.
func StoreError(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflictf("%s already exists", what)
	case errors.Is(err, store.ErrInsufficientStock):
		return apperr.Validationf("insufficient stock for %s", what)
	}
	return apperr.Wrap(err, what)
}
