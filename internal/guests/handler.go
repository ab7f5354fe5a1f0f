// Package guests serves the guest register. Guests are shared by every
// branch; their stay history is filtered by branch in the reservation package.
package guests

import (
	"strings"
	"time"

	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
)

var idTypes = map[string]bool{"passport": true, "driver_license": true, "national_id": true}

type CreateGuestRequest struct {
	FirstName   string  `json:"firstName" validate:"required,max=100"`
	LastName    string  `json:"lastName" validate:"required,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       string  `json:"phone" validate:"required,phone"`
	Address     string  `json:"address" validate:"max=255"`
	IDNumber    string  `json:"idNumber" validate:"max=100"`
	IDType      string  `json:"idType"`
	DateOfBirth *string `json:"dateOfBirth"`
	Nationality string  `json:"nationality" validate:"max=100"`
}

type UpdateGuestRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,phone"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	IDNumber    *string `json:"idNumber" validate:"omitempty,max=100"`
	IDType      *string `json:"idType"`
	DateOfBirth *string `json:"dateOfBirth"`
	Nationality *string `json:"nationality" validate:"omitempty,max=100"`
}

type GuestResponse struct {
	ID          uint    `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	FullName    string  `json:"fullName"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	IDNumber    string  `json:"idNumber"`
	IDType      string  `json:"idType"`
	DateOfBirth *string `json:"dateOfBirth"`
	Nationality string  `json:"nationality"`
	TotalStays  int     `json:"totalStays"`
	CreatedAt   string  `json:"createdAt"`
}

func NewGuestResponse(g *models.Guest) GuestResponse {
	res := GuestResponse{
		ID:          g.ID,
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		FullName:    g.FullName(),
		Email:       g.Email,
		Phone:       g.Phone,
		Address:     g.Address,
		IDNumber:    g.IDNumber,
		IDType:      g.IDType,
		Nationality: g.Nationality,
		TotalStays:  g.TotalStays,
		CreatedAt:   httpx.FormatTime(g.CreatedAt),
	}
	if g.DateOfBirth != nil {
		dob := g.DateOfBirth.Format(stay.Layout)
		res.DateOfBirth = &dob
	}
	return res
}

func checkIDType(t string) error {
	if t != "" && !idTypes[t] {
		return apperr.Field("idType", "must be one of passport, driver_license, national_id")
	}
	return nil
}

func birthDate(raw *string, now time.Time) (*time.Time, error) {
	dob, err := httpx.ParseOptionalDate("dateOfBirth", raw)
	if err != nil || dob == nil {
		return nil, err
	}
	if dob.After(now) {
		return nil, apperr.Field("dateOfBirth", "must not be in the future")
	}
	return dob, nil
}

// GET /api/guests?search
func ListHandler(st store.GuestStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		guests, err := st.ListGuests(c.UserContext(), c.Query("search"))
		if err != nil {
			return apperr.Wrap(err, "list guests")
		}
		res := make([]GuestResponse, 0, len(guests))
		for i := range guests {
			res = append(res, NewGuestResponse(&guests[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/guests/:id
func GetHandler(st store.GuestStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		g, err := st.GetGuest(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "guest")
		}
		return c.JSON(NewGuestResponse(g))
	}
}

// POST /api/guests
func CreateHandler(st store.GuestStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateGuestRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if err := checkIDType(body.IDType); err != nil {
			return err
		}
		dob, err := birthDate(body.DateOfBirth, time.Now())
		if err != nil {
			return err
		}

		g := models.Guest{
			FirstName:   strings.TrimSpace(body.FirstName),
			LastName:    strings.TrimSpace(body.LastName),
			Email:       strings.ToLower(strings.TrimSpace(body.Email)),
			Phone:       strings.TrimSpace(body.Phone),
			Address:     body.Address,
			IDNumber:    body.IDNumber,
			IDType:      body.IDType,
			DateOfBirth: dob,
			Nationality: body.Nationality,
		}
		if err := st.CreateGuest(c.UserContext(), &g); err != nil {
			return httpx.StoreError(err, "guest")
		}
		return c.Status(fiber.StatusCreated).JSON(NewGuestResponse(&g))
	}
}

// PUT /api/guests/:id
func UpdateHandler(st store.GuestStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateGuestRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		g, err := st.GetGuest(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "guest")
		}

		if body.FirstName != nil {
			g.FirstName = strings.TrimSpace(*body.FirstName)
		}
		if body.LastName != nil {
			g.LastName = strings.TrimSpace(*body.LastName)
		}
		if body.Email != nil {
			g.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}
		if body.Phone != nil {
			g.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Address != nil {
			g.Address = *body.Address
		}
		if body.IDNumber != nil {
			g.IDNumber = *body.IDNumber
		}
		if body.IDType != nil {
			if err := checkIDType(*body.IDType); err != nil {
				return err
			}
			g.IDType = *body.IDType
		}
		if body.DateOfBirth != nil {
			if g.DateOfBirth, err = birthDate(body.DateOfBirth, time.Now()); err != nil {
				return err
			}
		}
		if body.Nationality != nil {
			g.Nationality = *body.Nationality
		}

		if err := st.UpdateGuest(c.UserContext(), g); err != nil {
			return httpx.StoreError(err, "guest")
		}
		return c.JSON(NewGuestResponse(g))
	}
}
