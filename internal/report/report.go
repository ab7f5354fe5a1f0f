// Package report exports reservations as a spreadsheet.
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const (
	sheet       = "Reservations"
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{
	"ID", "Room", "Guest", "Check-in", "Check-out", "Nights",
	"Adults", "Children", "Status", "Total", "Paid", "Balance",
}

type Source interface {
	ListReservations(ctx context.Context, branchID uint, f store.ReservationFilter) ([]models.Reservation, error)
	GetRoom(ctx context.Context, id uint) (*models.Room, error)
	GetGuest(ctx context.Context, id uint) (*models.Guest, error)
}

// Row is one reservation as it appears in the sheet.
type Row struct {
	Reservation models.Reservation
	Room        string
	Guest       string
}

// Build writes rows into a new workbook with a single reservations sheet.
func Build(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			f.Close()
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, bold)
	}

	for i, row := range rows {
		r := row.Reservation
		values := []any{
			r.ID,
			row.Room,
			row.Guest,
			r.CheckInDate.Format(stay.Layout),
			r.CheckOutDate.Format(stay.Layout),
			stay.Interval{CheckIn: r.CheckInDate, CheckOut: r.CheckOutDate}.Nights(),
			r.Adults,
			r.Children,
			string(r.Status),
			r.TotalAmount.InexactFloat64(),
			r.PaidAmount.InexactFloat64(),
			r.Balance().InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func period(c *fiber.Ctx) (*stay.Interval, error) {
	from, err := httpx.ParseOptionalDate("from", optional(c.Query("from")))
	if err != nil {
		return nil, err
	}
	to, err := httpx.ParseOptionalDate("to", optional(c.Query("to")))
	if err != nil {
		return nil, err
	}
	if from == nil && to == nil {
		return nil, nil
	}
	if from == nil {
		return nil, apperr.Field("from", "is required when to is set")
	}
	if to == nil {
		return nil, apperr.Field("to", "is required when from is set")
	}
	iv, err := stay.New(*from, *to)
	if err != nil {
		return nil, apperr.Field("to", "must be after from")
	}
	return &iv, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GET /api/reports/reservations.xlsx?branchId&from&to
// from/to select the reservations whose stay overlaps [from, to).
func ReservationsHandler(src Source, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}
		iv, err := period(c)
		if err != nil {
			return err
		}
		scope := access.ResolveScope(actx, requested)
		if scope == nil {
			return apperr.Field("branchId", "a branch must be selected")
		}

		ctx := c.UserContext()
		reservations, err := src.ListReservations(ctx, *scope, store.ReservationFilter{Overlapping: iv})
		if err != nil {
			return apperr.Wrap(err, "list reservations")
		}
		rows := make([]Row, 0, len(reservations))
		for _, r := range reservations {
			row := Row{Reservation: r}
			if room, err := src.GetRoom(ctx, r.RoomID); err == nil {
				row.Room = room.Number
			}
			if g, err := src.GetGuest(ctx, r.GuestID); err == nil {
				row.Guest = g.FullName()
			}
			rows = append(rows, row)
		}

		f, err := Build(rows)
		if err != nil {
			return apperr.Wrap(err, "build report")
		}
		defer f.Close()
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return apperr.Wrap(err, "write report")
		}

		name := fmt.Sprintf("reservations-%d-%s.xlsx", *scope, now().Format("20060102"))
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Send(buf.Bytes())
	}
}
