// Package xlsx writes admin exports as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"travelshop/internal/domain"
)

const reservationsSheet = "Reservations"

var reservationHeader = []any{
	"Reservation ID", "Package ID", "Package", "User ID", "Travel date", "Travelers",
	"Contact name", "Contact phone", "Status", "Total amount", "Created at",
}

// WriteReservations writes one row per reservation under a bold header.
func WriteReservations(w io.Writer, rs []domain.Reservation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reservationsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(reservationsSheet, "A1", &reservationHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(reservationsSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range rs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.ID, r.PackageID, r.PackageTitle, r.UserID,
			r.TravelDate.Format("2006-01-02"), r.Travelers,
			r.ContactName, r.ContactPhone, string(r.Status), r.TotalAmount,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(reservationsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(reservationsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
