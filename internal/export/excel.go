package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pawbook/internal/domain"
	"pawbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Exporter renders the booking schedule as an xlsx grid: one row per clinic,
// one column per day.
type Exporter struct {
	repo   domain.Repository
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{repo: repo, path: path, logger: logger}
}

// ExportBookings writes the grid for [startDate, endDate] and returns the
// file path.
func (e *Exporter) ExportBookings(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if endDate.Before(startDate) {
		return "", fmt.Errorf("invalid date range: %s after %s",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	dailyBookings, err := e.repo.GetDailyBookings(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	clinics, err := e.repo.GetClinics(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting clinics: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateCols := e.writeDateHeaders(f, startDate, endDate)
	e.writeClinicHeaders(f, clinics)
	e.writeBookingCells(f, clinics, dailyBookings, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 20)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := startDate
	dateCols := make(map[string]int)

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		dateCols[currentDate.Format("2006-01-02")] = col

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateCols
}

func (e *Exporter) writeClinicHeaders(f *excelize.File, clinics []models.Clinic) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 3
	for _, clinic := range clinics {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, clinic.Name)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		row++
	}
}

func (e *Exporter) writeBookingCells(f *excelize.File, clinics []models.Clinic, dailyBookings map[string][]models.Booking, dateCols map[string]int) {
	for dateKey, bookings := range dailyBookings {
		col, exists := dateCols[dateKey]
		if !exists {
			continue
		}

		byClinic := make(map[string][]models.Booking)
		for _, booking := range bookings {
			byClinic[booking.ClinicName] = append(byClinic[booking.ClinicName], booking)
		}

		row := 3
		for _, clinic := range clinics {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			clinicBookings := byClinic[clinic.Name]

			var cellValue string
			for _, booking := range clinicBookings {
				cellValue += fmt.Sprintf("%s %s %s\n", statusIcon(booking.Status), booking.Time, booking.Service)
				if booking.Notes != "" {
					cellValue += fmt.Sprintf("   💬 %s\n", booking.Notes)
				}
			}
			if cellValue == "" {
				cellValue = "—"
			}

			_ = f.SetCellValue(sheetName, cell, cellValue)
			if styleID, err := e.cellStyle(f, clinicBookings); err == nil {
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
			row++
		}
	}
}

// cellStyle: yellow when the day has pending bookings, green when everything
// is confirmed or done, no fill for an empty day.
func (e *Exporter) cellStyle(f *excelize.File, bookings []models.Booking) (int, error) {
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != models.StatusCancelled {
			active = append(active, b)
		}
	}

	fill := "#FFFFFF"
	if len(active) > 0 {
		fill = "#C6EFCE"
		for _, b := range active {
			if b.Status == models.StatusPending {
				fill = "#FFEB9C"
				break
			}
		}
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
}

func statusIcon(status string) string {
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		return "✅"
	case models.StatusCancelled:
		return "❌"
	default:
		return "⏳"
	}
}
