package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wanderbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// BookingSource is the read surface the exporter needs.
type BookingSource interface {
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetExperience(ctx context.Context, id string) (*models.Experience, error)
}

// BookingExporter renders the bookings ledger into an Excel report.
type BookingExporter struct {
	source BookingSource
	path   string
	logger *zerolog.Logger
}

func NewBookingExporter(source BookingSource, path string, logger *zerolog.Logger) *BookingExporter {
	return &BookingExporter{
		source: source,
		path:   path,
		logger: logger,
	}
}

// ExportBookings создает Excel файл с данными о бронированиях.
// Zero start/end default to the trailing 30 days.
func (e *BookingExporter) ExportBookings(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if endDate.IsZero() {
		endDate = time.Now()
	}
	if startDate.IsZero() {
		startDate = endDate.AddDate(0, 0, -30)
	}

	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	bookings, err := e.source.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	e.writeHeaders(f)
	e.writeRows(ctx, f, bookings)
	e.writeSummary(f, bookings)

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 28)
	_ = f.SetColWidth(sheetName, "C", "E", 22)
	_ = f.SetColWidth(sheetName, "F", "J", 14)

	_ = f.MergeCell(sheetName, "A1", "J1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel report created")
	return filePath, nil
}

func (e *BookingExporter) writeHeaders(f *excelize.File) {
	headers := []string{
		"ID", "Experience", "Customer", "Email", "Phone",
		"Guests", "Promo", "Discount", "Total", "Created",
	}

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func (e *BookingExporter) writeRows(ctx context.Context, f *excelize.File, bookings []*models.Booking) {
	titles := make(map[string]string)

	for i, booking := range bookings {
		row := i + 3
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), booking.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), e.experienceTitle(ctx, titles, booking.ExperienceID))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), booking.CustomerName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), booking.CustomerEmail)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), booking.CustomerPhone)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), booking.NumberOfGuests)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), booking.PromoCode)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), booking.DiscountAmount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), booking.TotalPrice)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), booking.CreatedAt.Format("02.01.2006 15:04"))
	}
}

func (e *BookingExporter) writeSummary(f *excelize.File, bookings []*models.Booking) {
	var guests int64
	var revenue, discounts float64
	for _, booking := range bookings {
		guests += booking.NumberOfGuests
		revenue += booking.TotalPrice
		discounts += booking.DiscountAmount
	}

	row := len(bookings) + 4
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("Всего: %d", len(bookings)))
	_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), guests)
	_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), discounts)
	_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), revenue)
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), style)
}

func (e *BookingExporter) experienceTitle(ctx context.Context, cache map[string]string, id string) string {
	if title, ok := cache[id]; ok {
		return title
	}
	experience, err := e.source.GetExperience(ctx, id)
	if err != nil {
		e.logger.Error().Err(err).Str("experience_id", id).Msg("Error getting experience for report")
		cache[id] = id
		return id
	}
	cache[id] = experience.Title
	return experience.Title
}
