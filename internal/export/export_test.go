package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wanderbook/internal/database"
	"wanderbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	bookings    []*models.Booking
	experiences map[string]*models.Experience
}

func (f *fakeSource) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return f.bookings, nil
}

func (f *fakeSource) GetExperience(ctx context.Context, id string) (*models.Experience, error) {
	exp, ok := f.experiences[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return exp, nil
}

func TestExportBookings(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	source := &fakeSource{
		bookings: []*models.Booking{
			{
				ID:             "bk-1",
				ExperienceID:   "exp-1",
				CustomerName:   "Alice Rivera",
				CustomerEmail:  "alice@example.com",
				CustomerPhone:  "+15550102030",
				NumberOfGuests: 3,
				PromoCode:      "SAVE10",
				DiscountAmount: 15.00,
				TotalPrice:     135.00,
				Status:         models.StatusConfirmed,
				CreatedAt:      time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			},
			{
				ID:             "bk-2",
				ExperienceID:   "exp-1",
				CustomerName:   "Bob Chen",
				CustomerEmail:  "bob@example.com",
				CustomerPhone:  "+15550102031",
				NumberOfGuests: 2,
				TotalPrice:     100.00,
				Status:         models.StatusConfirmed,
				CreatedAt:      time.Date(2026, 8, 21, 9, 30, 0, 0, time.UTC),
			},
		},
		experiences: map[string]*models.Experience{
			"exp-1": {ID: "exp-1", Title: "Sunset Kayak Tour", Price: 50.00},
		},
	}

	exporter := NewBookingExporter(source, dir, &logger)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	path, err := exporter.ExportBookings(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bookings_2026-08-01_to_2026-08-31.xlsx"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Bookings", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Sunset Kayak Tour", title)

	customer, err := f.GetCellValue("Bookings", "C4")
	require.NoError(t, err)
	assert.Equal(t, "Bob Chen", customer)

	total, err := f.GetCellValue("Bookings", "I3")
	require.NoError(t, err)
	assert.Equal(t, "135", total)
}

func TestExportBookingsDefaultsWindow(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	exporter := NewBookingExporter(&fakeSource{}, dir, &logger)

	path, err := exporter.ExportBookings(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestExportBookingsUnknownExperienceFallsBackToID(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	source := &fakeSource{
		bookings: []*models.Booking{
			{ID: "bk-1", ExperienceID: "exp-missing", CustomerName: "Alice", NumberOfGuests: 1, TotalPrice: 50},
		},
		experiences: map[string]*models.Experience{},
	}

	exporter := NewBookingExporter(source, dir, &logger)

	path, err := exporter.ExportBookings(context.Background(),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Bookings", "B3")
	require.NoError(t, err)
	assert.Equal(t, "exp-missing", title)
}
