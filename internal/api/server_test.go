package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"wanderbook/internal/config"
	"wanderbook/internal/database"
	"wanderbook/internal/models"
	"wanderbook/internal/repository"
	"wanderbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

func int64ptr(v int64) *int64 { return &v }

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := t.Context()
	tomorrow := time.Now().AddDate(0, 0, 1)

	require.NoError(t, db.SeedCatalog(ctx,
		[]models.Experience{
			{ID: "exp-1", Title: "Sunset Kayak Tour", Location: "Lisbon", Category: "water", Price: 50.00},
		},
		[]models.Slot{
			{ID: "slot-1", ExperienceID: "exp-1", Date: tomorrow, Time: "18:00", TotalSpots: 10, AvailableSpots: 5},
		},
	))
	require.NoError(t, db.SeedPromos(ctx, []models.PromoCode{
		{
			ID:            "promo-1",
			Code:          "SAVE10",
			DiscountType:  models.DiscountPercentage,
			DiscountValue: 10,
			ValidFrom:     time.Now().AddDate(0, -1, 0),
			ValidUntil:    time.Now().AddDate(0, 1, 0),
			MaxUses:       int64ptr(100),
			IsActive:      true,
		},
	}))

	cfg := config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: testAPIKey, Name: "test"},
			},
		},
	}

	stateRepo := repository.NewMemoryStateRepository(time.Hour)
	catalog := service.NewCatalogService(db, 14, &logger)
	promos := service.NewPromoService(db, true, &logger)
	bookings := service.NewBookingService(db, promos, nil, nil, 1, 20, &logger)
	checkout := service.NewCheckoutService(stateRepo, 100, 60, &logger)

	return NewServer(cfg, catalog, promos, bookings, checkout, &logger), db
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("x-api-key", testAPIKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func validBookingBody() map[string]any {
	return map[string]any{
		"slot_id":          "slot-1",
		"experience_id":    "exp-1",
		"customer_name":    "Alice Rivera",
		"customer_email":   "alice@example.com",
		"customer_phone":   "+1 555 010 2030",
		"number_of_guests": 3,
	}
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	t.Run("MissingKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/experiences", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/experiences", nil)
		req.Header.Set("x-api-key", "wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("HealthzOpen", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestExperienceEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	t.Run("List", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Experiences []models.Experience `json:"experiences"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Experiences, 1)
		assert.Equal(t, "Sunset Kayak Tour", resp.Experiences[0].Title)
	})

	t.Run("Search", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences?q=kayak", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Experiences []models.Experience `json:"experiences"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Experiences, 1)
	})

	t.Run("SearchNoMatch", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences?q=volcano", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Experiences []models.Experience `json:"experiences"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Experiences)
	})

	t.Run("Detail", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences/exp-1", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var exp models.Experience
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exp))
		assert.Equal(t, "exp-1", exp.ID)
	})

	t.Run("DetailNotFound", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Slots", func(t *testing.T) {
		date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences/exp-1/slots?date="+date, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Slots []models.Slot `json:"slots"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Slots, 1)
		assert.Equal(t, int64(5), resp.Slots[0].AvailableSpots)
	})

	t.Run("SlotsMissingDate", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences/exp-1/slots", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Availability", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/experiences/exp-1/availability?days=3", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Availability []models.DayAvailability `json:"availability"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Availability, 3)
	})
}

func TestValidatePromoEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	t.Run("ValidWithQuote", func(t *testing.T) {
		body := map[string]any{"code": "save10", "experience_id": "exp-1", "guests": 3}
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/promos/validate", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp validatePromoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, "valid", resp.Verdict)
		require.NotNil(t, resp.Quote)
		assert.Equal(t, 150.00, resp.Quote.Base)
		assert.Equal(t, 15.00, resp.Quote.Discount)
		assert.Equal(t, 135.00, resp.Quote.Total)
	})

	t.Run("Unknown", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/promos/validate", map[string]any{"code": "NOPE"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp validatePromoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Valid)
		assert.Equal(t, "not_found", resp.Verdict)
	})

	t.Run("MissingCode", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/promos/validate", map[string]any{}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBookingEndpoints(t *testing.T) {
	srv, db := newTestServer(t)
	handler := srv.Routes()
	ctx := t.Context()

	t.Run("Create", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", validBookingBody(), nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var booking models.Booking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, 150.00, booking.TotalPrice)

		slot, err := db.GetSlot(ctx, "slot-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), slot.AvailableSpots)

		// Confirmation read model
		rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings/"+booking.ID, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var details models.BookingDetails
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
		assert.Equal(t, booking.ID, details.Booking.ID)
		assert.Equal(t, "Sunset Kayak Tour", details.Experience.Title)
		assert.Equal(t, "slot-1", details.Slot.ID)
	})

	t.Run("IdempotentReplay", func(t *testing.T) {
		headers := map[string]string{"Idempotency-Key": "key-replay"}
		body := validBookingBody()
		body["number_of_guests"] = 1

		first := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", body, headers)
		require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
		var b1 models.Booking
		require.NoError(t, json.Unmarshal(first.Body.Bytes(), &b1))

		second := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", body, headers)
		require.Equal(t, http.StatusCreated, second.Code)
		var b2 models.Booking
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b2))

		assert.Equal(t, b1.ID, b2.ID)

		slot, err := db.GetSlot(ctx, "slot-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), slot.AvailableSpots)
	})

	t.Run("InsufficientCapacity", func(t *testing.T) {
		body := validBookingBody()
		body["number_of_guests"] = 20

		rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", body, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("ValidationError", func(t *testing.T) {
		body := validBookingBody()
		body["customer_email"] = "nope"

		rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("PromoRejected", func(t *testing.T) {
		body := validBookingBody()
		body["number_of_guests"] = 1
		body["promo_code"] = "NOPE"

		rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", body, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "not_found", resp["verdict"])
	})

	t.Run("GetNotFound", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings/missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCheckoutEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	start := map[string]any{"experience_id": "exp-1", "slot_id": "slot-1", "guests": 2}
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/checkout", start, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var state models.CheckoutState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotEmpty(t, state.SessionID)

	path := fmt.Sprintf("/api/v1/checkout/%s", state.SessionID)

	t.Run("Get", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Patch", func(t *testing.T) {
		patch := map[string]any{"promo_code": "SAVE10", "customer_name": "Alice"}
		rec := doRequest(t, handler, http.MethodPatch, path, patch, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated models.CheckoutState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "SAVE10", updated.PromoCode)
		assert.Equal(t, "Alice", updated.CustomerName)
		assert.Equal(t, int64(2), updated.Guests)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := doRequest(t, handler, http.MethodDelete, path, nil, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(t, handler, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
