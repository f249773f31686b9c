package bookingapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"romaantica/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", "secret", time.Second)
}

func TestGetAvailableTimeSlots(t *testing.T) {
	t.Run("SlotObjects", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/bookings/available-slots", r.URL.Path)
			assert.Equal(t, "2026-10-15", r.URL.Query().Get("date"))
			assert.Equal(t, "4", r.URL.Query().Get("numberOfGuests"))
			assert.Equal(t, "secret", r.Header.Get("x-api-key"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(`[{"time":"19:30","available":true,"spotsLeft":6},{"time":"20:00","available":false,"spotsLeft":0}]`))
		})

		slots, err := c.GetAvailableTimeSlots(context.Background(), "2026-10-15", 4)
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, "19:30", slots[0].Time)
		require.NotNil(t, slots[0].SpotsLeft)
		assert.Equal(t, 6, *slots[0].SpotsLeft)
		assert.False(t, slots[1].Available)
	})

	t.Run("BareTimes", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`["12:00", "12:30"]`))
		})

		slots, err := c.GetAvailableTimeSlots(context.Background(), "2026-10-15", 2)
		require.NoError(t, err)
		assert.Equal(t, []models.TimeSlot{
			{Time: "12:00", Available: true},
			{Time: "12:30", Available: true},
		}, slots)
	})

	t.Run("Malformed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[42]`))
		})

		_, err := c.GetAvailableTimeSlots(context.Background(), "2026-10-15", 2)
		assert.Error(t, err)
	})
}

func TestCreateBooking(t *testing.T) {
	var keys []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		keys = append(keys, r.Header.Get("X-Idempotency-Key"))

		var draft models.DraftBooking
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, "Mario Rossi", draft.CustomerName)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.BookingRecord{
			ID: 12, CustomerName: draft.CustomerName, Date: draft.Date, Time: draft.Time,
			NumberOfGuests: draft.NumberOfGuests, Status: models.StatusPending,
		})
	})

	draft := models.DraftBooking{
		CustomerName: "Mario Rossi", CustomerEmail: "mario@example.it", CustomerPhone: "3331234567",
		Date: "2026-10-15", Time: "19:30", NumberOfGuests: 4,
	}
	rec, err := c.CreateBooking(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, int64(12), rec.ID)
	assert.Equal(t, models.StatusPending, rec.Status)

	_, err = c.CreateBooking(context.Background(), draft)
	require.NoError(t, err)

	ctx := models.WithIdempotencyKey(context.Background(), "attempt-1")
	_, err = c.CreateBooking(ctx, draft)
	require.NoError(t, err)
	_, err = c.CreateBooking(ctx, draft)
	require.NoError(t, err)

	require.Len(t, keys, 4)
	assert.NotEmpty(t, keys[0])
	assert.NotEqual(t, keys[0], keys[1], "generated per call without a key in ctx")
	assert.Equal(t, "attempt-1", keys[2])
	assert.Equal(t, "attempt-1", keys[3])
}

func TestCreateBookingToleratesResponseBody(t *testing.T) {
	draft := models.DraftBooking{
		CustomerName: "Mario Rossi", CustomerEmail: "mario@example.it", CustomerPhone: "3331234567",
		Date: "2026-10-15", Time: "19:30", NumberOfGuests: 4,
	}

	t.Run("OffsetlessTimestamps", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":31,"date":"2026-10-15","time":"19:30","numberOfGuests":4,"status":"Pending",` +
				`"createdAt":"2026-10-15T19:30:00.1234567","updatedAt":"2026-10-15T19:30:00.1234567"}`))
		})
		rec, err := c.CreateBooking(context.Background(), draft)
		require.NoError(t, err)
		assert.Equal(t, int64(31), rec.ID)
		assert.Equal(t, "2026-10-15T19:30:00.1234567", rec.CreatedAt)
	})

	t.Run("UndecodableBody", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()
		require.NoError(t, mr.Set("romaantica:slots:2026-10-15:4", "[]"))

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`<html>created</html>`))
		})
		c.UseRedisCache(rdb, time.Minute)

		rec, err := c.CreateBooking(context.Background(), draft)
		require.NoError(t, err)
		assert.Equal(t, "Mario Rossi", rec.CustomerName)
		assert.Equal(t, "19:30", rec.Time)
		assert.Equal(t, models.StatusPending, rec.Status)
		assert.False(t, mr.Exists("romaantica:slots:2026-10-15:4"))
	})

	t.Run("EmptyBody", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		rec, err := c.CreateBooking(context.Background(), draft)
		require.NoError(t, err)
		assert.Equal(t, 4, rec.NumberOfGuests)
	})
}

func TestErrors(t *testing.T) {
	t.Run("BodyMessage", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Orario non disponibile"}`))
		})
		_, err := c.CreateBooking(context.Background(), models.DraftBooking{})

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode())
		assert.Equal(t, "Orario non disponibile", apiErr.UserMessage())
	})

	t.Run("ErrorField", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Data nel passato"}`))
		})
		_, err := c.CreateBooking(context.Background(), models.DraftBooking{})

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Data nel passato", apiErr.UserMessage())
	})

	t.Run("StatusTable", func(t *testing.T) {
		tests := []struct {
			status   int
			expected string
		}{
			{http.StatusBadRequest, "Richiesta non valida"},
			{http.StatusUnauthorized, "Sessione scaduta o non autorizzato"},
			{http.StatusForbidden, "Accesso negato"},
			{http.StatusNotFound, "Risorsa non trovata"},
			{http.StatusInternalServerError, "Errore interno del server"},
			{http.StatusBadGateway, ""},
		}
		for _, tt := range tests {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.GetBooking(context.Background(), 1)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr, "status %d", tt.status)
			assert.Equal(t, tt.expected, apiErr.UserMessage(), "status %d", tt.status)
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := NewClient(srv.URL, "", time.Second)

		_, err := c.CreateBooking(context.Background(), models.DraftBooking{})
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 0, apiErr.StatusCode())
		assert.Empty(t, apiErr.UserMessage())
		assert.NotNil(t, errors.Unwrap(apiErr))
	})
}

func TestEndpoints(t *testing.T) {
	type call struct{ method, uri string }
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.RequestURI()})
		switch {
		case r.URL.Path == "/api/bookings/check-availability":
			_, _ = w.Write([]byte(`true`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/bookings/3":
			_, _ = w.Write([]byte(`{"id":3,"status":"Confirmed"}`))
		case r.Method == http.MethodPatch:
			var body models.UpdateBookingStatusRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, models.StatusCancelled, body.Status)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut:
			_, _ = w.Write([]byte(`{"id":3,"time":"21:00"}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
		}
	})
	ctx := context.Background()

	list, err := c.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	rec, err := c.GetBooking(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, rec.Status)

	_, err = c.BookingsByDate(ctx, "2026-10-15")
	require.NoError(t, err)
	_, err = c.BookingsByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	_, err = c.BookingsInRange(ctx, "2026-10-01", "2026-10-31")
	require.NoError(t, err)

	ok, err := c.CheckAvailability(ctx, "2026-10-15", "19:30", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.UpdateBookingStatus(ctx, 3, models.StatusCancelled))
	rec, err = c.UpdateBooking(ctx, 3, models.BookingRecord{ID: 3, Time: "21:00"})
	require.NoError(t, err)
	assert.Equal(t, "21:00", rec.Time)
	require.NoError(t, c.DeleteBooking(ctx, 3))

	assert.Equal(t, []call{
		{http.MethodGet, "/api/bookings"},
		{http.MethodGet, "/api/bookings/3"},
		{http.MethodGet, "/api/bookings/date/2026-10-15"},
		{http.MethodGet, "/api/bookings/status/Pending"},
		{http.MethodGet, "/api/bookings/range?endDate=2026-10-31&startDate=2026-10-01"},
		{http.MethodGet, "/api/bookings/check-availability?date=2026-10-15&numberOfGuests=2&time=19%3A30"},
		{http.MethodPatch, "/api/bookings/3/status"},
		{http.MethodPut, "/api/bookings/3"},
		{http.MethodDelete, "/api/bookings/3"},
	}, calls)
}

func TestSlotCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var slotCalls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"id":1,"date":"2026-10-15"}`))
			return
		}
		slotCalls.Add(1)
		_, _ = w.Write([]byte(`[{"time":"19:30","available":true,"spotsLeft":6}]`))
	})
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		slots, err := c.GetAvailableTimeSlots(ctx, "2026-10-15", 2)
		require.NoError(t, err)
		require.Len(t, slots, 1)
	}
	assert.Equal(t, int32(1), slotCalls.Load())
	assert.True(t, mr.Exists("romaantica:slots:2026-10-15:2"))

	_, err := c.GetAvailableTimeSlots(ctx, "2026-10-16", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), slotCalls.Load())

	_, err = c.CreateBooking(ctx, models.DraftBooking{Date: "2026-10-15", Time: "19:30", NumberOfGuests: 2})
	require.NoError(t, err)
	assert.False(t, mr.Exists("romaantica:slots:2026-10-15:2"))
	assert.True(t, mr.Exists("romaantica:slots:2026-10-16:2"))

	_, err = c.GetAvailableTimeSlots(ctx, "2026-10-15", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), slotCalls.Load())

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("romaantica:slots:2026-10-16:2"))
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	c.UseRateLimit(0.001, 1)

	_, err := c.ListBookings(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ListBookings(ctx)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.StatusCode())
}

func TestPing(t *testing.T) {
	t.Run("AvailableSlotsByDefault", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/bookings/available-slots" && r.URL.Query().Get("date") != "" {
				assert.Equal(t, "secret", r.Header.Get("x-api-key"))
				_, _ = w.Write([]byte(`[]`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		})
		assert.NoError(t, c.Ping(context.Background()))
	})

	t.Run("ConfiguredPath", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		})
		c.SetHealthPath("health")
		assert.NoError(t, c.Ping(context.Background()))

		c.SetHealthPath("/missing")
		var apiErr *Error
		require.ErrorAs(t, c.Ping(context.Background()), &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode())
	})
}
