package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/auth"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/live"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
	users  *service.UserService
}

func newTestAPI(t *testing.T, limiter *RateLimiter) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemory()
	hub := live.NewHub(logger, nil)
	users := service.NewUserService(store, auth.NewTokens("test-secret", time.Hour), nil, logger)
	h := New(
		users,
		service.NewEventService(store, hub, logger),
		service.NewBookingService(store, hub, logger),
		hub,
		logger,
	)
	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Mount("/api", h.Routes(limiter))
	return &testAPI{t: t, router: r, users: users}
}

// do sends a JSON request and returns the status and body.
func (a *testAPI) do(method, path, token string, body any) (int, string) {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func (a *testAPI) register(name, email, role string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123", "role": role,
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return gjson.Get(body, "token").String()
}

func (a *testAPI) admin() string {
	a.t.Helper()
	_, err := a.users.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "password123")
	require.NoError(a.t, err)
	code, body := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "password123",
	})
	require.Equal(a.t, http.StatusOK, code, body)
	return gjson.Get(body, "token").String()
}

func eventBody(title string, seats int) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "A full day of sessions and talks for practitioners.",
		"category":    "technology",
		"eventDate":   time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"eventTime":   "09:00",
		"location": map[string]string{
			"venue": "Expo Centre", "address": "12 Park Road", "city": "Pune", "country": "India",
		},
		"totalSeats":  seats,
		"price":       40,
		"bannerImage": "https://example.com/b.png",
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)
	code, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", gjson.Get(body, "status").String())
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.admin()
	org := api.register("Olivia Organizer", "olivia@example.com", "organizer")
	attendee := api.register("Arun Attendee", "arun@example.com", "")

	code, body := api.do(http.MethodPost, "/api/events", org, eventBody("Cloud Native Day", 5))
	require.Equal(t, http.StatusCreated, code, body)
	eventID := gjson.Get(body, "id").String()
	assert.Equal(t, "pending", gjson.Get(body, "status").String())
	assert.Equal(t, "cloud-native-day", gjson.Get(body, "slug").String())

	code, body = api.do(http.MethodPost, "/api/events/"+eventID+"/approve", org, nil)
	assert.Equal(t, http.StatusForbidden, code, body)
	code, body = api.do(http.MethodPost, "/api/events/"+eventID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "approved", gjson.Get(body, "status").String())

	code, body = api.do(http.MethodPost, "/api/bookings", attendee, map[string]any{"eventId": eventID, "numberOfSeats": 3})
	require.Equal(t, http.StatusCreated, code, body)
	bookingID := gjson.Get(body, "id").String()
	assert.Equal(t, 120.0, gjson.Get(body, "totalAmount").Float())
	assert.Equal(t, "confirmed", gjson.Get(body, "status").String())
	assert.Regexp(t, `^BK-`, gjson.Get(body, "bookingId").String())

	code, body = api.do(http.MethodPost, "/api/bookings", attendee, map[string]any{"eventId": eventID, "numberOfSeats": 3})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "not enough seats available", gjson.Get(body, "message").String())

	code, body = api.do(http.MethodGet, "/api/events/"+eventID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, gjson.Get(body, "availableSeats").Int())

	code, body = api.do(http.MethodGet, "/api/bookings/me", attendee, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, gjson.Get(body, "#").Int())

	code, body = api.do(http.MethodGet, "/api/events/"+eventID+"/bookings", org, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, bookingID, gjson.Get(body, "0.id").String())

	code, body = api.do(http.MethodPost, "/api/bookings/"+bookingID+"/cancel", attendee, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.True(t, gjson.Get(body, "cancellation.isCancelled").Bool())

	code, body = api.do(http.MethodPost, "/api/bookings/"+bookingID+"/cancel", attendee, map[string]string{"reason": "again"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "booking already cancelled", gjson.Get(body, "message").String())

	code, body = api.do(http.MethodGet, "/api/events/"+eventID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 5, gjson.Get(body, "availableSeats").Int())

	code, body = api.do(http.MethodGet, "/api/users/me", attendee, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, gjson.Get(body, "stats.totalBookings").Int())
	assert.False(t, gjson.Get(body, "passwordHash").Exists())

	code, body = api.do(http.MethodGet, "/api/users/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, gjson.Get(body, "bookings").Int())
	assert.EqualValues(t, 0, gjson.Get(body, "revenue").Float())
}

func TestTicketDownloads(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.admin()
	org := api.register("Olivia Organizer", "olivia@example.com", "organizer")
	attendee := api.register("Arun Attendee", "arun@example.com", "user")

	_, body := api.do(http.MethodPost, "/api/events", org, eventBody("Data Engineering Summit", 10))
	eventID := gjson.Get(body, "id").String()
	api.do(http.MethodPost, "/api/events/"+eventID+"/approve", admin, nil)
	_, body = api.do(http.MethodPost, "/api/bookings", attendee, map[string]any{"eventId": eventID, "numberOfSeats": 1})
	bookingID := gjson.Get(body, "id").String()

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/"+bookingID+"/qr", nil)
	req.Header.Set("Authorization", "Bearer "+attendee)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	req = httptest.NewRequest(http.MethodGet, "/api/bookings/"+bookingID+"/ticket", nil)
	req.Header.Set("Authorization", "Bearer "+attendee)
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestErrorResponses(t *testing.T) {
	api := newTestAPI(t, nil)
	org := api.register("Olivia Organizer", "olivia@example.com", "organizer")
	attendee := api.register("Arun Attendee", "arun@example.com", "user")

	code, body := api.do(http.MethodGet, "/api/bookings/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, gjson.Get(body, "message").String())

	code, _ = api.do(http.MethodGet, "/api/bookings/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = api.do(http.MethodPost, "/api/events", attendee, eventBody("Attendee Event", 10))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, gjson.Get(body, "message").String(), "permission denied")

	bad := eventBody("Bad", 0)
	code, body = api.do(http.MethodPost, "/api/events", org, bad)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, gjson.Get(body, "fields.title").Exists(), body)
	assert.True(t, gjson.Get(body, "fields.totalSeats").Exists(), body)

	code, _ = api.do(http.MethodPost, "/api/events", org, map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.do(http.MethodGet, "/api/events/00000000-0000-0000-0000-000000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "event not found", gjson.Get(body, "message").String())

	code, _ = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Dup", "email": "arun@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "arun@example.com", "password": "nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodGet, "/api/users", attendee, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestEventListing(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.admin()
	org := api.register("Olivia Organizer", "olivia@example.com", "organizer")

	for _, title := range []string{"Kotlin Conf India", "Go Workshop Pune", "Go Workshop Delhi"} {
		code, body := api.do(http.MethodPost, "/api/events", org, eventBody(title, 10))
		require.Equal(t, http.StatusCreated, code, body)
		if title != "Go Workshop Delhi" {
			api.do(http.MethodPost, "/api/events/"+gjson.Get(body, "id").String()+"/approve", admin, nil)
		}
	}

	_, body := api.do(http.MethodGet, "/api/events", "", nil)
	assert.EqualValues(t, 2, gjson.Get(body, "events.#").Int())
	assert.EqualValues(t, 20, gjson.Get(body, "limit").Int())

	_, body = api.do(http.MethodGet, "/api/events?q=workshop&limit=5", "", nil)
	assert.EqualValues(t, 1, gjson.Get(body, "events.#").Int())
	assert.Equal(t, "Go Workshop Pune", gjson.Get(body, "events.0.title").String())

	_, body = api.do(http.MethodGet, "/api/events?q=workshop", org, nil)
	assert.EqualValues(t, 1, gjson.Get(body, "events.#").Int())

	_, me := api.do(http.MethodGet, "/api/users/me", org, nil)
	orgID := gjson.Get(me, "id").String()
	_, body = api.do(http.MethodGet, "/api/events?q=workshop&organizerId="+orgID, org, nil)
	assert.EqualValues(t, 2, gjson.Get(body, "events.#").Int())
}

func TestEventListingOutOfRange(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.admin()
	org := api.register("Olivia Organizer", "olivia@example.com", "organizer")
	code, body := api.do(http.MethodPost, "/api/events", org, eventBody("Rust Meetup Chennai", 10))
	require.Equal(t, http.StatusCreated, code, body)
	api.do(http.MethodPost, "/api/events/"+gjson.Get(body, "id").String()+"/approve", admin, nil)

	tests := []struct {
		name   string
		query  string
		page   int64
		events int64
	}{
		{"huge page", "page=9223372036854775807&limit=100", 10000, 0},
		{"negative page", "page=-4", 1, 1},
		{"malformed organizer", "organizerId=not-a-uuid", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := api.do(http.MethodGet, "/api/events?"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, code, body)
			assert.EqualValues(t, tt.page, gjson.Get(body, "page").Int())
			assert.EqualValues(t, tt.events, gjson.Get(body, "events.#").Int())
		})
	}
}

func TestLogout(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.register("Arun Attendee", "arun@example.com", "user")

	code, _ := api.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthRateLimit(t *testing.T) {
	api := newTestAPI(t, NewRateLimiter(1, 2))
	login := map[string]string{"email": "who@example.com", "password": "whatever1"}

	for range 2 {
		code, _ := api.do(http.MethodPost, "/api/auth/login", "", login)
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	code, body := api.do(http.MethodPost, "/api/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.NotEmpty(t, gjson.Get(body, "message").String())
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, rl.allow("10.0.0.1", t0))
	assert.True(t, rl.allow("10.0.0.2", t0.Add(time.Minute)))
	assert.False(t, rl.allow("10.0.0.2", t0.Add(time.Minute)))

	// Inside the idle window nothing is swept, even for a stale client.
	assert.True(t, rl.allow("10.0.0.3", t0.Add(9*time.Minute)))
	assert.Len(t, rl.visitors, 3)

	assert.True(t, rl.allow("10.0.0.2", t0.Add(11*time.Minute)))
	assert.Len(t, rl.visitors, 2)
	assert.NotContains(t, rl.visitors, "10.0.0.1")
}
