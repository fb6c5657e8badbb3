package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/cache"
	"ticket-booking-engine/internal/handler"
	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/internal/service"
	"ticket-booking-engine/internal/token"
	"ticket-booking-engine/test/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB  *pgxpool.Pool
	testRdb *redis.Client
)

func TestMain(m *testing.M) {
	db, rdb, cleanup, err := testutil.Setup()
	if err != nil {
		log.Printf("skipping integration tests: %v", err)
		os.Exit(0)
	}
	testDB = db
	testRdb = rdb

	code := m.Run()

	cleanup()
	os.Exit(code)
}

func setupIntegrationTest(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	ctx := context.Background()

	cleanupDB(ctx, t)
	cleanupRedis(ctx, t)

	cfg := config.LoadTestConfig()

	bookingRepo := repository.NewBookingRepository(testDB)
	eventRepo := repository.NewEventRepository(testDB)
	statsCache := cache.NewStatsCache(testRdb, cfg.Booking.StatsCacheTTL)
	notifyQ := queue.NewMemoryNotificationQueue(100)
	tokens := token.NewGenerator(cfg.Booking.VerificationSecret)

	bookingService := service.NewBookingService(testDB, bookingRepo, eventRepo, tokens, notifyQ, statsCache, cfg.Booking)
	eventService := service.NewEventService(eventRepo)
	verificationService := service.NewVerificationService(bookingRepo, eventRepo, tokens)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewBookingHandler(bookingService).RegisterRoutes(router)
	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewVerificationHandler(verificationService).RegisterRoutes(router)

	cleanup := func() {
		cleanupDB(ctx, t)
		cleanupRedis(ctx, t)
	}

	return router, cleanup
}

func cleanupDB(ctx context.Context, t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(ctx, "TRUNCATE events, bookings RESTART IDENTITY CASCADE")
	if err != nil {
		t.Logf("Warning: failed to truncate tables: %v", err)
	}
}

func cleanupRedis(ctx context.Context, t *testing.T) {
	t.Helper()
	if err := testRdb.FlushDB(ctx).Err(); err != nil {
		t.Logf("Warning: failed to flush redis: %v", err)
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, url string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req, _ = http.NewRequest(method, url, bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestBookingLifecycle(t *testing.T) {
	router, cleanup := setupIntegrationTest(t)
	defer cleanup()

	organizerID := uuid.New()
	userID := uuid.New()

	// Organizer publishes an event.
	var event model.Event
	w := doJSON(t, router, "POST", "/api/v1/events", model.CreateEventRequest{
		OrganizerID:    organizerID,
		Name:           "Integration Concert",
		StartsAt:       time.Now().Add(72 * time.Hour),
		BasePriceCents: 5000,
		TotalTickets:   100,
	}, &event)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "PUT", "/api/v1/events/"+event.EventID.String(),
		map[string]string{"status": "active"}, &event)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, model.EventStatusActive, event.Status)

	// Customer books two tickets.
	var booking model.Booking
	w = doJSON(t, router, "POST", "/api/v1/bookings", model.CreateBookingRequest{
		EventID:       event.EventID,
		UserID:        userID,
		CustomerName:  "Integration Customer",
		CustomerEmail: "customer@test.com",
		Quantity:      2,
		TicketType:    model.TicketTypeVIP,
	}, &booking)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, int64(20000), booking.TotalAmountCents)

	// Payment completes, booking confirms.
	w = doJSON(t, router, "PUT", "/api/v1/bookings/"+booking.BookingID.String()+"/confirm", nil, &booking)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)

	// The QR payload verifies at the gate.
	var qr struct {
		QRPayload string `json:"qr_payload"`
	}
	w = doJSON(t, router, "GET", "/api/v1/bookings/"+booking.BookingID.String()+"/qr", nil, &qr)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, qr.QRPayload)

	var verdict struct {
		Status string                 `json:"status"`
		Ticket map[string]interface{} `json:"ticket"`
	}
	w = doJSON(t, router, "POST", "/api/v1/tickets/verify",
		map[string]string{"qr_payload": qr.QRPayload}, &verdict)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "valid", verdict.Status)

	// Inventory reflects the sale.
	var listed model.Event
	w = doJSON(t, router, "GET", "/api/v1/events/"+event.EventID.String(), nil, &listed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, listed.TicketsSold)

	// Customer cancels well ahead of the event: full refund, tickets back.
	var cancelResp struct {
		Booking           model.Booking `json:"booking"`
		RefundAmountCents int64         `json:"refund_amount_cents"`
	}
	w = doJSON(t, router, "PUT", "/api/v1/bookings/"+booking.BookingID.String()+"/cancel",
		model.CancelBookingRequest{ActorID: userID}, &cancelResp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.BookingStatusCancelled, cancelResp.Booking.Status)
	assert.Equal(t, int64(20000), cancelResp.RefundAmountCents)

	w = doJSON(t, router, "GET", "/api/v1/events/"+event.EventID.String(), nil, &listed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, listed.TicketsSold)

	// The cancelled ticket no longer verifies.
	w = doJSON(t, router, "POST", "/api/v1/tickets/verify",
		map[string]string{"qr_payload": qr.QRPayload}, &verdict)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "invalid-state", verdict.Status)
}

func TestBookingOversellRejected(t *testing.T) {
	router, cleanup := setupIntegrationTest(t)
	defer cleanup()

	var event model.Event
	w := doJSON(t, router, "POST", "/api/v1/events", model.CreateEventRequest{
		OrganizerID:    uuid.New(),
		Name:           "Tiny Venue",
		StartsAt:       time.Now().Add(48 * time.Hour),
		BasePriceCents: 5000,
		TotalTickets:   3,
	}, &event)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "PUT", "/api/v1/events/"+event.EventID.String(),
		map[string]string{"status": "active"}, &event)
	require.Equal(t, http.StatusOK, w.Code)

	book := func(quantity int) *httptest.ResponseRecorder {
		return doJSON(t, router, "POST", "/api/v1/bookings", model.CreateBookingRequest{
			EventID:       event.EventID,
			UserID:        uuid.New(),
			CustomerName:  "Integration Customer",
			CustomerEmail: "customer@test.com",
			Quantity:      quantity,
			TicketType:    model.TicketTypeGeneral,
		}, nil)
	}

	require.Equal(t, http.StatusCreated, book(2).Code)

	resp := book(2)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "tickets left")

	require.Equal(t, http.StatusCreated, book(1).Code)

	var listed model.Event
	w = doJSON(t, router, "GET", "/api/v1/events/"+event.EventID.String(), nil, &listed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, listed.TicketsSold)
	assert.Equal(t, 0, listed.AvailableTickets())
}
