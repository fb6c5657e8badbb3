package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/test/internal/testutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	var cleanup func()
	var err error

	testDB, cleanup, err = testutil.SetupDatabaseOnly()
	if err != nil {
		log.Printf("skipping repository tests: %v", err)
		os.Exit(0)
	}

	log.Println("Running repository tests...")

	code := m.Run()

	cleanup()
	os.Exit(code)
}

func setupTestWithTruncate(t *testing.T) func() {
	t.Helper()
	ctx := context.Background()

	_, err := testDB.Exec(ctx, "TRUNCATE events, bookings RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return func() {}
}

func getTestDB() *pgxpool.Pool {
	if testDB == nil {
		panic("testDB is not initialized. Make sure TestMain has run.")
	}
	return testDB
}

func createTestEvent(t *testing.T, status model.EventStatus, startsAt time.Time, totalTickets, ticketsSold int) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO events (event_id, organizer_id, name, status, starts_at,
			base_price_cents, total_tickets, tickets_sold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query,
		uuid.New(), uuid.New(), "Test Event", status, startsAt, 5000, totalTickets, ticketsSold,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return id
}

func createTestBooking(t *testing.T, eventID int, status model.BookingStatus, quantity int, createdAt time.Time) int {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO bookings (booking_id, booking_reference, event_id, user_id,
			customer_name, customer_email, quantity, ticket_type,
			unit_price_cents, total_amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int
	err := testDB.QueryRow(ctx, query,
		uuid.New(), "BK-TEST-"+uuid.New().String()[:8], eventID, uuid.New(),
		"Test Customer", "customer@test.com", quantity, model.TicketTypeGeneral,
		5000, int64(5000*quantity), status, createdAt,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test booking: %v", err)
	}

	return id
}
