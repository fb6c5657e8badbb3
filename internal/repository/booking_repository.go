package repository

import (
	"context"
	"fmt"
	"time"

	"ticket-booking-engine/internal/model"
	apperrors "ticket-booking-engine/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CancelParams carries the terminal fields written by a cancellation.
type CancelParams struct {
	Reason         model.CancelReason
	RefundCents    int64
	FeeCents       int64
	AwaitingRefund bool
}

type BookingRepository interface {
	FindByID(ctx context.Context, id int) (*model.Booking, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	FindByReference(ctx context.Context, reference string) (*model.Booking, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Booking, error)
	ListByEventID(ctx context.Context, eventID int) ([]*model.Booking, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*model.Booking, error)

	// Scheduler scans, each bounded by limit.
	ListExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Booking, error)
	ListAwaitingRefund(ctx context.Context, limit int) ([]*model.Booking, error)
	ListUnsentConfirmations(ctx context.Context, limit int) ([]*model.Booking, error)
	ListDueReminders(ctx context.Context, startsBefore time.Time, limit int) ([]*model.Booking, error)
	ClaimConfirmationSent(ctx context.Context, id int) (bool, error)
	ClaimReminderSent(ctx context.Context, id int) (bool, error)
	ArchiveOld(ctx context.Context, before time.Time, limit int) (int64, error)

	// Transaction methods. Status transitions are conditional on the
	// current status so that a concurrent scheduler and user action can
	// never both apply their effect.
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	ConfirmIfPending(ctx context.Context, tx pgx.Tx, id int, qrToken string) (*model.Booking, error)
	CancelIfStatus(ctx context.Context, tx pgx.Tx, id int, from model.BookingStatus, params CancelParams) (*model.Booking, error)
	MarkRefundProcessed(ctx context.Context, tx pgx.Tx, id int, refundCents, feeCents int64) (*model.Booking, error)
}

const bookingColumns = `id, booking_id, booking_reference, event_id, user_id,
		customer_name, customer_email, quantity, ticket_type,
		unit_price_cents, total_amount_cents, status, cancel_reason,
		confirmed_at, cancelled_at, refund_processed_at,
		refund_amount_cents, cancellation_fee_cents, awaiting_refund,
		qr_token, confirmation_sent_at, reminder_sent_at,
		archived, created_at, updated_at`

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.BookingID,
		&b.BookingReference,
		&b.EventID,
		&b.UserID,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.Quantity,
		&b.TicketType,
		&b.UnitPriceCents,
		&b.TotalAmountCents,
		&b.Status,
		&b.CancelReason,
		&b.ConfirmedAt,
		&b.CancelledAt,
		&b.RefundProcessedAt,
		&b.RefundAmountCents,
		&b.CancellationFeeCents,
		&b.AwaitingRefund,
		&b.QRToken,
		&b.ConfirmationSentAt,
		&b.ReminderSentAt,
		&b.Archived,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepositoryImpl) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	query := fmt.Sprintf(`
		INSERT INTO bookings (
			booking_id, booking_reference, event_id, user_id,
			customer_name, customer_email, quantity, ticket_type,
			unit_price_cents, total_amount_cents, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`, bookingColumns)

	created, err := scanBooking(tx.QueryRow(ctx, query,
		booking.BookingID, booking.BookingReference, booking.EventID, booking.UserID,
		booking.CustomerName, booking.CustomerEmail, booking.Quantity, booking.TicketType,
		booking.UnitPriceCents, booking.TotalAmountCents, booking.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return created, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE id = $1
	`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepositoryImpl) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE booking_id = $1
	`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, bookingID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepositoryImpl) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE booking_reference = $1
	`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepositoryImpl) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE user_id = $1 AND archived = FALSE
		ORDER BY created_at DESC
	`, bookingColumns)

	return r.queryBookings(ctx, query, userID)
}

func (r *BookingRepositoryImpl) ListByEventID(ctx context.Context, eventID int) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE event_id = $1 AND archived = FALSE
		ORDER BY created_at DESC
	`, bookingColumns)

	return r.queryBookings(ctx, query, eventID)
}

func (r *BookingRepositoryImpl) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE event_id IN (SELECT id FROM events WHERE organizer_id = $1)
		  AND archived = FALSE
		ORDER BY created_at DESC
	`, bookingColumns)

	return r.queryBookings(ctx, query, organizerID)
}

func (r *BookingRepositoryImpl) ListExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, bookingColumns)

	return r.queryBookings(ctx, query, olderThan, limit)
}

func (r *BookingRepositoryImpl) ListAwaitingRefund(ctx context.Context, limit int) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE status = 'cancelled'
		  AND awaiting_refund = TRUE
		  AND refund_processed_at IS NULL
		ORDER BY cancelled_at ASC
		LIMIT $1
	`, bookingColumns)

	return r.queryBookings(ctx, query, limit)
}

func (r *BookingRepositoryImpl) ListUnsentConfirmations(ctx context.Context, limit int) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE status = 'confirmed' AND confirmation_sent_at IS NULL
		ORDER BY confirmed_at ASC
		LIMIT $1
	`, bookingColumns)

	return r.queryBookings(ctx, query, limit)
}

func (r *BookingRepositoryImpl) ListDueReminders(ctx context.Context, startsBefore time.Time, limit int) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings b
		WHERE b.status = 'confirmed'
		  AND b.reminder_sent_at IS NULL
		  AND b.event_id IN (
			SELECT id FROM events
			WHERE status = 'active' AND starts_at > NOW() AND starts_at < $1
		  )
		ORDER BY b.confirmed_at ASC
		LIMIT $2
	`, bookingColumns)

	return r.queryBookings(ctx, query, startsBefore, limit)
}

// ClaimConfirmationSent stamps confirmation_sent_at only if it is still
// unset; the boolean result is the exactly-once guard for dispatch.
func (r *BookingRepositoryImpl) ClaimConfirmationSent(ctx context.Context, id int) (bool, error) {
	query := `
		UPDATE bookings
		SET confirmation_sent_at = $1, updated_at = $1
		WHERE id = $2 AND confirmation_sent_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *BookingRepositoryImpl) ClaimReminderSent(ctx context.Context, id int) (bool, error) {
	query := `
		UPDATE bookings
		SET reminder_sent_at = $1, updated_at = $1
		WHERE id = $2 AND reminder_sent_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *BookingRepositoryImpl) ConfirmIfPending(ctx context.Context, tx pgx.Tx, id int, qrToken string) (*model.Booking, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = 'confirmed', confirmed_at = $1, qr_token = $2, updated_at = $1
		WHERE id = $3 AND status = 'pending'
		RETURNING %s
	`, bookingColumns)

	booking, err := scanBooking(tx.QueryRow(ctx, query, now, qrToken, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrInvalidTransition
		}
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) CancelIfStatus(ctx context.Context, tx pgx.Tx, id int, from model.BookingStatus, params CancelParams) (*model.Booking, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = $1,
			cancel_reason = $2,
			refund_amount_cents = $3,
			cancellation_fee_cents = $4,
			awaiting_refund = $5,
			updated_at = $1
		WHERE id = $6 AND status = $7
		RETURNING %s
	`, bookingColumns)

	booking, err := scanBooking(tx.QueryRow(ctx, query,
		now, params.Reason, params.RefundCents, params.FeeCents, params.AwaitingRefund,
		id, from,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrInvalidTransition
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) MarkRefundProcessed(ctx context.Context, tx pgx.Tx, id int, refundCents, feeCents int64) (*model.Booking, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = CASE WHEN $1::bigint > 0 THEN 'refunded' ELSE status END,
			refund_amount_cents = $1,
			cancellation_fee_cents = $2,
			refund_processed_at = $3,
			awaiting_refund = FALSE,
			updated_at = $3
		WHERE id = $4
		  AND status = 'cancelled'
		  AND awaiting_refund = TRUE
		RETURNING %s
	`, bookingColumns)

	booking, err := scanBooking(tx.QueryRow(ctx, query, refundCents, feeCents, now, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrInvalidTransition
		}
		return nil, fmt.Errorf("failed to mark refund processed: %w", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) ArchiveOld(ctx context.Context, before time.Time, limit int) (int64, error) {
	query := `
		UPDATE bookings
		SET archived = TRUE, updated_at = $1
		WHERE id IN (
			SELECT id FROM bookings
			WHERE archived = FALSE
			  AND status IN ('cancelled', 'refunded')
			  AND updated_at < $2
			LIMIT $3
		)
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), before, limit)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
