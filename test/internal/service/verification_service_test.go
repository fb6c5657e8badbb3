package service

import (
	"context"
	"testing"
	"time"

	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/service"
	"ticket-booking-engine/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerificationService(env *testEnv) service.VerificationService {
	return service.NewVerificationService(
		env.bookings,
		env.events,
		token.NewGenerator(env.cfg.VerificationSecret),
	)
}

func TestVerifyPayload(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	env := newTestEnv(t)
	verifier := newVerificationService(env)

	event := createTestEvent(t, env, model.EventStatusActive, time.Now().Add(48*time.Hour), 10)
	booking, err := env.service.Create(ctx, createBookingRequest(event, 2))
	require.NoError(t, err)
	_, err = env.service.Confirm(ctx, booking.BookingID)
	require.NoError(t, err)

	payload, err := env.service.QRPayload(ctx, booking.BookingID)
	require.NoError(t, err)

	t.Run("confirmed booking with a genuine payload is valid", func(t *testing.T) {
		status, summary, err := verifier.VerifyPayload(ctx, payload)
		require.NoError(t, err)

		assert.Equal(t, service.VerificationValid, status)
		require.NotNil(t, summary)
		assert.Equal(t, booking.BookingReference, summary.BookingReference)
		assert.Equal(t, "Test Event", summary.EventName)
		assert.Equal(t, 2, summary.Quantity)
	})

	t.Run("garbage payload is an invalid token", func(t *testing.T) {
		status, summary, err := verifier.VerifyPayload(ctx, "not-a-payload")
		require.NoError(t, err)
		assert.Equal(t, service.VerificationInvalidToken, status)
		assert.Nil(t, summary)
	})

	t.Run("payload forged for another booking is an invalid token", func(t *testing.T) {
		forged, err := token.Encode(token.QRPayload{
			BookingID: uuid.New(),
			UserID:    booking.UserID,
			Token:     "00000000000000000000000000000000",
		})
		require.NoError(t, err)

		status, _, err := verifier.VerifyPayload(ctx, forged)
		require.NoError(t, err)
		assert.Equal(t, service.VerificationInvalidToken, status)
	})

	t.Run("cancelled booking is signed correctly but not usable", func(t *testing.T) {
		_, err := env.service.Cancel(ctx, booking.BookingID, booking.UserID)
		require.NoError(t, err)

		status, summary, err := verifier.VerifyPayload(ctx, payload)
		require.NoError(t, err)
		assert.Equal(t, service.VerificationInvalidState, status)
		assert.Nil(t, summary)
	})
}

func TestVerifyBooking(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	env := newTestEnv(t)
	verifier := newVerificationService(env)

	event := createTestEvent(t, env, model.EventStatusActive, time.Now().Add(48*time.Hour), 10)

	t.Run("confirmed booking verifies by id", func(t *testing.T) {
		booking, err := env.service.Create(ctx, createBookingRequest(event, 1))
		require.NoError(t, err)
		_, err = env.service.Confirm(ctx, booking.BookingID)
		require.NoError(t, err)

		status, summary, err := verifier.VerifyBooking(ctx, booking.BookingID)
		require.NoError(t, err)
		assert.Equal(t, service.VerificationValid, status)
		require.NotNil(t, summary)
		assert.Equal(t, booking.BookingReference, summary.BookingReference)
	})

	t.Run("pending booking has no token yet", func(t *testing.T) {
		booking, err := env.service.Create(ctx, createBookingRequest(event, 1))
		require.NoError(t, err)

		status, _, err := verifier.VerifyBooking(ctx, booking.BookingID)
		require.NoError(t, err)
		assert.Equal(t, service.VerificationInvalidToken, status)
	})

	t.Run("ticket for a cancelled event is not usable", func(t *testing.T) {
		cancelledEvent := createTestEvent(t, env, model.EventStatusActive, time.Now().Add(48*time.Hour), 10)
		booking, err := env.service.Create(ctx, createBookingRequest(cancelledEvent, 1))
		require.NoError(t, err)
		_, err = env.service.Confirm(ctx, booking.BookingID)
		require.NoError(t, err)

		cancelled := model.EventStatusCancelled
		_, err = env.events.Update(ctx, cancelledEvent.ID, model.UpdateEventParams{Status: &cancelled})
		require.NoError(t, err)

		status, _, err := verifier.VerifyBooking(ctx, booking.BookingID)
		require.NoError(t, err)
		assert.Equal(t, service.VerificationInvalidState, status)
	})
}
