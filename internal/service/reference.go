package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
)

// newBookingReference builds the human-shown reference: a date component
// plus a random suffix. Uniqueness is ultimately enforced by the unique
// constraint on bookings.booking_reference.
func newBookingReference(now time.Time) string {
	suffix := strings.ToUpper(shortuuid.New()[:8])
	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("060102"), suffix)
}
