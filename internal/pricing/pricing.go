package pricing

import (
	"ticket-booking-engine/internal/model"
	apperrors "ticket-booking-engine/pkg/app_errors"
)

// Price multipliers per ticket type, expressed in percent so that all
// monetary arithmetic stays in integer cents.
var multiplierPct = map[model.TicketType]int64{
	model.TicketTypeGeneral:   100,
	model.TicketTypeVIP:       200,
	model.TicketTypePremium:   150,
	model.TicketTypeEarlyBird: 80,
}

// UnitPriceCents computes the per-ticket price for a ticket type from the
// event base price.
func UnitPriceCents(basePriceCents int64, ticketType model.TicketType) (int64, error) {
	pct, ok := multiplierPct[ticketType]
	if !ok {
		return 0, apperrors.ErrInvalidInput
	}
	return basePriceCents * pct / 100, nil
}

// TotalAmountCents computes the immutable booking total.
func TotalAmountCents(unitPriceCents int64, quantity int) int64 {
	return unitPriceCents * int64(quantity)
}
