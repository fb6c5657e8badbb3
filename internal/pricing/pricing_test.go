package pricing

import (
	"testing"

	"ticket-booking-engine/internal/model"
	apperrors "ticket-booking-engine/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitPriceCents(t *testing.T) {
	cases := []struct {
		ticketType model.TicketType
		base       int64
		want       int64
	}{
		{model.TicketTypeGeneral, 5000, 5000},
		{model.TicketTypeVIP, 5000, 10000},
		{model.TicketTypePremium, 5000, 7500},
		{model.TicketTypeEarlyBird, 5000, 4000},
	}

	for _, tc := range cases {
		t.Run(string(tc.ticketType), func(t *testing.T) {
			got, err := UnitPriceCents(tc.base, tc.ticketType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnitPriceCentsUnknownType(t *testing.T) {
	_, err := UnitPriceCents(5000, model.TicketType("balcony"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTotalAmountCents(t *testing.T) {
	assert.Equal(t, int64(15000), TotalAmountCents(7500, 2))
	assert.Equal(t, int64(0), TotalAmountCents(7500, 0))
}
