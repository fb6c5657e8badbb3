package service

import (
	"context"
	"time"

	"ticket-booking-engine/internal/cache"
	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type StatsService interface {
	// OrganizerStats returns the dashboard aggregates, served from the TTL
	// cache when fresh.
	OrganizerStats(ctx context.Context, organizerID uuid.UUID) (*cache.OrganizerStats, error)
}

type StatsServiceImpl struct {
	bookings   repository.BookingRepository
	statsCache cache.StatsCache
}

func NewStatsService(bookings repository.BookingRepository, statsCache cache.StatsCache) StatsService {
	return &StatsServiceImpl{
		bookings:   bookings,
		statsCache: statsCache,
	}
}

func (s *StatsServiceImpl) OrganizerStats(ctx context.Context, organizerID uuid.UUID) (*cache.OrganizerStats, error) {
	cached, err := s.statsCache.Get(ctx, organizerID)
	if err != nil {
		// A cache failure degrades to a DB read, it never fails the request.
		logger.WithComponent("stats").Warn("stats cache read failed", zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	bookings, err := s.bookings.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	byStatus := lo.GroupBy(bookings, func(b *model.Booking) string {
		return string(b.Status)
	})

	holding := lo.Filter(bookings, func(b *model.Booking, _ int) bool {
		return b.Status.HoldsInventory()
	})

	stats := &cache.OrganizerStats{
		OrganizerID: organizerID,
		BookingsByStatus: lo.MapValues(byStatus, func(group []*model.Booking, _ string) int {
			return len(group)
		}),
		TicketsSold: lo.SumBy(holding, func(b *model.Booking) int {
			return b.Quantity
		}),
		GrossRevenueCents: lo.SumBy(holding, func(b *model.Booking) int64 {
			return b.TotalAmountCents
		}),
		RefundedCents: lo.SumBy(bookings, func(b *model.Booking) int64 {
			if b.RefundProcessedAt != nil {
				return b.RefundAmountCents
			}
			return 0
		}),
		ComputedAt: time.Now().UTC(),
	}

	if err := s.statsCache.Set(ctx, stats); err != nil {
		logger.WithComponent("stats").Warn("stats cache write failed", zap.Error(err))
	}

	return stats, nil
}
