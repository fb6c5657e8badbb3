package scheduler

import (
	"context"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"go.uber.org/zap"
)

const JobArchiveRecords = "archive_old_records"

// ArchiveRecordsJob flips the archived flag on terminal bookings and
// finished events past the retention window. No semantic state changes,
// only a smaller active working set.
type ArchiveRecordsJob struct {
	bookings repository.BookingRepository
	events   repository.EventRepository
	cfg      config.SchedulerConfig
}

func NewArchiveRecordsJob(
	bookings repository.BookingRepository,
	events repository.EventRepository,
	cfg config.SchedulerConfig,
) *ArchiveRecordsJob {
	return &ArchiveRecordsJob{
		bookings: bookings,
		events:   events,
		cfg:      cfg,
	}
}

func (j *ArchiveRecordsJob) Name() string            { return JobArchiveRecords }
func (j *ArchiveRecordsJob) Interval() time.Duration { return j.cfg.ArchiveInterval }

func (j *ArchiveRecordsJob) Run(ctx context.Context) error {
	before := time.Now().UTC().Add(-j.cfg.RetentionWindow)

	archivedBookings, err := j.bookings.ArchiveOld(ctx, before, j.cfg.BatchSize)
	if err != nil {
		return err
	}
	metrics.SchedulerProcessed.WithLabelValues(j.Name(), "bookings").Add(float64(archivedBookings))

	archivedEvents, err := j.events.ArchiveOld(ctx, before, j.cfg.BatchSize)
	if err != nil {
		return err
	}
	metrics.SchedulerProcessed.WithLabelValues(j.Name(), "events").Add(float64(archivedEvents))

	if archivedBookings > 0 || archivedEvents > 0 {
		logger.WithComponent("scheduler").Info("archived old records",
			zap.Int64("bookings", archivedBookings),
			zap.Int64("events", archivedEvents),
		)
	}

	return nil
}
