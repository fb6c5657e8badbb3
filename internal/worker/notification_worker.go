package worker

import (
	"context"

	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"go.uber.org/zap"
)

// Notifier is the external delivery collaborator (email/SMS). Content and
// formatting are its concern, not the engine's.
type Notifier interface {
	Send(ctx context.Context, n *model.Notification) error
}

// LogNotifier records deliveries in the log; the default when no real
// delivery backend is wired.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, n *model.Notification) error {
	logger.WithComponent("notifier").Info("notification dispatched",
		zap.String("kind", string(n.Kind)),
		zap.String("booking_reference", n.BookingReference),
		zap.String("recipient", n.Recipient),
	)
	return nil
}

type NotificationWorker interface {
	Start(ctx context.Context) error
}

type NotificationWorkerImpl struct {
	notifier Notifier
	queue    queue.NotificationQueue
}

func NewNotificationWorker(notifier Notifier, queue queue.NotificationQueue) NotificationWorker {
	return &NotificationWorkerImpl{
		notifier: notifier,
		queue:    queue,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			err := w.notifier.Send(ctx, msg.Data)

			if err != nil {
				logger.WithComponent("worker").Warn("notification send failed, will retry",
					zap.String("booking_reference", msg.Data.BookingReference),
					zap.Error(err),
				)
				metrics.NotificationMessages.WithLabelValues("send", "error").Inc()
				msg.Nack(true)
			} else {
				metrics.NotificationMessages.WithLabelValues("send", "ok").Inc()
				msg.Ack()
			}
		}
	}()
	return nil
}
