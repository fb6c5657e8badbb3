package queue

import (
	"context"
	"ticket-booking-engine/internal/model"
)

type Delivery struct {
	Data *model.Notification
	Ack  func()
	Nack func(requeue bool)
}

// NotificationQueue decouples the inventory-mutating transaction from
// notification dispatch. Publishing is best-effort: the engine logs a
// publish failure and moves on, it never fails the booking operation.
type NotificationQueue interface {
	Publish(ctx context.Context, n *model.Notification) error
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

// MemoryNotificationQueue is a channel-backed queue used by tests and by
// deployments without Redis.
type MemoryNotificationQueue struct {
	ch chan *model.Notification
}

func NewMemoryNotificationQueue(bufferSize int) *MemoryNotificationQueue {
	return &MemoryNotificationQueue{
		ch: make(chan *model.Notification, bufferSize),
	}
}

func (q *MemoryNotificationQueue) Publish(ctx context.Context, n *model.Notification) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryNotificationQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: n,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- n
						}
					},
				}
			}
		}
	}()

	return out, nil
}
