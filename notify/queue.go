package notify

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/internal/queue"
	"go.uber.org/zap"
)

// ErrNotQueued is returned by Queue.Send when the buffer is full or the queue is closed.
var ErrNotQueued = errors.New("notification not queued")

// QueueConfig sizes the notification buffer.
type QueueConfig struct {
	BufferSize int
	DropIfFull bool
}

// Queue sends messages asynchronously through an underlying Sender. Delivery
// errors are logged and not retried.
type Queue struct {
	dispatcher *queue.Dispatcher[Message]
}

func NewQueue(cfg QueueConfig, sender Sender, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = NewLogSender(logger)
	}
	return &Queue{
		dispatcher: queue.New(queue.Config{
			BufferSize: cfg.BufferSize,
			DropIfFull: cfg.DropIfFull,
		}, func(ctx context.Context, msg Message) {
			if err := sender.Send(ctx, msg); err != nil {
				logger.Warn("notification delivery failed",
					zap.Strings("to", msg.To),
					zap.String("subject", msg.Subject),
					zap.Error(err),
				)
			}
		}),
	}
}

// Send enqueues msg and returns without waiting for delivery.
func (q *Queue) Send(ctx context.Context, msg Message) error {
	if !q.dispatcher.Enqueue(ctx, msg) {
		return ErrNotQueued
	}
	return nil
}

// Dropped reports how many messages were discarded because the buffer was full.
func (q *Queue) Dropped() uint64 {
	return q.dispatcher.Dropped()
}

// Close drains pending messages.
func (q *Queue) Close() {
	q.dispatcher.Close()
}
