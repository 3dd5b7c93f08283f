package notify

import (
	"context"
	"errors"
)

// ErrQueueFull is returned when the in-process buffer is saturated
var ErrQueueFull = errors.New("notification queue full")

// Queue accepts messages for asynchronous delivery
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// ChannelQueue is a buffered in-process Queue drained by Worker.Run
type ChannelQueue struct {
	ch chan Message
}

// NewChannelQueue creates a queue holding up to buffer messages
func NewChannelQueue(buffer int) *ChannelQueue {
	return &ChannelQueue{ch: make(chan Message, buffer)}
}

// Enqueue never blocks. A full buffer drops the message with ErrQueueFull.
func (q *ChannelQueue) Enqueue(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Messages is the receive side for the worker
func (q *ChannelQueue) Messages() <-chan Message {
	return q.ch
}

// Close stops the worker once the buffer drains
func (q *ChannelQueue) Close() {
	close(q.ch)
}
