package notify

import (
	"context"

	"go.uber.org/zap"
)

// Worker renders and sends queued messages. Failures are logged and dropped.
type Worker struct {
	renderer *Renderer
	mailer   Mailer
	logger   *zap.SugaredLogger
}

// NewWorker creates a worker
func NewWorker(renderer *Renderer, mailer Mailer, logger *zap.SugaredLogger) *Worker {
	return &Worker{renderer: renderer, mailer: mailer, logger: logger}
}

// Handle delivers one message
func (w *Worker) Handle(ctx context.Context, msg Message) error {
	subject, body, err := w.renderer.Render(msg)
	if err != nil {
		w.logger.Errorw("Failed to render notification", "template", msg.Template, "to", msg.To, "error", err)
		return err
	}
	if err := w.mailer.Send(ctx, msg.To, subject, body); err != nil {
		w.logger.Warnw("Failed to send notification", "template", msg.Template, "to", msg.To, "error", err)
		return err
	}
	w.logger.Debugw("Notification sent", "template", msg.Template, "to", msg.To)
	return nil
}

// Run drains msgs until ctx is done or the channel is closed
func (w *Worker) Run(ctx context.Context, msgs <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Notification worker stopped")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("Notification queue closed")
				return
			}
			_ = w.Handle(ctx, msg)
		}
	}
}
