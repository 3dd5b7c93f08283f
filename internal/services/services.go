// Package services contains business logic layers.
// Services are called by handlers and reach the database through repository.Store.
package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/citivoice/complaint-server/internal/notify"
	"go.uber.org/zap"
)

// Links builds the URLs embedded in emails and redirects
type Links struct {
	API      string // public base URL of this server
	Frontend string // base URL of the web client
}

// TrackingURL is the public tracking page for a complaint
func (l Links) TrackingURL(code string) string {
	return l.Frontend + "/track/" + url.PathEscape(code)
}

// VerificationURL is the emailed account verification link
func (l Links) VerificationURL(token, userID string) string {
	return fmt.Sprintf("%s/api/v1/auth/verify/%s/%s", l.API, url.PathEscape(token), url.PathEscape(userID))
}

// ResetURL is the emailed password reset page
func (l Links) ResetURL(token, userID string) string {
	q := url.Values{"token": {token}, "userId": {userID}}
	return l.Frontend + "/reset/new?" + q.Encode()
}

// VerificationRedirect is where the verify endpoint sends the browser
func (l Links) VerificationRedirect(ok bool) string {
	if ok {
		return l.Frontend + "/verification/success"
	}
	return l.Frontend + "/verification/failed"
}

// dispatch hands messages to the queue once the owning transaction has
// committed. Enqueue failures are logged and never returned.
func dispatch(ctx context.Context, q notify.Queue, logger *zap.SugaredLogger, msgs ...notify.Message) {
	for _, msg := range msgs {
		if err := q.Enqueue(context.WithoutCancel(ctx), msg); err != nil {
			logger.Warnw("Failed to enqueue notification", "template", msg.Template, "to", msg.To, "error", err)
		}
	}
}

func logoOrDefault(logo string) string {
	if logo == "" {
		return notify.DefaultLogoURL
	}
	return logo
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
