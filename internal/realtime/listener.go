// Package realtime maintains the change-notification subscription: a
// websocket feed of company and contact record changes that drives the
// dashboard's debounced refresh cycle.
package realtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/cata32101/odysseus-app/internal/common"
)

// Notifier receives change signals. *syncer.Controller satisfies it.
type Notifier interface {
	Notify()
}

// Event is one change notification from the server. Type is the row-level
// operation (INSERT, UPDATE, DELETE); the listener does not distinguish, any
// event on a watched table triggers the same refresh.
type Event struct {
	Table string `json:"table"`
	Type  string `json:"type"`
}

type subscribeRequest struct {
	Action string   `json:"action"`
	Tables []string `json:"tables"`
}

// Options configures the listener's reconnect behavior.
type Options struct {
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
	// ReconnectDelay is the pause after a dropped connection before the
	// backoff dial sequence starts again.
	ReconnectDelay time.Duration
	Retry          common.RetryOptions
}

// DefaultOptions returns the production reconnect tuning.
func DefaultOptions() Options {
	return Options{
		DialTimeout:    10 * time.Second,
		ReconnectDelay: time.Second,
		Retry: common.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     15 * time.Second,
		},
	}
}

// Listener subscribes to the server's change feed and forwards events for
// the companies and contacts tables to the notifier.
type Listener struct {
	url      string
	token    string
	notifier Notifier
	opts     Options
	tables   map[string]struct{}
}

// New creates a listener for the given websocket endpoint. The token is the
// session's access token; the server rejects unauthenticated subscriptions.
func New(url, token string, notifier Notifier, opts Options) *Listener {
	def := DefaultOptions()
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = def.ReconnectDelay
	}

	return &Listener{
		url:      url,
		token:    token,
		notifier: notifier,
		opts:     opts,
		tables: map[string]struct{}{
			"companies": {},
			"contacts":  {},
		},
	}
}

// Run connects and forwards events until the context is cancelled. A dropped
// connection is re-established with backoff; Run only returns on context
// cancellation or when the dial backoff is exhausted.
func (l *Listener) Run(ctx context.Context) error {
	for {
		conn, err := l.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("realtime subscription failed: %w", err)
		}

		err = l.consume(ctx, conn)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		common.LogDebug("Realtime connection lost, reconnecting", common.Fields{
			"error": err,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.ReconnectDelay):
		}
	}
}

func (l *Listener) connect(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn

	err := common.WithRetry(ctx, func() error {
		dialCtx, cancel := context.WithTimeout(ctx, l.opts.DialTimeout)
		defer cancel()

		header := http.Header{}
		if l.token != "" {
			header.Set("Authorization", "Bearer "+l.token)
		}

		c, _, err := websocket.Dial(dialCtx, l.url, &websocket.DialOptions{
			HTTPHeader: header,
		})
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		conn = c
		return nil
	}, l.opts.Retry)
	if err != nil {
		return nil, err
	}

	sub := subscribeRequest{Action: "subscribe", Tables: l.tableNames()}
	if err := wsjson.Write(ctx, conn, sub); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, fmt.Errorf("sending subscription: %w", err)
	}
	return conn, nil
}

func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) error {
	for {
		var event Event
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			return err
		}

		if _, watched := l.tables[event.Table]; !watched {
			continue
		}
		common.LogDebug("Change notification received", common.Fields{
			"table": event.Table,
			"type":  event.Type,
		})
		l.notifier.Notify()
	}
}

func (l *Listener) tableNames() []string {
	names := make([]string, 0, len(l.tables))
	for name := range l.tables {
		names = append(names, name)
	}
	return names
}
