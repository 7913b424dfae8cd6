package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cata32101/odysseus-app/internal/common"
)

type countingNotifier struct {
	count atomic.Int64
}

func (n *countingNotifier) Notify() {
	n.count.Add(1)
}

func fastOptions() Options {
	return Options{
		DialTimeout:    time.Second,
		ReconnectDelay: 10 * time.Millisecond,
		Retry: common.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     50 * time.Millisecond,
		},
	}
}

func TestListener_ForwardsWatchedTableEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		var sub subscribeRequest
		require.NoError(t, wsjson.Read(r.Context(), conn, &sub))
		assert.Equal(t, "subscribe", sub.Action)
		assert.ElementsMatch(t, []string{"companies", "contacts"}, sub.Tables)

		for _, event := range []Event{
			{Table: "companies", Type: "UPDATE"},
			{Table: "audit_log", Type: "INSERT"},
			{Table: "contacts", Type: "INSERT"},
		} {
			require.NoError(t, wsjson.Write(r.Context(), conn, event))
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	notifier := &countingNotifier{}
	listener := New(server.URL, "token-1", notifier, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	require.Eventually(t, func() bool {
		return notifier.count.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)

	// The unwatched table never triggers a notification.
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 2, notifier.count.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on cancellation")
	}
}

func TestListener_ReconnectsAfterDrop(t *testing.T) {
	var sessions atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)

		var sub subscribeRequest
		require.NoError(t, wsjson.Read(r.Context(), conn, &sub))

		n := sessions.Add(1)
		require.NoError(t, wsjson.Write(r.Context(), conn, Event{Table: "companies", Type: "UPDATE"}))
		if n == 1 {
			// Drop the first connection to force a reconnect.
			conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	notifier := &countingNotifier{}
	listener := New(server.URL, "token-1", notifier, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sessions.Load() >= 2 && notifier.count.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestListener_GivesUpWhenDialBackoffExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	listener := New(server.URL, "token-1", &countingNotifier{}, fastOptions())

	err := listener.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "realtime subscription failed")
}
