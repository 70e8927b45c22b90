package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name string
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifyFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, []string{EventTradeExecuted}, slog.Default())

	require.NoError(t, n.Notify(context.Background(), EventTradeDetected, "detected", "x"))
	require.NoError(t, n.Notify(context.Background(), EventTradeExecuted, "executed", "x"))

	assert.Equal(t, []string{"executed"}, s.sent)
}

func TestNotifyEmptyEventListAllowsAll(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, nil, slog.Default())

	require.NoError(t, n.Notify(context.Background(), EventError, "oops", "x"))
	assert.Equal(t, []string{"oops"}, s.sent)
}

func TestNotifyDeliversPastFailedSender(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("down")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.Default())

	err := n.Notify(context.Background(), EventError, "oops", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, []string{"oops"}, good.sent)
}

func TestDiscordSenderPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "**Trade mirrored**\nbuy done", payload["content"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	require.NoError(t, s.Send(context.Background(), "Trade mirrored", "buy done"))
}

func TestDiscordSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
