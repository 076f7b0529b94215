package classifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/internal/domain"
)

func TestEvaluate(t *testing.T) {
	var gotPath string
	var gotBody evaluateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(evaluateResponse{Confidence: 0.87, Relevant: false})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	capturedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	verdict, err := client.Evaluate(context.Background(), domain.Snapshot{
		CapturedAt: capturedAt,
		Data:       []byte("window title: cat videos"),
		Source:     "screen",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/evaluate", gotPath)
	assert.Equal(t, capturedAt, gotBody.CapturedAt.UTC())
	assert.Equal(t, "screen", gotBody.Source)
	assert.False(t, verdict.Relevant)
	assert.Equal(t, 0.87, verdict.Confidence)
}

func TestSense(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/presence", r.URL.Path)
		json.NewEncoder(w).Encode(presenceResponse{Confidence: 0.5, Present: true})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	presence, err := client.Sense(context.Background(), domain.Snapshot{CapturedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, presence.Present)
}

func TestEvaluate_NonOKStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.Evaluate(context.Background(), domain.Snapshot{})
	assert.ErrorContains(t, err, "status 503")
}

func TestEvaluate_MalformedBodyIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.Evaluate(context.Background(), domain.Snapshot{})
	assert.ErrorContains(t, err, "decode")
}

func TestEvaluate_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.Evaluate(context.Background(), domain.Snapshot{})
	assert.Error(t, err)
}

func TestEvaluate_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can observe the client disconnect;
		// with unread body bytes buffered, r.Context() is never canceled
		// and server.Close() deadlocks.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Evaluate(ctx, domain.Snapshot{})
	assert.ErrorIs(t, err, context.Canceled)
}
