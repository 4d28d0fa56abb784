package anthropic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestMessageResponseText(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "hello "},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "world"},
		},
	}
	assert.Equal(t, "hello world", resp.Text())

	var nilResp *MessageResponse
	assert.Equal(t, "", nilResp.Text())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.Text())
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 0.80+2.00, cost, 1e-9)

	assert.Zero(t, usage.EstimateCost("unknown-model"))
}

func TestNewClientRateLimiter(t *testing.T) {
	limited := NewClient("test-key", 30).(*sdkClient)
	assert.InDelta(t, 0.5, float64(limited.limiter.Limit()), 1e-9)

	unlimited := NewClient("test-key", 0).(*sdkClient)
	assert.Equal(t, rate.Inf, unlimited.limiter.Limit())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"network failure", eris.New("dial tcp: connection refused"), true},
		{"rate limited", &sdk.Error{StatusCode: http.StatusTooManyRequests}, true},
		{"overloaded", &sdk.Error{StatusCode: 529}, true},
		{"server error", &sdk.Error{StatusCode: http.StatusInternalServerError}, true},
		{"request timeout", &sdk.Error{StatusCode: http.StatusRequestTimeout}, true},
		{"bad request", &sdk.Error{StatusCode: http.StatusBadRequest}, false},
		{"unauthorized", &sdk.Error{StatusCode: http.StatusUnauthorized}, false},
		{"not found", &sdk.Error{StatusCode: http.StatusNotFound}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, isTransient(tt.err))
		})
	}
}

const messageJSON = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "test-model",
	"content": [{"type": "text", "text": "ok"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 5, "output_tokens": 3}
}`

func newAPIServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", 0, WithBaseURL(srv.URL))
}

func TestCreateMessageRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"upstream"}}`))
			return
		}
		_, _ = w.Write([]byte(messageJSON))
	})

	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "test-model",
		MaxTokens: 64,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, int64(5), resp.Usage.InputTokens)
}

func TestCreateMessageDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`))
	})

	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "test-model",
		MaxTokens: 64,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateMessageHonorsCancellation(t *testing.T) {
	var calls atomic.Int32
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"down"}}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateMessage(ctx, MessageRequest{
		Model:     "test-model",
		MaxTokens: 64,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	// Cancellation stops the retry loop before the backoff sleeps run out.
	assert.LessOrEqual(t, calls.Load(), int32(1))
}
