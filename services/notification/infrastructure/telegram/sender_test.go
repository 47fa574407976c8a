package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/budgetly/pkg/logger"
)

const testToken = "123:test-token"

const okBody = `{"ok":true,"result":{"message_id":1,"chat":{"id":555,"type":"private"},"date":0,"text":"hi"}}`

// flakyAPI fails the first failures calls with a 500 and succeeds afterwards.
type flakyAPI struct {
	failures int32
	calls    atomic.Int32

	mu       sync.Mutex
	lastPath string
	lastBody map[string]any
}

func (f *flakyAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.calls.Add(1)

	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	f.mu.Lock()
	f.lastPath = r.URL.Path
	f.lastBody = body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if n <= f.failures {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":500,"description":"Internal Server Error"}`)
		return
	}
	_, _ = io.WriteString(w, okBody)
}

func newTestSender(t *testing.T, h http.Handler) *Sender {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := NewSender(Config{
		Token:          testToken,
		APIURL:         srv.URL,
		RetryBaseDelay: time.Millisecond,
		HTTPTimeout:    2 * time.Second,
	}, logger.Discard())
	require.NoError(t, err)
	return s
}

func TestSendMessage_PostsToBotAPI(t *testing.T) {
	api := &flakyAPI{}
	s := newTestSender(t, api)

	ok := s.SendMessage(context.Background(), Message{ChatID: "555", Text: "<b>hi</b>"})
	require.True(t, ok)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "/bot"+testToken+"/sendMessage", api.lastPath)
	assert.Equal(t, "555", api.lastBody["chat_id"])
	assert.Equal(t, "<b>hi</b>", api.lastBody["text"])
	assert.Equal(t, "HTML", api.lastBody["parse_mode"])
}

func TestSendMessage_FalseOnHTTPError(t *testing.T) {
	s := newTestSender(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	}))

	assert.False(t, s.SendMessage(context.Background(), Message{ChatID: "1", Text: "x"}))
}

func TestSendMessage_FalseOnNonJSONBody(t *testing.T) {
	s := newTestSender(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))

	assert.False(t, s.SendMessage(context.Background(), Message{ChatID: "1", Text: "x"}))
}

func TestSendMessage_FalseOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	s, err := NewSender(Config{Token: testToken, APIURL: srv.URL, HTTPTimeout: time.Second}, logger.Discard())
	require.NoError(t, err)

	assert.False(t, s.SendMessage(context.Background(), Message{ChatID: "1", Text: "x"}))
}

// Fails N-1 times then succeeds: true after exactly N calls.
func TestSendMessageWithRetry_Converges(t *testing.T) {
	const maxRetries = 4
	api := &flakyAPI{failures: maxRetries - 1}
	s := newTestSender(t, api)

	ok := s.SendMessageWithRetry(context.Background(), Message{ChatID: "555", Text: "hi"}, maxRetries)

	assert.True(t, ok)
	assert.Equal(t, int32(maxRetries), api.calls.Load())
}

// Always fails: false after exactly maxRetries calls.
func TestSendMessageWithRetry_Exhausts(t *testing.T) {
	const maxRetries = 3
	api := &flakyAPI{failures: 1 << 30}
	s := newTestSender(t, api)

	ok := s.SendMessageWithRetry(context.Background(), Message{ChatID: "555", Text: "hi"}, maxRetries)

	assert.False(t, ok)
	assert.Equal(t, int32(maxRetries), api.calls.Load())
}

func TestSendMessageWithRetry_StopsFirstSuccess(t *testing.T) {
	api := &flakyAPI{}
	s := newTestSender(t, api)

	assert.True(t, s.SendMessageWithRetry(context.Background(), Message{ChatID: "555", Text: "hi"}, 5))
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestSendMessageWithRetry_BackoffDoubles(t *testing.T) {
	api := &flakyAPI{failures: 1 << 30}
	s := newTestSender(t, api)
	s.baseDelay = 10 * time.Millisecond

	start := time.Now()
	s.SendMessageWithRetry(context.Background(), Message{ChatID: "555", Text: "hi"}, 3)

	// Sleeps of 2×10ms and 4×10ms between the three attempts.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestSendMessageWithRetry_ContextCancelStopsRetrying(t *testing.T) {
	api := &flakyAPI{failures: 1 << 30}
	s := newTestSender(t, api)
	s.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.False(t, s.SendMessageWithRetry(ctx, Message{ChatID: "555", Text: "hi"}, 3))
	assert.Equal(t, int32(1), api.calls.Load())
}
