package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
)

type capturingRecorder struct {
	mu        sync.Mutex
	tokens    []int
	latencies []time.Duration
}

func (r *capturingRecorder) RecordCall(totalTokens int, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, totalTokens)
	r.latencies = append(r.latencies, latency)
}

func newTestOpenAIClient(t *testing.T, handler http.Handler) OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "0")

	client, err := NewOpenAIClient(logger.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return client
}

func TestGenerateJSONReportsTokenUsageAndLatency(t *testing.T) {
	client := newTestOpenAIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"output": [{"type": "message", "role": "assistant",
				"content": [{"type": "output_text", "text": "{\"title\": \"Cells\"}"}]}],
			"usage": {"input_tokens": 120, "output_tokens": 201, "total_tokens": 321}
		}`))
	}))

	rec := &capturingRecorder{}
	ctx := WithUsageRecorder(context.Background(), rec)

	obj, err := client.GenerateJSON(ctx, "sys", "user", "course", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["title"] != "Cells" {
		t.Fatalf("unexpected payload: %v", obj)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.tokens) != 1 || rec.tokens[0] != 321 {
		t.Fatalf("recorded tokens = %v, want [321]", rec.tokens)
	}
	if rec.latencies[0] <= 0 {
		t.Fatalf("recorded latency = %v, want > 0", rec.latencies[0])
	}
}

func TestGenerateJSONWithoutRecorderSucceeds(t *testing.T) {
	client := newTestOpenAIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"output": [{"type": "message", "role": "assistant",
				"content": [{"type": "output_text", "text": "{\"ok\": true}"}]}]
		}`))
	}))

	if _, err := client.GenerateJSON(context.Background(), "sys", "user", "x", map[string]any{"type": "object"}); err != nil {
		t.Fatalf("GenerateJSON without recorder: %v", err)
	}
}

func TestSynthesizeSpeechReportsLatencyOnly(t *testing.T) {
	client := newTestOpenAIClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte{0xFF, 0xFB, 0x90, 0x00})
	}))

	rec := &capturingRecorder{}
	ctx := WithUsageRecorder(context.Background(), rec)

	raw, err := client.SynthesizeSpeech(ctx, "Hello.", "alloy", 1.0)
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("empty audio payload")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.tokens) != 1 || rec.tokens[0] != 0 {
		t.Fatalf("recorded tokens = %v, want [0]", rec.tokens)
	}
	if rec.latencies[0] <= 0 {
		t.Fatalf("recorded latency = %v, want > 0", rec.latencies[0])
	}
}
