package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeforge/internal/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAIClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
	return srv, client
}

func completion(text string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": text}, "finish_reason": "stop"},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestOpenAIGenerate(t *testing.T) {
	var gotReq chatRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completion(`{"ok":true}`)))
	})

	out, err := client.Generate(context.Background(), "hello", true)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("output = %q", out)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Error("wantJSON must request json_object response format")
	}
}

func TestOpenAIGenerateRetriesOn429(t *testing.T) {
	calls := 0
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completion("ok")))
	})

	out, err := client.Generate(context.Background(), "hello", false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "ok" {
		t.Errorf("output = %q, want ok", out)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestOpenAIGenerateSurfacesAPIErrors(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
	})

	if _, err := client.Generate(context.Background(), "hello", false); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOpenAIGenerateRequiresAPIKey(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{})
	if _, err := client.Generate(context.Background(), "hello", false); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNewFromConfigUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "smoke-signals"
	if _, err := NewFromConfig(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
