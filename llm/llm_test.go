package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeneratePipelineValidation(t *testing.T) {
	// Test without initialization
	config, client = nil, nil
	_, err := GeneratePipeline(context.Background(), "click the button")
	if err == nil {
		t.Error("Expected error when not initialized")
	}

	// Test with missing API key
	Init(&Config{APIKey: "", Model: "test_model"})
	_, err = GeneratePipeline(context.Background(), "click the button")
	if err == nil {
		t.Error("Expected error with missing API key")
	}

	// Test with missing model
	Init(&Config{APIKey: "test_api_key", Model: ""})
	_, err = GeneratePipeline(context.Background(), "click the button")
	if err == nil {
		t.Error("Expected error with missing model")
	}
}

// chatStub serves canned chat completions in OpenAI wire format.
func chatStub(t *testing.T, replies []string) *httptest.Server {
	t.Helper()
	call := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := replies[len(replies)-1]
		if call < len(replies) {
			reply = replies[call]
		}
		call++
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeneratePipelineParsesReply(t *testing.T) {
	doc := `{"start": {"target": [10, 20], "action": "Click"}}`
	srv := chatStub(t, []string{"```json\n" + doc + "\n```"})
	defer srv.Close()

	Init(&Config{APIKey: "test_api_key", BaseURL: srv.URL, Model: "test_model"})

	out, err := GeneratePipeline(context.Background(), "click at 10,20")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("reply is not valid JSON after fence stripping: %v", err)
	}
	if _, ok := m["start"]; !ok {
		t.Errorf("expected node 'start' in document, got %s", out)
	}
}

func TestGeneratePipelineRetriesOnInvalidDocument(t *testing.T) {
	srv := chatStub(t, []string{
		`{"a": {"next": ["ghost"]}}`, // invalid: unknown successor
		`{"a": {}}`,
	})
	defer srv.Close()

	Init(&Config{APIKey: "test_api_key", BaseURL: srv.URL, Model: "test_model"})

	out, err := GeneratePipeline(context.Background(), "do nothing")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(out) != `{"a": {}}` {
		t.Errorf("expected the second, valid reply, got %s", out)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"{}", "{}"},
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
