package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// FakeOllama serves /api/embeddings and /api/chat with deterministic
// answers. Embeddings have FakeOllamaDimensions components.
type FakeOllama struct {
	*httptest.Server

	mu      sync.Mutex
	reply   string
	prompts []string
}

// FakeOllamaDimensions is the size of every fake embedding.
const FakeOllamaDimensions = 4

// NewFakeOllama starts a fake server whose chat replies with reply.
func NewFakeOllama(reply string) *FakeOllama {
	f := &FakeOllama{reply: reply}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// SetReply changes the chat reply.
func (f *FakeOllama) SetReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = reply
}

// Prompts returns the user prompts received so far.
func (f *FakeOllama) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *FakeOllama) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/embeddings":
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": FakeEmbedding(req.Prompt)})

	case "/api/chat":
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		for _, m := range req.Messages {
			if m.Role == "user" {
				f.prompts = append(f.prompts, m.Content)
			}
		}
		reply := f.reply
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "fake",
			"message": map[string]string{"role": "assistant", "content": reply},
			"done":    true,
		})

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}
}

// FakeEmbedding maps text onto a few keyword axes so related texts are
// close under cosine distance.
func FakeEmbedding(text string) []float64 {
	t := strings.ToLower(text)
	emb := []float64{0.01, 0.01, 0.01, 0.01}
	for i, kw := range []string{"juros", "vacina", "chuva", "eleição"} {
		if strings.Contains(t, kw) {
			emb[i] = 1
		}
	}
	return emb
}
