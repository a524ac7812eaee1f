package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaClientEmbed(t *testing.T) {
	var gotPath string
	var gotReq ollamaEmbedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL, "nomic-embed-text", 3)
	vector, err := client.Embed(context.Background(), "chunk text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if gotPath != "/api/embeddings" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotReq.Model != "nomic-embed-text" || gotReq.Prompt != "chunk text" {
		t.Fatalf("request = %+v", gotReq)
	}
	if len(vector) != 3 {
		t.Fatalf("vector length = %d, want 3", len(vector))
	}
	if client.Dimensions() != 3 || client.Model() != "nomic-embed-text" {
		t.Fatalf("client metadata mismatch")
	}
}

func TestOllamaClientEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL, "missing", 3)
	if _, err := client.Embed(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestOllamaClientEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	t.Cleanup(srv.Close)

	client := NewOllamaClient(srv.URL, "m", 3)
	if _, err := client.Embed(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for empty embedding")
	}
}

func TestOllamaClientDefaults(t *testing.T) {
	client := NewOllamaClient("", "", 0)
	if client.baseURL != defaultBaseURL {
		t.Fatalf("baseURL = %q", client.baseURL)
	}
	if client.Model() != defaultModel {
		t.Fatalf("model = %q", client.Model())
	}
	if client.Dimensions() != defaultDimensions {
		t.Fatalf("dimensions = %d", client.Dimensions())
	}
}

func TestPlaceholderFails(t *testing.T) {
	if _, err := (Placeholder{}).Embed(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}
