// Command mock-backend runs a deterministic Chat Completions server that
// imitates a Predibase LoRA deployment for local runs and tests. Every
// reply echoes the last user message together with the adapter selection
// found in its "parameters" field.
//
// Point the sampler at it with base_url http://localhost:9090/v1.
//
// Configuration:
//
//	MOCK_PORT       - Listen port (default: 9090)
//	MOCK_FAIL_FIRST - Answer the first N completion requests with 503 (default: 0)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	failFirst := 0
	if v := os.Getenv("MOCK_FAIL_FIRST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			slog.Error("invalid MOCK_FAIL_FIRST", "value", v)
			os.Exit(1)
		}
		failFirst = n
	}

	srv := &http.Server{Addr: ":" + port, Handler: newBackend(failFirst).routes()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "fail_first", failFirst)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Request types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role       string            `json:"role"`
	Content    any               `json:"content"`
	Parameters *adapterSelection `json:"parameters,omitempty"`
}

type adapterSelection struct {
	AdapterID     string `json:"adapter_id"`
	AdapterSource string `json:"adapter_source"`
}

// --- Response types ---

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int     `json:"index"`
	Message      chatMsg `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Handler ---

type backend struct {
	failFirst int64
	requests  atomic.Int64
}

func newBackend(failFirst int) *backend {
	return &backend{failFirst: int64(failFirst)}
}

func (b *backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", b.handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

func (b *backend) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	n := b.requests.Add(1)
	if n <= b.failFirst {
		slog.Info("injecting failure", "request", n, "fail_first", b.failFirst)
		writeError(w, http.StatusServiceUnavailable, "server_error", "adapter is loading, try again")
		return
	}

	if r.Header.Get("Authorization") == "" {
		writeError(w, http.StatusUnauthorized, "authentication_error", "missing API key")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid request")
		return
	}

	resp := echoResponse(&req)
	resp.Model = req.Model
	if resp.Model == "" {
		resp.Model = "mock-model"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func echoResponse(req *chatRequest) chatResponse {
	text, sel := lastUserMessage(req)
	adapter := "base model"
	if sel != nil && sel.AdapterID != "" {
		adapter = fmt.Sprintf("%s (%s)", sel.AdapterID, sel.AdapterSource)
	}
	reply := fmt.Sprintf("[%s] %s", adapter, text)

	return chatResponse{
		ID:     "chatcmpl-mock-echo",
		Object: "chat.completion",
		Choices: []chatChoice{
			{
				Index:        0,
				Message:      chatMsg{Role: "assistant", Content: reply},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message, "type": errType},
	})
}

// --- Models endpoint ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "lorasampler-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Helpers ---

func lastUserMessage(req *chatRequest) (string, *adapterSelection) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		m := req.Messages[i]
		if m.Role != "user" {
			continue
		}
		if s, ok := m.Content.(string); ok {
			return s, m.Parameters
		}
		data, _ := json.Marshal(m.Content)
		return string(data), m.Parameters
	}
	return "", nil
}
