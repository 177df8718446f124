// Package main implements a mock judge server for local runs and e2e
// testing. It serves OpenAI-compatible /v1/chat/completions responses:
// requirement IDs are parsed out of the incoming comparison prompt and a
// canned verdict is returned for each, making validation runs fast,
// deterministic, and offline-capable.
//
// Usage:
//
//	mock-judge -port 11434 -status COMPLIANT -score 95
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type verdict struct {
	RequirementID string `json:"requirement_id"`
	Status        string `json:"status"`
	Score         int    `json:"score"`
	Reasoning     string `json:"reasoning"`
	SourceQuote   string `json:"source_quote"`
}

type server struct {
	status string
	score  int
	calls  atomic.Int64
}

// requirementIDRe matches the "- id: <id>" lines of a comparison prompt.
var requirementIDRe = regexp.MustCompile(`(?m)^- id:\s*(\S+)`)

func main() {
	port := flag.Int("port", 11434, "port to listen on")
	status := flag.String("status", "COMPLIANT", "verdict status to return (COMPLIANT, NON_COMPLIANT, PARTIAL)")
	score := flag.Int("score", 95, "verdict score to return")
	flag.Parse()

	s := &server{status: *status, score: *score}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock judge listening on %s (status=%s score=%d)", addr, *status, *score)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)

	ids := extractRequirementIDs(req.Messages)
	log.Printf("[call %d] model=%s requirements=%d", callNum, req.Model, len(ids))

	verdicts := make([]verdict, 0, len(ids))
	for _, id := range ids {
		verdicts = append(verdicts, verdict{
			RequirementID: id,
			Status:        s.status,
			Score:         s.score,
			Reasoning:     "canned verdict from mock judge",
			SourceQuote:   "",
		})
	}

	content, err := json.Marshal(map[string]any{"verdicts": verdicts})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    "assistant",
					Content: string(content),
				},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(content) / 4,
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(content) / 2,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleStats returns call counts for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls": s.calls.Load(),
	})
}

// extractRequirementIDs pulls requirement IDs out of the user messages.
func extractRequirementIDs(messages []chatMessage) []string {
	var ids []string
	for _, msg := range messages {
		if msg.Role != "user" {
			continue
		}
		for _, match := range requirementIDRe.FindAllStringSubmatch(msg.Content, -1) {
			ids = append(ids, match[1])
		}
	}
	return ids
}
