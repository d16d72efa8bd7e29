package mcp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CallMeTrinity/sae501-api-server/game/engine"
	"github.com/CallMeTrinity/sae501-api-server/game/service"
)

func TestFormatSessionInfoMarksActivePlayer(t *testing.T) {
	info := &service.SessionInfo{
		ID:     "s1",
		Code:   "abc123",
		Status: "playing",
		Players: []engine.Player{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob"},
		},
		ActivePlayerIndex: 1,
		HintsLeft:         2,
		AnsweredQuestions: 4,
		CreatedAt:         time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC),
	}

	out := formatSessionInfo(info)
	if !strings.Contains(out, "Join code: abc123") {
		t.Errorf("Expected the join code in the summary, got:\n%s", out)
	}
	if !strings.Contains(out, "▶ Bob (p2)") {
		t.Errorf("Expected Bob marked as active, got:\n%s", out)
	}
	if strings.Contains(out, "▶ Alice") {
		t.Errorf("Expected Alice unmarked, got:\n%s", out)
	}
	if !strings.Contains(out, "Hints left: 2") {
		t.Errorf("Expected the hint count, got:\n%s", out)
	}
	if strings.Contains(out, "Votes") {
		t.Errorf("Expected no vote block before any ballot, got:\n%s", out)
	}
}

func TestFormatVotes(t *testing.T) {
	votes := map[string]string{
		"alice": "butler",
		"bob":   "butler",
		"carol": "gardener",
	}
	deadline := time.Date(2026, 2, 14, 20, 30, 0, 0, time.UTC)

	out := formatVotes(votes, deadline)
	if !strings.Contains(out, "Votes (3):") {
		t.Errorf("Expected the ballot count, got:\n%s", out)
	}
	if !strings.Contains(out, "- suspect butler: 2") {
		t.Errorf("Expected the butler's tally, got:\n%s", out)
	}
	if !strings.Contains(out, "Leading: butler") {
		t.Errorf("Expected the butler leading, got:\n%s", out)
	}
	if !strings.Contains(out, "2026-02-14T20:30:00Z") {
		t.Errorf("Expected the RFC3339 deadline, got:\n%s", out)
	}
}

func TestFormatVotesOmitsZeroDeadline(t *testing.T) {
	out := formatVotes(map[string]string{"alice": "butler"}, time.Time{})
	if strings.Contains(out, "Deadline") {
		t.Errorf("Expected no deadline line, got:\n%s", out)
	}
}

func TestAPICallDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("Expected /api/health, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	var resp map[string]string
	if err := client.apiCall("GET", "/api/health", nil, &resp); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", resp)
	}
}

func TestAPICallReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.apiCall("GET", "/api/sessions/ghost", nil, nil)
	if err == nil {
		t.Fatal("Expected an error for a 404 response")
	}
	if err.Error() != "session not found" {
		t.Errorf("Expected the decoded error message, got %v", err)
	}
}

func TestAPICallFallsBackToStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.apiCall("GET", "/api/questions", nil, nil)
	if err == nil {
		t.Fatal("Expected an error for a 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected the status code in the error, got %v", err)
	}
}
