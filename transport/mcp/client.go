package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/CallMeTrinity/sae501-api-server/game/engine"
	"github.com/CallMeTrinity/sae501-api-server/game/service"
	"github.com/CallMeTrinity/sae501-api-server/store"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Murder Party Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Murder Party Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Players take turns answering enigmas, spend shared hints on suspects, then
vote on who the killer is before the countdown runs out.

AVAILABLE TOOLS:
- list_sessions: List all live sessions
- get_session: Get one session (players, turn, hints, vote state)
- current_votes: Get the running vote tally for a session
- list_questions: List active questions
- validate_answer: Check an answer against a question
- list_suspects: List the suspect roster
- list_configs: List available rule sets

Realtime play (joining, turns, voting) happens over the WebSocket; these
tools are for inspection and content access.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "current_votes",
		Description: "Get the running vote tally for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleCurrentVotes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_questions",
		Description: "List active questions, optionally limited",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of questions to return",
				},
			},
		},
	}, c.handleListQuestions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "validate_answer",
		Description: "Check an answer against a question",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question_id": map[string]interface{}{
					"type":        "integer",
					"description": "Question ID",
				},
				"answer": map[string]interface{}{
					"type":        "string",
					"description": "Proposed answer (accents and case are ignored)",
				},
			},
			Required: []string{"question_id", "answer"},
		},
	}, c.handleValidateAnswer)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_suspects",
		Description: "List the suspect roster",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSuspects)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule sets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "session_qr",
		Description: "Get the URL of a session's join QR code image",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleSessionQR)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Live Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Players: %d, Created: %s)\n",
			s.ID, len(s.Players), s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleCurrentVotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var response struct {
		Votes        map[string]string `json:"votes"`
		VoteDeadline time.Time         `json:"vote_deadline"`
	}
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/votes", sessionID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatVotes(response.Votes, response.VoteDeadline)), nil
}

func (c *Client) handleSessionQR(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	// The QR endpoint serves a PNG; hand the caller its URL rather than bytes.
	var session service.SessionInfo
	if err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s/api/sessions/%s/qr", c.baseURL, sessionID)), nil
}

func (c *Client) handleListQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/questions"
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			path = fmt.Sprintf("%s?limit=%d", path, int(limit))
		}
	}

	var questions []store.Question
	err := c.apiCall("GET", path, nil, &questions)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Questions (%d):\n\n", len(questions)))
	for _, q := range questions {
		b.WriteString(fmt.Sprintf("- #%d [%s] %s\n", q.ID, q.Type, q.Content))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleValidateAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	questionID, _ := args["question_id"].(float64)
	answer, _ := args["answer"].(string)

	body := map[string]interface{}{
		"id":     int(questionID),
		"answer": answer,
	}

	var check engine.AnswerCheck
	err := c.apiCall("POST", "/api/answer", body, &check)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := "✗ incorrect"
	if check.Correct {
		status = "✓ correct"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n%s", status, check.Message)), nil
}

func (c *Client) handleListSuspects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var suspects []store.Suspect
	err := c.apiCall("GET", "/api/suspects", nil, &suspects)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Suspects (%d):\n\n", len(suspects)))
	for _, s := range suspects {
		b.WriteString(fmt.Sprintf("- #%d %s\n", s.ID, s.Name))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var names []string
	err := c.apiCall("GET", "/api/configs", nil, &names)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Rule Sets:\n\n"
	for _, name := range names {
		result += fmt.Sprintf("• %s\n", name)
	}
	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Session: %s\n", session.ID))
	if session.Code != "" {
		b.WriteString(fmt.Sprintf("Join code: %s\n", session.Code))
	}
	if session.Status != "" {
		b.WriteString(fmt.Sprintf("Status: %s\n", session.Status))
	}
	b.WriteString(fmt.Sprintf("Created: %s\n", session.CreatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Hints left: %d\n", session.HintsLeft))
	b.WriteString(fmt.Sprintf("Answered questions: %d\n\n", session.AnsweredQuestions))

	b.WriteString(fmt.Sprintf("Players (%d):\n", len(session.Players)))
	for i, p := range session.Players {
		marker := " "
		if i == session.ActivePlayerIndex {
			marker = "▶"
		}
		b.WriteString(fmt.Sprintf("%s %s (%s)\n", marker, p.Name, p.ID))
	}

	if len(session.Votes) > 0 {
		b.WriteString("\n")
		b.WriteString(formatVotes(session.Votes, session.VoteDeadline))
	}
	return b.String()
}

func formatVotes(votes map[string]string, deadline time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Votes (%d):\n", len(votes)))

	counts, leaders := engine.CountVotes(votes)
	suspects := make([]string, 0, len(counts))
	for s := range counts {
		suspects = append(suspects, s)
	}
	sort.Strings(suspects)
	for _, s := range suspects {
		b.WriteString(fmt.Sprintf("- suspect %s: %d\n", s, counts[s]))
	}
	if len(leaders) > 0 {
		b.WriteString(fmt.Sprintf("Leading: %s\n", strings.Join(leaders, ", ")))
	}
	if !deadline.IsZero() {
		b.WriteString(fmt.Sprintf("Deadline: %s\n", deadline.Format(time.RFC3339)))
	}
	return b.String()
}
