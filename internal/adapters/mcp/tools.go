package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/n8n-mcp-bridge/internal/n8n"
)

// Tool handlers. Each one validates its arguments, performs exactly one
// backend call, and renders a single human-readable string. Failures are
// absorbed here: the MCP transport never sees them as faults.

func (s *Server) handleHelloWorld(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("Hello from n8n MCP Bridge!"), nil
}

// decodeArgs maps the request's loose argument map onto a typed struct.
func decodeArgs(request mcp.CallToolRequest, out any) error {
	args := request.GetArguments()
	if args == nil {
		args = map[string]any{}
	}
	return mapstructure.Decode(args, out)
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflows, err := s.backend.ListWorkflows(ctx)
	if err != nil {
		return mcp.NewToolResultError(renderError("listing workflows", err)), nil
	}

	var b strings.Builder
	b.WriteString("Available n8n Workflows:\n")
	for _, wf := range workflows {
		fmt.Fprintf(&b, "- ID: %s, Name: %s\n", wf.ID, wf.Name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

type triggerArgs struct {
	WorkflowID string `mapstructure:"workflow_id"`
	Data       string `mapstructure:"data"`
}

func (s *Server) handleTriggerWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args triggerArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s", err)), nil
	}
	if args.WorkflowID == "" {
		return mcp.NewToolResultError("Error: workflow_id is required"), nil
	}
	if args.Data == "" {
		args.Data = "{}"
	}

	// The payload must parse before any network I/O happens.
	var payload map[string]any
	if err := json.Unmarshal([]byte(args.Data), &payload); err != nil {
		return mcp.NewToolResultError("Error: Invalid JSON in data parameter"), nil
	}

	if _, err := s.backend.ExecuteWorkflow(ctx, args.WorkflowID, payload); err != nil {
		return mcp.NewToolResultError(renderError("triggering workflow", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Workflow %s triggered successfully", args.WorkflowID)), nil
}

type sendMessageArgs struct {
	Message string `mapstructure:"message"`
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args sendMessageArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s", err)), nil
	}
	if args.Message == "" {
		return mcp.NewToolResultError("Error: message is required"), nil
	}

	body, err := s.backend.PostMessage(ctx, args.Message)
	if err != nil {
		return mcp.NewToolResultError(renderError("sending message", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Message sent to n8n: %s", strings.TrimSpace(string(body)))), nil
}

type analyzeTextArgs struct {
	Text       string `mapstructure:"text"`
	WorkflowID string `mapstructure:"workflow_id"`
}

func (s *Server) handleAnalyzeText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args analyzeTextArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s", err)), nil
	}
	if args.Text == "" {
		return mcp.NewToolResultError("Error: text is required"), nil
	}
	if args.WorkflowID == "" {
		return mcp.NewToolResultError("Error: workflow_id is required"), nil
	}

	body, err := s.backend.ExecuteWorkflow(ctx, args.WorkflowID, map[string]any{"text": args.Text})
	if err != nil {
		return mcp.NewToolResultError(renderError("analyzing text", err)), nil
	}

	pretty, err := prettyJSON(body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Analysis complete: %s", pretty)), nil
}

// renderError maps the typed error set onto the outward-facing strings: a
// backend status outside the accepted set carries its code and raw body,
// everything else carries the underlying message.
func renderError(op string, err error) string {
	var statusErr *n8n.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Error %s: %d - %s", op, statusErr.Code, statusErr.Body)
	}
	return fmt.Sprintf("Error: %s", err)
}

func prettyJSON(body []byte) (string, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
