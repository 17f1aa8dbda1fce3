/*
Package n8nbridge is a thin bridge between MCP clients and an n8n
workflow-automation backend.

It exposes a small set of tools (list workflows, trigger workflow, send
message, analyze text) over a Model Context Protocol server. Each tool call is
forwarded as a single HTTP request to the n8n REST API and the response is
relayed back as a human-readable string. An optional endpoint forwards the
backend's server-sent-event stream to local subscribers.

# Architecture

The bridge is deliberately stateless: no caching, no retries, no persistence.
Business logic lives entirely in the remote backend; protocol framing lives
entirely in the MCP SDK. What remains here is the request/response mapping and
a uniform failure policy.

	MCP client -> MCP server -> tool handler -> n8n client -> n8n REST API

The event relay is an independent data path: each subscriber to the local
stream endpoint gets exactly one upstream connection, torn down on any exit.

# Usage

	cfg := config.Default()
	bridge, err := n8nbridge.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	// Stdio transport, for local process integration:
	if err := bridge.ServeStdio(); err != nil {
		log.Fatal(err)
	}

For remote agents, ServeSSE starts an HTTP server carrying the MCP SSE
transport plus the /forward-sse, /health and /metrics endpoints.
*/
package n8nbridge
