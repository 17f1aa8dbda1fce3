// Command n8n-mcp-bridge exposes n8n workflows as MCP tools.
package main

func main() {
	Execute()
}
