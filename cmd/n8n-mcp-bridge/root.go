package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "n8n-mcp-bridge",
	Short: "n8n-mcp-bridge exposes n8n workflows as MCP tools",
	Long: `A thin bridge between MCP clients and an n8n workflow-automation backend.

Each tool call is forwarded as a single HTTP request to the n8n REST API and
the JSON response is relayed back to the caller. The bridge keeps no state of
its own: no caching, no retries, no persistence.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to an optional bridge.yaml config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}
