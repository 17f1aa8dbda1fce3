package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	n8nbridge "github.com/aretw0/n8n-mcp-bridge"
	"github.com/aretw0/n8n-mcp-bridge/internal/config"
	"github.com/aretw0/n8n-mcp-bridge/internal/logging"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge's MCP server",
	Long: `Starts the bridge as an MCP server in front of an n8n backend.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Also serves /forward-sse, /health and /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		transport, _ := cmd.Flags().GetString("transport")

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		// Flags beat config file and environment.
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("host") {
			cfg.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("n8n-url") {
			cfg.N8NBaseURL, _ = cmd.Flags().GetString("n8n-url")
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.LogLevel = lvl
		}
		cfg.FillDerived()

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))
		slog.SetDefault(logger)

		bridge, err := n8nbridge.New(cfg, n8nbridge.WithLogger(logger))
		if err != nil {
			log.Fatalf("Error initializing bridge: %v", err)
		}

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("starting n8n MCP bridge (stdio)", "n8n_url", cfg.N8NBaseURL)
			if err := bridge.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting n8n MCP bridge (SSE)",
				"address", cfg.ListenAddr(),
				"n8n_url", cfg.N8NBaseURL,
			)

			// Create a context that cancels on interrupt signal
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := bridge.ServeSSE(ctx); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	serveCmd.Flags().String("host", config.DefaultHost, "Host the bridge listens on (only for SSE)")
	serveCmd.Flags().Int("port", config.DefaultPort, "Port the bridge listens on (only for SSE)")
	serveCmd.Flags().String("n8n-url", config.DefaultN8NBaseURL, "Base URL of the n8n REST API")
}
