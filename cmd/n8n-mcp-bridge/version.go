package main

import (
	"fmt"

	"github.com/spf13/cobra"

	n8nbridge "github.com/aretw0/n8n-mcp-bridge"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of n8n-mcp-bridge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("n8n-mcp-bridge version %s\n", n8nbridge.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
