package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/sprouts/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the kid-safe chat pipeline and the PII masker as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries protocol frames.
		log.SetOutput(os.Stderr)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		gw, err := buildGateway(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer gw.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "sprouts MCP server started on stdio (provider=%s, model=%s)\n", cfg.Provider, cfg.Model)

		srv := mcpserver.NewServer(gw.pipeline)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
