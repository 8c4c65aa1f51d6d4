package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/faqbot/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
assistant and the FAQ and document search to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the MCP protocol; the logger writes to stderr.
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := buildPipeline(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer p.close(context.Background())
		go p.sessions.Run(ctx)

		mcpserver.Version = Version
		log.Info().Int("documents", p.store.Count()).Int("faqs", p.catalog.Snapshot().Len()).
			Msg("faqbot MCP server started on stdio")

		srv := mcpserver.NewServer(p.assistant, p.catalog, p.store)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
