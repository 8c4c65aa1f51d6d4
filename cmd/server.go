package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/faqbot/internal/assistant"
	"github.com/ziadkadry99/faqbot/internal/convlog"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/ingest"
	"github.com/ziadkadry99/faqbot/internal/server"
)

// shutdownGrace bounds connection draining and the conversation log flush.
const shutdownGrace = 15 * time.Second

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the chat HTTP server",
	Long: `Starts the faqbot HTTP server with the chat API, the websocket chat
endpoint, FAQ and document management, conversation log admin,
health checks and Prometheus metrics.
SIGHUP reloads the FAQ catalog from the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := buildPipeline(ctx, cfg, log)
		if err != nil {
			return err
		}
		go p.sessions.Run(ctx)
		go reloadOnHangup(ctx, p)

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        p.metrics.Handler(),
		}, p.db, log)
		assistant.RegisterRoutes(srv.Router(), p.assistant)
		faq.RegisterRoutes(srv.Router(), p.faqs, p.catalog)
		convlog.RegisterRoutes(srv.Router(), p.sink)
		ingest.RegisterRoutes(srv.Router(), p.store, ingestOptions(cfg, log), cfg.VectorDir())

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		log.Info().
			Str("version", Version).
			Int("port", cfg.Server.Port).
			Str("database", p.db.Path()).
			Int("documents", p.store.Count()).
			Strs("languages", cfg.Languages.Supported).
			Msg("faqbot server started")

		select {
		case err = <-errCh:
		case <-ctx.Done():
			log.Info().Msg("shutting down server")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			log.Warn().Err(serr).Msg("server shutdown")
		}
		p.close(shutdownCtx)
		log.Info().
			Int64("turns_logged", p.sink.Written()).
			Int64("turns_dropped", p.sink.Dropped()).
			Msg("faqbot server stopped")
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	},
}

// reloadOnHangup rebuilds the FAQ snapshot on every SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, p *pipeline) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			snap, err := p.catalog.Refresh(ctx)
			if err != nil {
				p.log.Error().Err(err).Msg("faq reload failed; keeping previous catalog")
				continue
			}
			p.log.Info().Int("entries", snap.Len()).Uint64("version", snap.Version()).Msg("faq catalog reloaded")
		}
	}
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
