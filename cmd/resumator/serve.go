package main

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/resumator/internal/server"
	"github.com/jonathan/resumator/internal/server/ratelimit"
	"github.com/jonathan/resumator/internal/store"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server exposing extraction, page watching and stored records.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Create the records table on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestOpts, err := cfg.IngestionOptions()
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		APIKey:         cfg.Server.APIKey,
		Ingestion:      ingestOpts,
		Watch:          cfg.WatchOptions(ingestOpts.Scrape),
		RateLimit:      ratelimit.NewConfig(cfg.Server.RequestsPerMinute, cfg.Server.Burst),
	}
	if servePort > 0 {
		srvCfg.Port = servePort
	}

	if cfg.DatabaseURL != "" {
		db, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if serveMigrate {
			if err := db.Migrate(ctx); err != nil {
				return err
			}
		}
		srvCfg.Store = db
	} else {
		log.Warn().Msg("no database configured; record endpoints are disabled")
	}

	return server.New(srvCfg).Start(ctx)
}
