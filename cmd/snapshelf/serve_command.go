package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapshelf/snapshelf/internal/api"
	"github.com/snapshelf/snapshelf/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background maintenance tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if port > 0 {
				cfg.Server.Port = port
			}
			log := ctx.logger()

			db, err := ctx.database(cmd.Context())
			if err != nil {
				return err
			}

			server, err := api.NewServer(db, cfg, log.Logger, api.WithLogFile(log.FilePath()))
			if err != nil {
				return fmt.Errorf("failed to create API server: %w", err)
			}

			log.Info().
				Str("version", config.Version).
				Str("database", cfg.Database.Path).
				Bool("mockMetadata", cfg.Metadata.UseMock).
				Msg("Starting SnapShelf")

			server.InitializeNetworkServices(cmd.Context())

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(cfg.Server.Address())
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("HTTP server failed: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				log.Info().Msg("Received shutdown signal")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Server shutdown error")
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override the configured listen port")
	return cmd
}
