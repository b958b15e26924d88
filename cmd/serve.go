package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theopenlane/privacyguard/internal/api"
)

// serveCmd is the cobra command that starts the API server and the scheduler
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the privacyguard api server and scheduler",
	Run: func(cmd *cobra.Command, _ []string) {
		err := serve(cmd.Context())
		cobra.CheckErr(err)
	},
}

// init registers the serve command on the root command
func init() {
	rootCmd.AddCommand(serveCmd)
}

// serve initializes dependencies and starts the API server and the scheduler
func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := setupStore(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() { _ = st.Close() }()

	coord, err := setupCoordinator(cfg, st)
	if err != nil {
		return fmt.Errorf("setting up coordinator: %w", err)
	}

	if cfg.Scheduler.Enabled {
		go coord.Run(ctx, cfg.Scheduler.Interval, cfg.Scheduler.Concurrency)

		log.Info().Dur("interval", cfg.Scheduler.Interval).Int("concurrency", cfg.Scheduler.Concurrency).Msg("scheduler started")
	}

	handler := api.NewRouter(api.RouterConfig{
		Service:          coord,
		MaxBodySize:      cfg.Server.MaxBodySize,
		ProcessTimeout:   cfg.Server.ProcessTimeout,
		BatchConcurrency: cfg.Scheduler.Concurrency,
		BaseContext:      ctx,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("listen", cfg.Server.Listen).Msg("starting privacyguard service")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}
