package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"todo/internal/logging"
	"todo/internal/server/cache"
	"todo/internal/server/config"
	"todo/internal/server/httpapi"
	"todo/internal/server/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task API until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		return err
	}
	logger, err := logging.NewServer(cfg.Env, os.Stdout)
	if err != nil {
		return err
	}
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	opts := []tasks.Option{tasks.WithLogger(logger)}
	if cfg.Redis.Enabled() {
		redisOpts, err := cfg.Redis.Options()
		if err != nil {
			return err
		}
		rdb, err := cache.Connect(ctx, redisOpts)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, tasks.WithCache(cache.New(rdb, cfg.Redis.TTL.Duration())))
		logger.Info().
			Str("addr", redisOpts.Addr).
			Bool("tls", redisOpts.TLSConfig != nil).
			Msg("list cache enabled")
	}

	router := httpapi.NewRouter(httpapi.Config{
		Tasks:        tasks.NewService(repo, opts...),
		Logger:       logger,
		Issuer:       cfg.JWT.Issuer,
		SigningKey:   []byte(cfg.JWT.SigningKey),
		AllowOrigins: cfg.CORS.AllowOrigins,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("host", cfg.HTTP.Host).
			Str("port", cfg.HTTP.Port).
			Str("storage", cfg.Storage.Driver).
			Msg("setting up http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down http server")
		return err
	}
	logger.Info().Msg("shut down http server")
	return nil
}
