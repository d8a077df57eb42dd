package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaniflow/vaniflow/internal/analytics"
	"github.com/vaniflow/vaniflow/internal/auth"
	"github.com/vaniflow/vaniflow/internal/config"
	"github.com/vaniflow/vaniflow/internal/decision"
	"github.com/vaniflow/vaniflow/internal/flow"
	"github.com/vaniflow/vaniflow/internal/httpapi"
	"github.com/vaniflow/vaniflow/internal/logging"
	"github.com/vaniflow/vaniflow/internal/routing"
	"github.com/vaniflow/vaniflow/internal/speech"
	"github.com/vaniflow/vaniflow/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the Vaniflow platform in server mode, exposing the JSON API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		var st store.Store
		if cfg.RedisAddr != "" {
			st = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			logger.Info("using redis store", "addr", cfg.RedisAddr)
		} else {
			st = store.NewMemory()
			logger.Warn("REDIS_ADDR not set, using in-memory store")
		}

		server := httpapi.NewServer(httpapi.Deps{
			Store:  st,
			Tokens: auth.NewTokenManager(cfg.JWTSecret),
			Engine: flow.NewEngine(logger),
			Classifier: decision.NewClassifier(cfg.GeminiAPIKey, cfg.GeminiModel,
				decision.WithBaseURL(cfg.GeminiBaseURL)),
			Transcriber: speech.NewTranscriber(cfg.SarvamAPIKey,
				speech.WithEndpoint(cfg.SarvamSTTURL)),
			Router:   routing.NewRouter(cfg.Microservices),
			Recorder: analytics.NewRecorder(st, logger),
			Logger:   logger,
		})

		srv := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      server.Handler(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			logger.Error("server error", "error", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("error closing server", "error", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overriding VANIFLOW_ADDR")
}
