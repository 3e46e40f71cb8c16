package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arvoweaver/streamline-pubsub/internals/broker"
	"github.com/arvoweaver/streamline-pubsub/internals/config"
	"github.com/arvoweaver/streamline-pubsub/internals/logging"
	"github.com/arvoweaver/streamline-pubsub/internals/metrics"
	"github.com/arvoweaver/streamline-pubsub/subscriberService"
	subscriberHTTP "github.com/arvoweaver/streamline-pubsub/subscriberService/http"
	"github.com/arvoweaver/streamline-pubsub/topicManagerService"
	topicManagerHTTP "github.com/arvoweaver/streamline-pubsub/topicManagerService/http"
)

var envFile string

func main() {
	cfg := config.NewConfig()

	root := &cobra.Command{
		Use:   "streamline-pubsub",
		Short: "in-memory publish/subscribe broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "config", ".env", "path to .env configuration file")
	cfg.BindFlags(root)

	if err := root.Execute(); err != nil {
		logging.Logger.Fatal().Err(err).Msg("exiting")
	}
}

func run(cfg *config.Config) error {
	if err := godotenv.Load(envFile); err != nil {
		logging.Logger.Debug().Err(err).Msg("no .env file loaded")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	logging.Logger.Info().Str("host", cfg.Host).Str("port", cfg.Port).Msg("starting streamline-pubsub")

	m := metrics.NewMetrics()
	b := broker.NewBroker(cfg, m)

	topicMgrSvc := topicManagerService.NewTopicManagerService(b, cfg, m)
	subscriberSvc := subscriberService.NewSubscriberService(cfg, topicMgrSvc)

	if err := subscriberSvc.Start(); err != nil {
		return fmt.Errorf("starting subscriber service: %w", err)
	}

	router := chi.NewRouter()
	topicManagerHTTP.RegisterTopicManagerRoutes(router, topicMgrSvc, subscriberSvc)
	subscriberHTTP.RegisterSubscriberRoutes(router, subscriberSvc, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := subscriberSvc.Shutdown(ctx); err != nil {
		logging.Logger.Error().Err(err).Msg("subscriber service shutdown error")
	}

	logging.Logger.Info().Msg("server shutdown complete")
	return nil
}
