package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/velora/internal/auth"
	"github.com/vasiliy-maslov/velora/internal/config"
	"github.com/vasiliy-maslov/velora/internal/db"
	"github.com/vasiliy-maslov/velora/internal/handler"
	"github.com/vasiliy-maslov/velora/internal/notify"
	"github.com/vasiliy-maslov/velora/internal/order"
	"github.com/vasiliy-maslov/velora/internal/transport"
	"github.com/vasiliy-maslov/velora/internal/user"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "order-service",
		Short: "Velora order API",
		// Running the binary without a subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func setupLogger(cfg config.AppConfig, service string) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", service).Logger()
}

// stores bundles the repositories for the configured driver along with the
// function that releases their connections.
type stores struct {
	users  user.Repository
	orders order.Repository
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		m, err := db.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := order.EnsureMongoIndexes(ctx, m.Database); err != nil {
			m.Close(context.Background())
			return nil, err
		}
		if err := user.EnsureMongoIndexes(ctx, m.Database); err != nil {
			m.Close(context.Background())
			return nil, err
		}
		return &stores{
			users:  user.NewMongoRepository(m.Database),
			orders: order.NewMongoRepository(m.Database),
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				m.Close(closeCtx)
			},
		}, nil
	default:
		pg, err := db.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := db.ApplyMigrations(pg.Pool, cfg.Postgres); err != nil {
			pg.Close()
			return nil, err
		}
		return &stores{
			users:  user.NewRepository(pg.SQL),
			orders: order.NewRepository(pg.Pool),
			close:  pg.Close,
		}, nil
	}
}

func newNotifier(cfg config.RabbitMQConfig) (order.Notifier, func(), error) {
	if cfg.URL == "" {
		log.Warn().Msg("RABBITMQ_URL is not set, order confirmations will only be logged")
		return notify.LogNotifier{}, func() {}, nil
	}

	pool, err := notify.NewChannelPool(cfg.URL, cfg.Queue, cfg.ChannelPoolSize)
	if err != nil {
		return nil, nil, err
	}
	return notify.NewPublisher(pool, cfg.Queue), pool.Close, nil
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg.App, "order-service")

	log.Info().Str("storage", cfg.StorageDriver).Msg("Order service starting...")

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st, err := openStores(connectCtx, cfg)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open storage")
		return err
	}
	defer st.close()

	notifier, closeNotifier, err := newNotifier(cfg.RabbitMQ)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to RabbitMQ")
		return err
	}
	defer closeNotifier()

	orderService := order.NewService(st.orders, st.users, notifier)
	orderHandler := handler.NewOrderHandler(orderService, auth.NewAuthenticator(st.users))

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      transport.NewRouter(orderHandler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
		return err
	case <-sigChan:
	}
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
