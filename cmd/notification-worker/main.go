package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/config"
	"github.com/vasiliy-maslov/velora/internal/notify"
)

func main() {
	cfg, err := config.NewWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.App.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "notification-worker").Logger()

	log.Info().Int("workers", cfg.Notify.Workers).Msg("Notification worker starting...")

	pool, err := notify.NewChannelPool(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, 1)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	defer pool.Close()

	senders := buildSenders(cfg.Notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	workers := make([]*notify.Worker, 0, cfg.Notify.Workers)
	for i := 1; i <= max(cfg.Notify.Workers, 1); i++ {
		w, err := notify.NewWorker(i, pool.Conn(), cfg.RabbitMQ.Queue, senders)
		if err != nil {
			log.Fatal().Err(err).Int("worker_id", i).Msg("Failed to create worker")
		}
		workers = append(workers, w)
		wg.Add(1)
		go w.Start(ctx, &wg)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	cancel()
	for _, w := range workers {
		w.Stop()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Workers stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Timed out waiting for workers")
	}
}

func buildSenders(cfg config.NotifyConfig) []notify.Sender {
	var senders []notify.Sender
	if cfg.SMTPHost != "" {
		senders = append(senders, notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom))
	}
	if cfg.SMSWebhookURL != "" {
		senders = append(senders, notify.NewSMSWebhookSender(cfg.SMSWebhookURL, cfg.RequestTimeout))
	}
	if len(senders) == 0 {
		log.Warn().Msg("No SMTP or SMS gateway configured, confirmations will only be logged")
		senders = append(senders, notify.LogSender{})
	}
	return senders
}
