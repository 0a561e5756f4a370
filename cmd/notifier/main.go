package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/app"
	"github.com/example/furniture-market/internal/config"
	"github.com/example/furniture-market/internal/email"
	"github.com/example/furniture-market/internal/infrastructure/kafka"
	"github.com/example/furniture-market/internal/logging"
	"github.com/example/furniture-market/internal/notification"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "notifier:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if len(cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting email notifier",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
		zap.String("smtp", cfg.SMTPHost+":"+strconv.Itoa(cfg.SMTPPort)),
		zap.String("from", cfg.SMTPFrom),
	)

	// The notifier only reads the user registry, so it never publishes
	storeCfg := *cfg
	storeCfg.KafkaBrokers = nil
	market, err := app.New(ctx, &storeCfg, logger)
	if err != nil {
		return err
	}
	defer market.Close()

	mailer := email.NewService(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort), cfg.SMTPFrom)
	handler := notification.NewHandler(mailer, notification.Fresh(market.Users), logger)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger)
	defer consumer.Close()

	logger.Info("Listening for events")
	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("Shutting down")
	return nil
}
