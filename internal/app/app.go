// Package app wires the storage backend, the event pipeline and the domain
// services into one object for the command line and the notifier.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/example/furniture-market/internal/auth"
	"github.com/example/furniture-market/internal/command"
	"github.com/example/furniture-market/internal/config"
	"github.com/example/furniture-market/internal/domain/cart"
	"github.com/example/furniture-market/internal/domain/catalog"
	"github.com/example/furniture-market/internal/domain/comment"
	"github.com/example/furniture-market/internal/domain/compare"
	"github.com/example/furniture-market/internal/domain/listing"
	"github.com/example/furniture-market/internal/domain/offer"
	"github.com/example/furniture-market/internal/domain/order"
	"github.com/example/furniture-market/internal/domain/sale"
	"github.com/example/furniture-market/internal/domain/user"
	"github.com/example/furniture-market/internal/infrastructure/kafka"
	"github.com/example/furniture-market/internal/infrastructure/store"
	"github.com/example/furniture-market/internal/migrate"
	"github.com/example/furniture-market/internal/query"
)

type App struct {
	KV      store.KeyValueStore
	Events  *store.EventStore
	Session *user.Session
	Catalog *catalog.Catalog
	Compare *compare.List

	Users    *user.Service
	Cart     *cart.Service
	Listings *listing.Service
	Offers   *offer.Service
	Orders   *order.Service
	Sales    *sale.Service
	Comments *comment.Service

	Commands *command.Handler
	Queries  *query.Handler

	logger  *zap.Logger
	closers []func() error
}

// New opens the configured backend and restores the persisted session
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{logger: logger}

	kv, err := a.openKV(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	products := catalog.Default()
	if cfg.CatalogFile != "" {
		products, err = catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	var publisher store.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			WriteTimeout: cfg.KafkaWriteTimeout,
		})
		a.closers = append(a.closers, producer.Close)
		publisher = producer
		logger.Info("Publishing events to Kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	a.wire(kv, store.NewKeys(cfg.Namespace), products, store.NewEventStore(publisher), cfg)

	if err := a.Users.Restore(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return a, nil
}

func (a *App) wire(kv store.KeyValueStore, keys store.Keys, products *catalog.Catalog, events *store.EventStore, cfg *config.Config) {
	a.KV = kv
	a.Events = events
	a.Session = user.NewSession()
	a.Catalog = products
	a.Compare = compare.NewList()

	var tokens *auth.TokenService
	if cfg.SessionSecret != "" {
		tokens = auth.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	}

	a.Users = user.NewService(kv, keys, a.Session, tokens, events, a.logger)
	a.Cart = cart.NewService(kv, keys, events, a.logger)
	a.Listings = listing.NewService(kv, keys, a.Session, events, a.logger)
	a.Offers = offer.NewService(kv, keys, a.Session, events, a.logger)
	a.Orders = order.NewService(kv, keys, a.Session, events, a.logger)
	a.Sales = sale.NewService(kv, keys, a.Session, events, a.logger, sale.Options{DemoSales: cfg.DemoSales})
	a.Comments = comment.NewService(kv, keys, a.Session, events, a.logger)

	a.Commands = command.NewHandler(kv, a.Session, products, a.Cart, a.Listings, a.Offers, a.Orders, a.Sales, a.logger)
	a.Queries = query.NewHandler(a.Session, products, a.Cart, a.Listings, a.Offers, a.Orders, a.Sales, a.Comments)
}

func (a *App) openKV(ctx context.Context, cfg *config.Config) (store.KeyValueStore, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryKV(), nil

	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if err := a.migrateDB(ctx, db, store.DialectSQLite); err != nil {
			return nil, err
		}
		a.logger.Debug("Using SQLite backend", zap.String("path", cfg.SQLitePath))
		return store.NewSQLiteKV(db), nil

	case config.BackendPostgres:
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := a.migrateDB(ctx, db, store.DialectPostgres); err != nil {
			return nil, err
		}
		a.logger.Debug("Using PostgreSQL backend")
		return store.NewPostgresKV(db), nil

	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		a.logger.Debug("Using DynamoDB backend", zap.String("table", cfg.DynamoTable))
		return store.NewDynamoKV(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func (a *App) migrateDB(ctx context.Context, db *sql.DB, dialect store.Dialect) error {
	a.closers = append(a.closers, db.Close)
	if err := migrate.Up(ctx, db, string(dialect)); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Reload drops every cached collection so writes made by another process
// become visible
func (a *App) Reload() {
	a.Users.Reload()
	a.Cart.Reload()
	a.Listings.Reload()
	a.Offers.Reload()
	a.Orders.Reload()
	a.Sales.Reload()
	a.Comments.Reload()
}

// Close releases the producer and database handles in reverse order
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
