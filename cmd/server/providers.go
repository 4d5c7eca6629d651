package main

import (
	"context"
	"log"
	"time"

	"estate_marketplace_backend/internal/app"
	"estate_marketplace_backend/internal/chat"
	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/identity"
	"estate_marketplace_backend/internal/platform/database"
	platformes "estate_marketplace_backend/internal/platform/elasticsearch"
	"estate_marketplace_backend/internal/platform/kafka"
	"estate_marketplace_backend/internal/platform/logger"
	"estate_marketplace_backend/internal/platform/metrics"
	platformredis "estate_marketplace_backend/internal/platform/redis"
	"estate_marketplace_backend/internal/profile"
	"estate_marketplace_backend/internal/property"
	"estate_marketplace_backend/internal/search"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const revocationCleanupInterval = 10 * time.Minute

func provideMemoryBroker(cfg *config.Config, logger *zap.Logger) *gateway.MemoryBroker {
	return gateway.NewMemoryBroker(cfg.RealtimeBufferSize, logger)
}

// provideMetrics reports live subscriptions of the local broker, which owns
// every subscription whether or not Kafka is in use.
func provideMetrics(local *gateway.MemoryBroker) *metrics.Metrics {
	return metrics.New(local)
}

// provideBroker fans change events out through Kafka when KAFKA_BROKERS is set,
// otherwise in-process only.
func provideBroker(cfg *config.Config, local *gateway.MemoryBroker, m *metrics.Metrics, logger *zap.Logger) (gateway.Broker, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("Kafka is not configured, realtime events stay in-process")
		return m.InstrumentBroker(local), func() {}, nil
	}
	bus, err := kafka.NewEventBus(cfg, local, logger)
	if err != nil {
		return nil, nil, err
	}
	bus.Start(context.Background())
	cleanup := func() {
		if err := bus.Close(); err != nil {
			logger.Error("Failed to close Kafka event bus", zap.Error(err))
		}
	}
	return m.InstrumentBroker(bus), cleanup, nil
}

func provideRevocationCache() *identity.RevocationCache {
	return identity.NewRevocationCache(revocationCleanupInterval)
}

func provideChatService(cfg *config.Config, repo chat.Repository, profiles profile.Service, logger *zap.Logger) chat.Service {
	return chat.NewService(repo, profiles, cfg.ChatPartnerCacheTTL, logger)
}

func providePropertySearcher(es *platformes.ESClientWrapper, repo property.Repository, properties property.Service, logger *zap.Logger) search.PropertySearcher {
	if es == nil {
		return search.NewStoreSearcher(properties)
	}
	return search.NewESPropertySearcher(es, repo, logger)
}

func providePropertyIndexer(es *platformes.ESClientWrapper, repo property.Repository, logger *zap.Logger) *search.PropertyIndexer {
	if es == nil {
		return nil
	}
	return search.NewPropertyIndexer(es, repo, logger)
}

// provideDatabase opens the store and brings the schema up to date.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db, logger, app.Models()...); err != nil {
		database.CloseGORMDB(db, logger)
		return nil, nil, err
	}
	return db, func() { database.CloseGORMDB(db, logger) }, nil
}

func provideRedis(cfg *config.Config, logger *zap.Logger) (*goredis.Client, func(), error) {
	client, err := platformredis.NewClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if client != nil {
			_ = client.Close()
		}
	}, nil
}

// provideLogger syncs the logger as the last cleanup step.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}, nil
}
