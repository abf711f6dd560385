package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chxlky/trello-agent/database"
	"github.com/chxlky/trello-agent/integrations"
	"github.com/chxlky/trello-agent/internal/dispatcher"
	"github.com/chxlky/trello-agent/internal/pipeline"
	"github.com/chxlky/trello-agent/internal/resolver"
	"github.com/chxlky/trello-agent/internal/tasks"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds everything an action needs, wired from config.
type app struct {
	db       *gorm.DB
	redis    *redis.Client
	trello   *integrations.TrelloClient
	journal  *database.Journal
	pipeline *pipeline.Pipeline
}

// buildApp wires everything around an already opened journal database. On
// error the database is closed.
func buildApp(ctx context.Context, db *gorm.DB) (*app, error) {
	logger := zap.L()
	a := &app{db: db, journal: database.NewJournal(db)}

	key, token := viper.GetString("trello.api_key"), viper.GetString("trello.api_token")
	if key == "" || token == "" {
		a.Close()
		return nil, errors.New("trello.api_key and trello.api_token must be configured")
	}
	a.trello = integrations.NewTrelloClient(key, token, viper.GetString("trello.callback_url"))
	if baseURL := viper.GetString("trello.base_url"); baseURL != "" {
		a.trello.BaseURL = baseURL
	}

	cache, err := a.buildCache(ctx, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var scheduler pipeline.Scheduler
	calClient, err := integrations.NewCalendarClient(ctx)
	if err != nil {
		logger.Warn("Google Calendar is not available; scheduleMeeting is disabled", zap.Error(err))
	} else {
		scheduler = calClient
		logger.Info("Successfully authenticated with Google Calendar API.")
	}

	a.pipeline = pipeline.New(pipeline.Config{
		Resolver: resolver.New(a.trello, resolver.Options{
			Cache:         cache,
			RefreshOnMiss: viper.GetBool("cache.refresh_on_miss"),
			Logger:        logger.Named("resolver"),
		}),
		Dispatcher: dispatcher.New(a.trello, logger.Named("dispatcher")),
		Extractor:  tasks.SentenceSplitter{Delimiter: viper.GetString("tasks.delimiter")},
		Scheduler:  scheduler,
		Journal:    a.journal,
		Logger:     logger.Named("pipeline"),
	})
	return a, nil
}

func (a *app) buildCache(ctx context.Context, logger *zap.Logger) (resolver.BoardCache, error) {
	ttl := viper.GetDuration("cache.ttl")

	switch backend := strings.ToLower(viper.GetString("cache.backend")); backend {
	case "", "memory":
		return resolver.NewMemoryCache(ttl), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     viper.GetString("cache.redis.addr"),
			Password: viper.GetString("cache.redis.password"),
			DB:       viper.GetInt("cache.redis.db"),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", viper.GetString("cache.redis.addr"), err)
		}
		a.redis = client
		logger.Info("Using redis board cache", zap.String("addr", viper.GetString("cache.redis.addr")))
		return resolver.NewRedisCache(client, viper.GetString("cache.redis.key"), ttl, logger.Named("cache")), nil
	default:
		return nil, fmt.Errorf("unknown cache.backend %q (want memory or redis)", backend)
	}
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.L().Error("Error closing redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			zap.L().Error("Error closing database", zap.Error(err))
		} else {
			zap.L().Info("Database connection closed.")
		}
	}
}
