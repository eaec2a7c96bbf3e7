package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/restobot/core/bootstrap"
	corecmd "github.com/m3rciful/restobot/core/cmd"
	coreconfig "github.com/m3rciful/restobot/core/config"
	coredatabase "github.com/m3rciful/restobot/core/database"
	"github.com/m3rciful/restobot/core/logger"
	coretelegram "github.com/m3rciful/restobot/core/telegram"
	"github.com/m3rciful/restobot/internal/auth"
	"github.com/m3rciful/restobot/internal/bot"
	"github.com/m3rciful/restobot/internal/flow"
	"github.com/m3rciful/restobot/internal/restaurant"
)

// appConfig pairs the core configuration with the database section, which
// only the postgres backend reads.
type appConfig struct {
	core     *coreconfig.Config
	database coredatabase.Config
}

// CoreConfig implements corecmd.ConfigCarrier.
func (c *appConfig) CoreConfig() *coreconfig.Config { return c.core }

func loadConfig(path string) (corecmd.ConfigCarrier, error) {
	core, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}

	var wrap struct {
		Database coredatabase.Config `yaml:"database"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &wrap); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &wrap.Database); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	db := wrap.Database
	switch core.Storage.Backend {
	case coreconfig.BackendSQLite:
		db.Driver = coredatabase.DriverSQLite
		db.Path = core.Storage.Path
	case coreconfig.BackendPostgres:
		db.Driver = coredatabase.DriverPostgres
		if db.Host == "" {
			return nil, fmt.Errorf("database.host is required when storage.backend is 'postgres'")
		}
	}

	return &appConfig{core: core, database: db}, nil
}

// app is the assembled bot: configuration plus the event dispatcher.
type app struct {
	cfg        *coreconfig.Config
	dispatcher *bot.Dispatcher
}

func buildApp(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	ac, ok := carrier.(*appConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}
	cfg := ac.core

	res, err := bootstrap.Run(bootstrap.Options{
		Config:       cfg,
		Database:     ac.database,
		SkipDatabase: cfg.Storage.Backend == coreconfig.BackendFile,
	})
	if err != nil {
		return nil, err
	}

	var store restaurant.Store
	if res.DB != nil {
		store = restaurant.NewSQLStore(res.DB)
	} else {
		store, err = restaurant.NewFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open registry file: %w", err)
		}
	}

	registry, err := restaurant.NewService(logger.Background(), store)
	if err != nil {
		return nil, err
	}

	gate := auth.NewGate(cfg.Telegram.AdminIDs)
	dispatcher := bot.NewDispatcher(
		flow.NewEngine(gate),
		bot.NewSessions(),
		registry,
		gate,
		cfg.Recommend,
	)

	return &app{cfg: cfg, dispatcher: dispatcher}, nil
}

// TelegramRunOptions implements corecmd.TelegramApp.
func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return bot.BuildRunOptions(a.cfg, a.dispatcher), nil
}
