package main

import (
	"log/slog"
	"strings"
	"sync"

	"gamesheet/internal/config"
	"gamesheet/internal/igdb"
	"gamesheet/internal/logging"
	"gamesheet/internal/reconcile"
	"gamesheet/internal/runstate"
	"gamesheet/internal/sheets"
	"gamesheet/internal/twitchauth"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// pipeline bundles the collaborators the reconciliation commands share.
type pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *runstate.Store
	catalog *igdb.Client
	engine  *reconcile.Engine
}

// buildPipeline wires the full stack: logger, token manager, catalog client,
// sheet client, run state store, and engine. The returned cleanup closes the
// store.
func (c *commandContext) buildPipeline() (*pipeline, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := twitchauth.NewManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := igdb.New(cfg, tokens.ClientID(), tokens)
	if err != nil {
		return nil, nil, err
	}
	sheet, err := sheets.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := runstate.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine, err := reconcile.New(cfg, store, sheet, catalog, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	p := &pipeline{cfg: cfg, logger: logger, store: store, catalog: catalog, engine: engine}
	cleanup := func() {
		_ = store.Close()
	}
	return p, cleanup, nil
}

// openStore opens just the run state store for read-only commands that do not
// need catalog or sheet credentials.
func (c *commandContext) openStore() (*runstate.Store, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := runstate.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
