package main

import (
	"strings"
	"sync"

	"scanhub/internal/audit"
	"scanhub/internal/config"
	"scanhub/internal/logging"
	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

// commandContext lazily loads configuration and opens the store so that
// commands which never touch the database stay cheap.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	storeOnce sync.Once
	store     *store.Store
	storeErr  error
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureStore() (*store.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		st, err := store.Open(cfg)
		if err != nil {
			c.storeErr = err
			return
		}
		c.store = st
	})
	return c.store, c.storeErr
}

// engine builds a workflow engine over the CLI's store with the store-backed
// audit sink. CLI runs log nowhere unless they fail, so the engine gets a nop
// logger.
func (c *commandContext) engine() (*workflow.Engine, *store.Store, error) {
	st, err := c.ensureStore()
	if err != nil {
		return nil, nil, err
	}
	sink := audit.NewStoreSink(st)
	return workflow.NewEngine(st, st, sink, logging.NewNop()), st, nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}
