package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/config"
	"github.com/snapshelf/snapshelf/internal/database"
	"github.com/snapshelf/snapshelf/internal/logger"
	"github.com/snapshelf/snapshelf/internal/matchcache"
	"github.com/snapshelf/snapshelf/internal/metadata"
	"github.com/snapshelf/snapshelf/internal/moviematch"
)

type commandContext struct {
	configFlag *string
	envFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	log *logger.Logger
	db  *database.DB
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		envFlag:    envFlag,
	}
}

// ensureConfig loads the dotenv file, then the configuration. A missing
// dotenv file is not an error.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if c.envFlag != nil && strings.TrimSpace(*c.envFlag) != "" {
			if err := godotenv.Load(*c.envFlag); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.configErr = fmt.Errorf("load %s: %w", *c.envFlag, err)
				return
			}
		}

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger returns the process logger. CLI commands log to stderr so table
// and JSON output on stdout stays clean.
func (c *commandContext) logger() *logger.Logger {
	if c.log == nil {
		cfg := c.config.Logging
		c.log = logger.New(logger.Config{
			Level:      cfg.Level,
			Format:     cfg.Format,
			Path:       cfg.Path,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			Output:     os.Stderr,
		})
	}
	return c.log
}

// database opens and migrates the catalog database once per process.
func (c *commandContext) database(ctx context.Context) (*database.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	db, err := database.New(c.config.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.db = db
	return db, nil
}

// services bundles what the offline commands need.
type services struct {
	catalog *catalog.Store
	match   *moviematch.Service
}

func (c *commandContext) services(ctx context.Context) (*services, error) {
	db, err := c.database(ctx)
	if err != nil {
		return nil, err
	}
	log := c.logger().Logger

	store := catalog.NewStore(db.Conn(), nil)
	cache := matchcache.NewStore(db.Conn(), nil)
	gateway := metadata.NewService(c.config, log, nil)

	return &services{
		catalog: store,
		match:   moviematch.NewService(store, cache, gateway, c.config.Matching, log, nil),
	}, nil
}

func (c *commandContext) close() {
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	if c.log != nil {
		c.log.Close()
	}
}
