package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"autolist/internal/config"
	"autolist/internal/ledger"
	"autolist/internal/logging"
	"autolist/internal/notifications"
	"autolist/internal/sorter"
	"autolist/internal/spotify"
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

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	format := cfg.Logging.Format
	if format == "" {
		format = logging.DefaultFormat()
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
	})
}

// withStore runs fn with an open ledger store and a configured logger.
func (c *commandContext) withStore(fn func(ctx context.Context, cfg *config.Config, store *ledger.Store, logger *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	store, err := ledger.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), cfg, store, logger)
}

// withSorter assembles the full pipeline around the ledger store.
func (c *commandContext) withSorter(fn func(ctx context.Context, s *sorter.Sorter) error) error {
	return c.withStore(func(ctx context.Context, cfg *config.Config, store *ledger.Store, logger *slog.Logger) error {
		client := spotify.NewFromConfig(cfg)
		notifier := notifications.NewService(cfg)
		s, err := sorter.New(cfg, client, store, notifier, logger)
		if err != nil {
			return err
		}
		return fn(ctx, s)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
