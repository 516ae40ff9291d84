package main

import (
	"context"
	"log/slog"
	"strings"

	"LinkStrategist/internal/app"
	"LinkStrategist/internal/config"
	"LinkStrategist/internal/logging"
)

// commandContext carries flag values and lazily built application state.
type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	stdoutLogs   bool

	cfg *config.Config
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

func (c *commandContext) config() config.Config {
	if c.cfg == nil {
		var cfg config.Config
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			cfg = config.LoadFrom(path)
		} else {
			cfg = config.Load()
		}
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			cfg.Logging.Level = level
		}
		c.cfg = &cfg
	}
	return *c.cfg
}

// logger writes to stdout only for the server; other commands keep stdout
// for their output.
func (c *commandContext) logger() *slog.Logger {
	level := c.config().Logging.Level
	if c.stdoutLogs {
		return logging.New(level)
	}
	return logging.NewStderr(level)
}

// withApp builds the application, runs fn and closes storage.
func (c *commandContext) withApp(ctx context.Context, fn func(*app.Application) error) (err error) {
	application, err := app.New(ctx, c.config(), c.logger())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := application.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(application)
}
