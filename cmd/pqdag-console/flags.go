package main

import (
	"fmt"

	"github.com/dukex/pqdag-console/pkg/config"
	"github.com/urfave/cli/v3"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			Sources: cli.EnvVars("CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "backend-url",
			Usage:   "Base URL of the PQDAG backend",
			Sources: cli.EnvVars("BACKEND_URL"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the catalog cache (disabled when empty)",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.StringFlag{
			Name:    "sync-schedule",
			Usage:   "Cron expression for refreshing the bound dataset (disabled when empty)",
			Sources: cli.EnvVars("SYNC_SCHEDULE"),
		},
		&cli.BoolFlag{
			Name:    "strict-schemas",
			Usage:   "Validate backend payloads against their JSON schema",
			Sources: cli.EnvVars("STRICT_SCHEMAS"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(command *cli.Command) (config.Config, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return cfg, err
	}

	if command.IsSet("backend-url") {
		cfg.BackendURL = command.String("backend-url")
	}

	if command.IsSet("redis-url") {
		cfg.Catalog.RedisURL = command.String("redis-url")
	}

	if command.IsSet("sync-schedule") {
		cfg.Cluster.SyncSchedule = command.String("sync-schedule")
	}

	if command.IsSet("strict-schemas") {
		cfg.StrictSchemas = command.Bool("strict-schemas")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration: %w", err)
	}

	return cfg, nil
}
