package main

import (
	"context"
	"fmt"

	"github.com/dukex/pqdag-console/pkg/scheduler"
	"github.com/urfave/cli/v3"
)

func ValidateConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate the configuration and exit",
		Flags: configFlags(),
		Action: func(_ context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			if cfg.Cluster.SyncSchedule != "" {
				if err := (&scheduler.BindingSync{CronExpr: cfg.Cluster.SyncSchedule}).Validate(); err != nil {
					return err
				}
			}

			fmt.Fprintf(command.Root().Writer, "configuration ok: backend %s\n", cfg.BackendURL)

			return nil
		},
	}
}
