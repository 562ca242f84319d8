// Command pqdagctl drives the PQDAG backend from a terminal.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "pqdagctl",
		Usage:                 "Allocate, distribute and query PQDAG datasets",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			allocateCommand(),
			distributeCommand(),
			resultsCommand(),
			clusterCommand(),
			datasetCommand(),
			catalogCommand(),
			queryCommand(),
			filesCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
