package main

import (
	"context"
	"os"

	"github.com/dukex/pqdag-console/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "pqdag-console",
		Usage:                 "Operate the PQDAG allocation pipeline, cluster and queries over HTTP",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunAPICommand(),
			ValidateConfigCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("pqdag-console").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
