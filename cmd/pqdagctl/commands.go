package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukex/pqdag-console/pkg/cluster"
	"github.com/dukex/pqdag-console/pkg/cmd"
	"github.com/dukex/pqdag-console/pkg/config"
	"github.com/dukex/pqdag-console/pkg/console"
	"github.com/dukex/pqdag-console/pkg/log"
	"github.com/dukex/pqdag-console/pkg/models"
	"github.com/urfave/cli/v3"
)

// newConsole builds a console for one invocation. Cluster state starts
// unknown in every process.
func newConsole(command *cli.Command) (*console.Console, error) {
	root := command.Root()
	log.Setup(root.String("log-level"))

	cfg, err := config.Load(root.String("config"))
	if err != nil {
		return nil, err
	}

	if root.IsSet("backend-url") {
		cfg.BackendURL = root.String("backend-url")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.WithModule("pqdagctl")

	gw, err := cmd.NewGateway(cfg, nil, nil, logger)
	if err != nil {
		return nil, err
	}

	return console.New(gw, logger, console.Config{
		ProgressDelays: cfg.ProgressDelays,
		MasterIP:       cfg.Query.MasterIP,
		PlanNumber:     cfg.Query.PlanNumber,
		BoundDataset:   cfg.Cluster.BoundDataset,
	}), nil
}

func datasetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "dataset",
		Aliases:  []string{"d"},
		Usage:    "Dataset identifier",
		Required: true,
	}
}

func allocateCommand() *cli.Command {
	return &cli.Command{
		Name:  "allocate",
		Usage: "Compute statistics, dependency graph and partitioning of a dataset",
		Flags: []cli.Flag{
			datasetFlag(),
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of worker machines",
				Value:   2,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			c, err := newConsole(command)
			if err != nil {
				return err
			}

			state, err := c.Pipeline.BeginAllocation(ctx, command.String("dataset"), command.Int("workers"))
			renderPipeline(command.Root().Writer, state)

			return err
		},
	}
}

func distributeCommand() *cli.Command {
	return &cli.Command{
		Name:  "distribute",
		Usage: "Deploy the fragments of an allocated dataset to the workers",
		Flags: []cli.Flag{
			datasetFlag(),
			&cli.BoolFlag{
				Name:  "clean-after",
				Usage: "Remove intermediate files after distribution",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			c, err := newConsole(command)
			if err != nil {
				return err
			}

			dataset := command.String("dataset")

			if _, err := c.Pipeline.LoadResults(ctx, dataset); err != nil {
				return fmt.Errorf("no allocation results for %s, run allocate first: %w", dataset, err)
			}

			state, err := c.Pipeline.Distribute(ctx, dataset, command.Bool("clean-after"))
			renderPipeline(command.Root().Writer, state)

			return err
		},
	}
}

func resultsCommand() *cli.Command {
	return &cli.Command{
		Name:  "results",
		Usage: "Show the results of a previous allocation",
		Flags: []cli.Flag{datasetFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			c, err := newConsole(command)
			if err != nil {
				return err
			}

			state, err := c.Pipeline.LoadResults(ctx, command.String("dataset"))
			if err != nil {
				return err
			}

			renderPipeline(command.Root().Writer, state)

			return nil
		},
	}
}

func clusterCommand() *cli.Command {
	subcommand := func(op cluster.Operation, usage string) *cli.Command {
		return &cli.Command{
			Name:  string(op),
			Usage: usage,
			Action: func(ctx context.Context, command *cli.Command) error {
				c, err := newConsole(command)
				if err != nil {
					return err
				}

				snapshot, err := c.Cluster.Do(ctx, op)
				renderCluster(command.Root().Writer, snapshot)

				return err
			},
		}
	}

	return &cli.Command{
		Name:  "cluster",
		Usage: "Manage the query cluster",
		Commands: []*cli.Command{
			subcommand(cluster.OpStart, "Start the cluster"),
			subcommand(cluster.OpStop, "Stop the cluster"),
			subcommand(cluster.OpRestart, "Restart the cluster"),
			subcommand(cluster.OpClear, "Kill leftover Java processes on every node"),
		},
	}
}

func datasetCommand() *cli.Command {
	return &cli.Command{
		Name:  "dataset",
		Usage: "Inspect or change the dataset bound to the cluster",
		Commands: []*cli.Command{
			{
				Name:      "bind",
				Usage:     "Bind the cluster to a dataset",
				ArgsUsage: "<dataset>",
				Action: func(ctx context.Context, command *cli.Command) error {
					c, err := newConsole(command)
					if err != nil {
						return err
					}

					snapshot, err := c.Cluster.BindDataset(ctx, command.Args().First())
					if err != nil {
						return err
					}

					renderCluster(command.Root().Writer, snapshot)

					return nil
				},
			},
			{
				Name:  "current",
				Usage: "Print the dataset the cluster is bound to",
				Action: func(ctx context.Context, command *cli.Command) error {
					c, err := newConsole(command)
					if err != nil {
						return err
					}

					dataset, err := c.Catalog.CurrentDataset(ctx)
					if err != nil {
						return err
					}

					fmt.Fprintln(command.Root().Writer, dataset)

					return nil
				},
			},
		},
	}
}

func catalogCommand() *cli.Command {
	list := func(name, usage string, fetch func(context.Context, *console.Console, *cli.Command) ([]string, error)) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(ctx context.Context, command *cli.Command) error {
				c, err := newConsole(command)
				if err != nil {
					return err
				}

				items, err := fetch(ctx, c, command)
				if err != nil {
					return err
				}

				renderList(command.Root().Writer, items)

				return nil
			},
		}
	}

	return &cli.Command{
		Name:  "catalog",
		Usage: "Browse datasets and query artifacts",
		Commands: []*cli.Command{
			list("datasets", "List datasets available to the pipeline",
				func(ctx context.Context, c *console.Console, _ *cli.Command) ([]string, error) {
					return c.Catalog.ListPipelineDatasets(ctx)
				}),
			list("query-sets", "List query sets",
				func(ctx context.Context, c *console.Console, _ *cli.Command) ([]string, error) {
					return c.Catalog.ListQuerySets(ctx)
				}),
			list("queries", "List the query files of a query set",
				func(ctx context.Context, c *console.Console, command *cli.Command) ([]string, error) {
					return c.Catalog.ListQueryArtifacts(ctx, command.Args().First())
				}),
			{
				Name:      "show",
				Usage:     "Print a query file",
				ArgsUsage: "<query-set> <query-file>",
				Action: func(ctx context.Context, command *cli.Command) error {
					c, err := newConsole(command)
					if err != nil {
						return err
					}

					content, err := c.Catalog.QueryArtifactContent(ctx, command.Args().Get(0), command.Args().Get(1))
					if err != nil {
						return err
					}

					fmt.Fprintln(command.Root().Writer, content)

					return nil
				},
			},
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Execute a query file against the cluster",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Query file name",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "Dataset or query set (defaults to the bound dataset)",
			},
			&cli.StringFlag{
				Name:  "master-ip",
				Usage: "Address of the cluster master",
			},
			&cli.IntFlag{
				Name:  "plan",
				Usage: "Execution plan number",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			c, err := newConsole(command)
			if err != nil {
				return err
			}

			req := models.QueryExecutionRequest{
				Dataset:   command.String("dataset"),
				QueryFile: command.String("file"),
				MasterIP:  command.String("master-ip"),
			}

			if command.IsSet("plan") {
				plan := command.Int("plan")
				req.PlanNumber = &plan
			}

			outcome, err := c.Queries.Execute(ctx, req)
			if err != nil {
				return err
			}

			renderOutcome(command.Root().Writer, outcome)

			if outcome.Result != nil && !outcome.Result.Succeeded() {
				return errors.New("query failed")
			}

			return nil
		},
	}
}

func filesCommand() *cli.Command {
	return &cli.Command{
		Name:  "files",
		Usage: "Manage raw RDF data on the backend",
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload .nt or .ttl files",
				ArgsUsage: "<file>...",
				Action: func(ctx context.Context, command *cli.Command) error {
					c, err := newConsole(command)
					if err != nil {
						return err
					}

					blobs, err := readFiles(command.Args().Slice())
					if err != nil {
						return err
					}

					result, err := c.Files.Upload(ctx, blobs)
					if err != nil {
						return err
					}

					renderUpload(command.Root().Writer, result)

					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List uploaded files",
				Action: func(ctx context.Context, command *cli.Command) error {
					c, err := newConsole(command)
					if err != nil {
						return err
					}

					listing, err := c.Files.List(ctx)
					if err != nil {
						return err
					}

					renderListing(command.Root().Writer, listing)

					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every uploaded file",
				Action: func(ctx context.Context, command *cli.Command) error {
					c, err := newConsole(command)
					if err != nil {
						return err
					}

					return c.Files.Clear(ctx)
				},
			},
		},
	}
}

func readFiles(paths []string) ([]models.FileBlob, error) {
	blobs := make([]models.FileBlob, 0, len(paths))

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		blobs = append(blobs, models.FileBlob{
			Name:    filepath.Base(path),
			Size:    int64(len(content)),
			Content: content,
		})
	}

	return blobs, nil
}
