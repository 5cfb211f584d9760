package main

import (
	"context"
	"os"

	"github.com/briannabogos1157/threadtwin/internal/app"
	config "github.com/briannabogos1157/threadtwin/internal/cfg"
	"github.com/briannabogos1157/threadtwin/pkg/e"
	"github.com/briannabogos1157/threadtwin/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.NewSlogLogger()

	cliApp := &cli.App{
		Name:  "catalogctl",
		Usage: "Maintenance commands for the product catalog and the embedding index",
		Commands: []*cli.Command{
			{
				Name:      "import-csv",
				Aliases:   []string{"i"},
				Usage:     "Import products from a vendor CSV file",
				ArgsUsage: "<file.csv>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Value: "csv", Usage: "source tag for rows without a source column"},
				},
				Action: withDeps(log, importCSV),
			},
			{
				Name:   "seed",
				Usage:  "Replace seed products with the built-in sample catalog",
				Action: withDeps(log, seed),
			},
			{
				Name:  "delete-products",
				Usage: "Delete products by source, or all of them with --all",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Usage: "delete only products with this source"},
					&cli.BoolFlag{Name: "all", Usage: "delete every product"},
				},
				Action: withDeps(log, deleteProducts),
			},
			{
				Name:      "extract",
				Aliases:   []string{"x"},
				Usage:     "Extract structured product data from a file of descriptions, one per line",
				ArgsUsage: "<descriptions.txt>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "store", Usage: "embed each description and add it to the index"},
					&cli.StringFlag{Name: "out", Usage: "write results as JSON to this file"},
				},
				Action: withDeps(log, extract),
			},
			{
				Name:      "find-dupes",
				Aliases:   []string{"d"},
				Usage:     "Search the web for affordable alternatives to an item",
				ArgsUsage: "<item name>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Value: 5, Usage: "number of search results"},
				},
				Action: withDeps(log, findDupes),
			},
			{
				Name:  "embeddings",
				Usage: "Check stored embeddings",
				Subcommands: []*cli.Command{
					{
						Name:   "validate",
						Usage:  "Report stored embeddings with a wrong dimension or non-finite values",
						Flags:  []cli.Flag{dimFlag()},
						Action: withDeps(log, validateEmbeddings),
					},
					{
						Name:   "purge",
						Usage:  "Delete stored embeddings that fail validation",
						Flags:  []cli.Flag{dimFlag()},
						Action: withDeps(log, purgeEmbeddings),
					},
				},
			},
			{
				Name:  "snapshot",
				Usage: "Save or restore index snapshots in object storage",
				Subcommands: []*cli.Command{
					{
						Name:   "save",
						Usage:  "Load the index from storage and upload a snapshot",
						Action: withDeps(log, saveSnapshot),
					},
					{
						Name:  "restore",
						Usage: "Restore a snapshot into empty storage",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "key", Usage: "snapshot key, latest by default"},
						},
						Action: withDeps(log, restoreSnapshot),
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Errorf(err, "catalogctl failed")
		os.Exit(1)
	}
}

type action func(c *cli.Context, deps *app.Deps) error

// withDeps загружает конфигурацию, собирает зависимости и закрывает их после выполнения команды.
func withDeps(log logger.Logger, fn action) cli.ActionFunc {
	return func(c *cli.Context) (err error) {
		cfg, err := config.Load(log)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		deps, err := app.BuildDeps(c.Context, cfg, log)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		defer func() {
			if cerr := deps.Closer.Close(context.Background()); cerr != nil && err == nil {
				err = cerr
			}
		}()

		return fn(c, deps)
	}
}

func dimFlag() cli.Flag {
	return &cli.IntFlag{Name: "dim", Value: 1536, Usage: "expected embedding dimension"}
}
