package main

import (
	"fmt"
	"log"
	"os"

	"context-retriever-be/internal/bootstrap"
	"context-retriever-be/internal/config"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/database"
	"context-retriever-be/pkg/ingest"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ingest",
		Usage: "Load, chunk, embed and store documents for the indexed backend",
		Commands: []*cli.Command{
			{
				Name:   "dir",
				Usage:  "Ingest every .txt, .md and .pdf file under a directory",
				Action: dirCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Aliases:  []string{"p"},
						Usage:    "Directory to walk",
						Required: true,
					},
				},
			},
			{
				Name:   "placeholder",
				Usage:  "Insert the placeholder document if the table is empty",
				Action: placeholderCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCore() (*bootstrap.Core, error) {
	cfg := config.Load()

	db, err := database.NewQuietGormDB(cfg.Database.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return bootstrap.NewCore(db, cfg, logger.NewZapLogger(cfg.App.LogFilePath, false))
}

func dirCommand(c *cli.Context) error {
	core, err := newCore()
	if err != nil {
		return err
	}
	defer core.Close()

	dir := c.String("path")
	color.Cyan("📂 Loading documents from %s", dir)

	docs, failed, err := ingest.LoadDirectory(c.Context, dir)
	if err != nil {
		return err
	}
	for path, loadErr := range failed {
		color.Red("   skipped %s: %v", path, loadErr)
	}

	if len(docs) == 0 {
		color.Yellow("No documents found, ensuring placeholder instead")
		_, err := core.Pipeline.EnsurePlaceholder(c.Context)
		return err
	}

	report, err := core.Pipeline.Ingest(c.Context, docs)
	if err != nil {
		return err
	}

	color.Green("✅ Ingested %d chunks from %d sources (%d chunks failed)", report.Chunks, len(report.Sources), report.Failed)
	for _, src := range report.Sources {
		fmt.Printf("   - %s\n", src)
	}
	return nil
}

func placeholderCommand(c *cli.Context) error {
	core, err := newCore()
	if err != nil {
		return err
	}
	defer core.Close()

	created, err := core.Pipeline.EnsurePlaceholder(c.Context)
	if err != nil {
		return err
	}
	if created {
		color.Green("✅ Placeholder document inserted")
	} else {
		color.Yellow("Documents already present, nothing to do")
	}
	return nil
}
