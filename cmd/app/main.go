package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/adrbook/internal"
	pkgconfig "github.com/starford/adrbook/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Project.Root = root
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "adrbook",
		Usage:   "Architecture Decision Records for multi-package projects",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root, overrides project.root from the config file",
				Sources: cli.EnvVars("ADRBOOK_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live reload of ADR folders",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve ADR tools over the Model Context Protocol on stdio",
				Action: serveMCP,
			},
			{
				Name:      "new",
				Usage:     "Create a draft ADR from its scope template",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "id",
						Aliases: []string{"i"},
						Usage:   `Identifier: "<package>/<slug>", "<package>/" or "<slug>"`,
					},
				},
				Action: newADR,
			},
			{
				Name:      "slug",
				Usage:     "Preview the slug a new ADR would receive",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "package",
						Aliases: []string{"p"},
						Usage:   "Package scope",
					},
				},
				Action: previewSlug,
			},
			{
				Name:      "show",
				Usage:     "Print an ADR",
				ArgsUsage: "<slug>",
				Action:    showADR,
			},
			{
				Name:      "supersede",
				Usage:     "Mark an ADR as superseded by another",
				ArgsUsage: "<superseded> <superseder>",
				Action:    supersede,
			},
			{
				Name:  "list",
				Usage: "List ADRs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status"},
					&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "Filter by package"},
				},
				Action: listADRs,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
