package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/starford/adrbook/internal"
	"github.com/starford/adrbook/internal/adr"
	"github.com/starford/adrbook/internal/models"
)

var errUsage = errors.New("wrong number of arguments")

// withRuntime opens the project for a one-shot command. Logs go to stderr
// at warn level so they do not mix with command output.
func withRuntime(ctx context.Context, cmd *cli.Command, fn func(*internal.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	rt, err := internal.NewRuntime(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func newADR(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("new <title>: %w", errUsage)
	}
	return withRuntime(ctx, cmd, func(rt *internal.Runtime) error {
		d, err := rt.Service.CreateADR(ctx, cmd.String("id"), cmd.Args().First())
		if err != nil && !adr.IsPartial(err) {
			return err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		fmt.Fprintf(os.Stdout, "%s\t%s\n", d.ADR.Slug, d.ADR.Path)
		return nil
	})
}

func previewSlug(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("slug <title>: %w", errUsage)
	}
	return withRuntime(ctx, cmd, func(rt *internal.Runtime) error {
		s, err := rt.Service.GenerateSlug(ctx, cmd.String("package"), cmd.Args().First())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, s)
		return nil
	})
}

func showADR(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("show <slug>: %w", errUsage)
	}
	return withRuntime(ctx, cmd, func(rt *internal.Runtime) error {
		d, err := rt.Service.GetADR(ctx, cmd.Args().First())
		if err != nil {
			return err
		}
		_, err = io.WriteString(os.Stdout, d.ADR.Body.Raw)
		return err
	})
}

func supersede(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 2 {
		return fmt.Errorf("supersede <superseded> <superseder>: %w", errUsage)
	}
	return withRuntime(ctx, cmd, func(rt *internal.Runtime) error {
		superseded, superseder := cmd.Args().Get(0), cmd.Args().Get(1)
		err := rt.Service.Supersede(ctx, superseded, superseder)
		if err != nil && !adr.IsPartial(err) {
			return err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		fmt.Fprintf(os.Stdout, "%s superseded by %s\n", superseded, superseder)
		return nil
	})
}

func listADRs(ctx context.Context, cmd *cli.Command) error {
	return withRuntime(ctx, cmd, func(rt *internal.Runtime) error {
		adrs := rt.Service.Repository().List(adr.Filter{
			Status:  models.Status(cmd.String("status")),
			Package: cmd.String("package"),
		})
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tSTATUS\tSLUG\tTITLE")
		for _, a := range adrs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Date.Format(adr.DateLayout), a.Status, a.Slug, a.Title)
		}
		return tw.Flush()
	})
}
