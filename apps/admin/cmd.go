package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/penilaian/core/grade"
	"github.com/trezcool/penilaian/storage/database"
)

var (
	gooseRunFunc = database.RunMigration // mockable

	errHelp = errors.New("help provided")
)

// legacyReader reads the scores stored in the per-category tables.
type legacyReader interface {
	ReadLegacyScores(ctx context.Context) ([]grade.LegacyRow, error)
}

type commandLine struct {
	db     *sqlx.DB
	svc    grade.Service
	legacy legacyReader
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations (up, up-by-one, up-to, down, down-to, redo, reset, status, version)")
	fmt.Fprintln(cli.out, "  recompute [-user ID]   - recompute the final grade of a user, or of every graded user")
	fmt.Fprintln(cli.out, "  importlegacy           - import the scores of the per-category tables")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	recomputeCmd := flag.NewFlagSet("recompute", flag.ContinueOnError)
	recomputeCmd.SetOutput(cli.out)
	recomputeUser := recomputeCmd.String("user", "", "The id of the user. Every graded user if empty.")

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "recompute":
		if err := recomputeCmd.Parse(args[2:]); err != nil {
			if err == flag.ErrHelp {
				return errHelp
			}
			return err
		}
		return cli.recompute(ctx, *recomputeUser)
	case "importlegacy":
		return cli.importLegacy(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}

func (cli *commandLine) recompute(ctx context.Context, userID string) error {
	if userID == "" {
		count, err := cli.svc.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%d final grade(s) recomputed\n", count)
		return nil
	}

	if _, err := cli.svc.FinalGrade(ctx, userID); err != nil {
		return err
	}
	fg, err := cli.svc.Recompute(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s: %d (%s)\n", userID, fg.FinalScore, fg.Predicate)
	return nil
}

func (cli *commandLine) importLegacy(ctx context.Context) error {
	rows, err := cli.legacy.ReadLegacyScores(ctx)
	if err != nil {
		return err
	}
	count, err := cli.svc.ImportLegacy(ctx, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d row(s) read, %d user(s) imported\n", len(rows), count)
	return nil
}
