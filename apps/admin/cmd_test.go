package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/penilaian/core"
	"github.com/trezcool/penilaian/core/grade"
	inmemdb "github.com/trezcool/penilaian/storage/database/inmem"
	testutil "github.com/trezcool/penilaian/tests"
)

type legacyReaderMock struct {
	rows []grade.LegacyRow
	err  error
}

func (m legacyReaderMock) ReadLegacyScores(context.Context) ([]grade.LegacyRow, error) {
	return m.rows, m.err
}

func setup(t *testing.T, legacy legacyReaderMock) (*commandLine, *bytes.Buffer) {
	db, err := inmemdb.Open()
	require.NoError(t, err)

	out := new(bytes.Buffer)
	return &commandLine{
		svc:    grade.NewService(inmemdb.NewGradeRepository(db), testutil.NewLogger(t), nil),
		legacy: legacy,
		out:    out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				require.NoError(t, err)
				if tt.wantOut != "" {
					assert.Equal(t, tt.wantOut, out.String())
				}
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t, legacyReaderMock{})

	runCLITests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "recompute help", args: []string{"recompute", "-h"}, wantErr: errHelp},
		{name: "recompute unknown flag", args: []string{"recompute", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t, legacyReaderMock{})

	origFunc := gooseRunFunc
	defer func() { gooseRunFunc = origFunc }()

	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, out, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	})
}

func Test_commandLine_recompute(t *testing.T) {
	cli, out := setup(t, legacyReaderMock{})
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2"} {
		_, err := cli.svc.Submit(ctx, userID, grade.Submission{
			Parameter: "p",
			Scores:    grade.Scores{"Fitur Utama": {"Sub-aspek 1": 5}},
		})
		require.NoError(t, err)
	}

	runCLITests(t, cli, out, []cliTest{
		{name: "every user", args: []string{"recompute"}, wantOut: "2 final grade(s) recomputed\n"},
		{name: "one user", args: []string{"recompute", "-user", "u1"}, wantOut: "u1: 85 (AB)\n"},
		{name: "unknown user", args: []string{"recompute", "-user", "u3"}, wantErr: grade.ErrFinalGradeNotFound},
	})

	// an unknown user gets no final grade
	var nfErr *core.NotFoundError
	_, err := cli.svc.FinalGrade(ctx, "u3")
	assert.ErrorAs(t, err, &nfErr)
}

func Test_commandLine_importLegacy(t *testing.T) {
	rows := []grade.LegacyRow{
		{UserID: "u1", CategoryTitle: "Penguasaan Materi", Values: map[string]int{"subaspek_1": 3, "konsep": 2}},
		{UserID: "u1", CategoryTitle: "Celah Keamanan", Values: map[string]int{"subaspek_1": 1}},
		{UserID: "u2", CategoryTitle: "Fitur Utama", Values: map[string]int{"login": 10}},
	}
	cli, out := setup(t, legacyReaderMock{rows: rows})

	runCLITests(t, cli, out, []cliTest{
		{name: "import", args: []string{"importlegacy"}, wantOut: "3 row(s) read, 2 user(s) imported\n"},
	})

	ctx := context.Background()
	scores, err := cli.svc.Scores(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, grade.Scores{
		"Penguasaan Materi": {"Sub-aspek 1": 3, "konsep": 2},
		"Celah Keamanan":    {"Sub-aspek 1": 1},
	}, scores)

	fg, err := cli.svc.FinalGrade(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 84, fg.FinalScore)

	fg, err = cli.svc.FinalGrade(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 80, fg.FinalScore)
	assert.Equal(t, "AB", fg.Predicate)

	// read failures abort the import
	failing, _ := setup(t, legacyReaderMock{err: errors.New("connection refused")})
	assert.EqualError(t, failing.run([]string{"admin", "importlegacy"}), "connection refused")
}
