package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/penilaian/core"
	appfs "github.com/trezcool/penilaian/fs"
	"github.com/trezcool/penilaian/storage/database"
)

type testLogger struct {
	t *testing.T
}

var _ core.Logger = (*testLogger)(nil)

// NewLogger returns a core.Logger writing to the test log.
func NewLogger(t *testing.T) core.Logger {
	return &testLogger{t: t}
}

func (l *testLogger) log(level, msg string, args []interface{}) {
	l.t.Helper()
	if len(args) > 0 {
		l.t.Logf("%s: %s %v", level, msg, args)
		return
	}
	l.t.Logf("%s: %s", level, msg)
}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *testLogger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *testLogger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *testLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *testLogger) Fatal(msg string, args ...interface{}) {
	l.t.Helper()
	l.t.Fatalf("FATAL: %s %v", msg, args)
}

// grade tables, children first
var tables = []string{"nilai_akhir", "penilaian", "sub_aspek", "parameter_penilaian"}

// PrepareDB connects to the test database and migrates it. Once the test ends, every grade table
// is emptied and the default categories are seeded again.
// The test is skipped when no database is reachable.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	if os.Getenv("ENV") == "" {
		t.Setenv("ENV", "TEST")
	}
	conf := core.NewConfig()

	db, err := database.Open(conf)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("database unavailable: %v", err)
	}

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}

	t.Cleanup(func() {
		defer func() { _ = db.Close() }()
		for _, table := range tables {
			if _, err := db.Exec("DELETE FROM " + table); err != nil {
				t.Errorf("PrepareDB() cleanup failed: %v", err)
				return
			}
		}
		goose.SetBaseFS(appfs.FS)
		if err := goose.DownTo(db.DB, appfs.MigrationsDir, database.SchemaVersion); err != nil {
			t.Errorf("PrepareDB() cleanup failed: %v", err)
			return
		}
		if err := goose.Up(db.DB, appfs.MigrationsDir); err != nil {
			t.Errorf("PrepareDB() cleanup failed: %v", err)
		}
	})
	return db
}
