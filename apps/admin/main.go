package main

import (
	"log"
	"os"

	"github.com/trezcool/penilaian/core"
	"github.com/trezcool/penilaian/core/grade"
	logsvc "github.com/trezcool/penilaian/services/logger"
	"github.com/trezcool/penilaian/storage/database"
	sqlxrepos "github.com/trezcool/penilaian/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal("pinging database", err)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		svc:    grade.NewService(sqlxrepos.NewGradeRepository(db), logger, nil),
		legacy: sqlxrepos.NewLegacyReader(db),
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
