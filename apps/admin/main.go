package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage"
	"github.com/trezcool/mahudhurio/storage/database"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	errAndDie(database.Ping(db.DB))

	// set up services
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	settingsRepo, recordStore, err := storage.AttendanceStores(context.Background(), conf, db, appLogger)
	errAndDie(err)
	stdSvc := student.NewService(sqlxrepos.NewStudentRepository(db))

	// start CLI
	cli := commandLine{
		db:     db.DB,
		stdSvc: stdSvc,
		attSvc: attendance.NewService(attendance.ServiceDeps{
			Conf:     conf.Attendance,
			Logger:   appLogger,
			Students: stdSvc,
			Settings: settingsRepo,
			Records:  recordStore,
		}),
		validate: validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
