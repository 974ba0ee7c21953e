package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/casefile"
	"github.com/pratik071103/case-link-share/storage/database"
	"github.com/pratik071103/case-link-share/storage/database/postgres"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	ctx := context.Background()
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(ctx, conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(ctx, db))

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// start CLI
	cli := &commandLine{
		db:         db,
		caseSvc:    casefile.NewService(pgrepos.NewCaseFileRepository(db)),
		validate:   validate,
		translator: translator,
	}
	if err := cli.rootCmd().ExecuteContext(ctx); err != nil {
		logger.Printf("error: %s\n", err)
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
