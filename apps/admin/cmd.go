package main

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/pratik071103/case-link-share/core/casefile"
)

type commandLine struct {
	db         *sqlx.DB
	caseSvc    *casefile.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "CaseLink administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(cli.migrateCmd(), cli.addChildCmd(), cli.listCasesCmd())
	return root
}
