package main

import (
	"github.com/spf13/cobra"

	"github.com/pratik071103/case-link-share/storage/database"
)

var runMigrationsFunc = database.RunMigrations // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a migration command: up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrationsFunc(cmd.Context(), cli.db, args[0], args[1:]...)
		},
	}
}
