package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pratik071103/case-link-share/core"
	"github.com/pratik071103/case-link-share/core/casefile"
)

// addChildCmd opens a case for a new child and prints its slug.
func (cli *commandLine) addChildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addchild NAME",
		Short: "Open a case for a new child",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nc := casefile.NewChild{Name: strings.Join(args, " ")}
			if err := nc.Validate(cli.validate); err != nil {
				if vErrs, ok := err.(validator.ValidationErrors); ok {
					return errors.Errorf("invalid child: %v", core.TranslateValidationErrors(vErrs, cli.translator))
				}
				return err
			}
			c, err := cli.caseSvc.CreateCase(cmd.Context(), nc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.CaseSlug)
			return nil
		},
	}
}

func (cli *commandLine) listCasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listcases",
		Short: "List every case, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			children, err := cli.caseSvc.ListChildren(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tNAME\tCREATED")
			for _, child := range children {
				fmt.Fprintf(w, "%s\t%s\t%s\n", child.CaseSlug, child.Name, child.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
