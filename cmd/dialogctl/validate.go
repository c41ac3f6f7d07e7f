package main

import (
	"fmt"

	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario-id>",
		Short: "Check a scenario graph and list its errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseScenarioID(args[0])
			if err != nil {
				return err
			}
			svc := services.NewScenarioService(a.db, repository.NewScenarioRepository(a.db), repository.NewImportRecordRepository(a.db), a.settings)
			report, err := svc.Validate(cmd.Context(), services.System, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, i := range report.Errors {
				fmt.Fprintln(out, "error:  ", i.String())
			}
			for _, i := range report.Warnings {
				fmt.Fprintln(out, "warning:", i.String())
			}
			if !report.OK() {
				return fmt.Errorf("%d validation errors", len(report.Errors))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}
