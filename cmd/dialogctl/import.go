package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/scenariofile"
	"github.com/courtroom-studio/engine/internal/services"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		owner     string
		autoRoles bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a scenario document (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			actor, err := a.actorFor(ctx, owner)
			if err != nil {
				return err
			}

			var opts services.ImportOptions
			if cmd.Flags().Changed("auto-roles") {
				opts.AutoCreateRoles = &autoRoles
			}
			importer := services.NewImportService(a.db, repository.NewRoleTemplateRepository(a.db), a.settings)

			var res *services.ImportResult
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".yaml", ".yml":
				doc, derr := scenariofile.DecodeYAML(raw)
				if derr != nil {
					return reportItems(cmd, derr)
				}
				res, err = importer.ImportDocument(ctx, actor, doc, raw, opts)
			default:
				res, err = importer.Import(ctx, actor, raw, opts)
			}
			if err != nil {
				return reportItems(cmd, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scenario %s: %d roles, %d nodes, %d options, %d connections\n",
				res.ScenarioID, res.RolesCreated, res.NodesCreated, res.OptionsCreated, res.ConnectionsCreated)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "email of the user who will own the scenario")
	cmd.Flags().BoolVar(&autoRoles, "auto-roles", false, "create roles missing from the catalog")
	return cmd
}

// reportItems prints the itemized problems of err before returning it.
func reportItems(cmd *cobra.Command, err error) error {
	for _, item := range appErr.ItemsOf(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "  -", item)
	}
	return err
}
