package main

import (
	"encoding/json"
	"os"

	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newExportCmd(a *app) *cobra.Command {
	var out, format string

	cmd := &cobra.Command{
		Use:   "export <scenario-id>",
		Short: "Write a scenario as an import document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseScenarioID(args[0])
			if err != nil {
				return err
			}
			svc := services.NewScenarioService(a.db, repository.NewScenarioRepository(a.db), repository.NewImportRecordRepository(a.db), a.settings)
			doc, err := svc.Export(cmd.Context(), services.System, id)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if format == "yaml" {
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(doc)
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to stdout)")
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	return cmd
}
