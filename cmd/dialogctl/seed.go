package main

import (
	"fmt"
	"sort"

	"github.com/courtroom-studio/engine/internal/fixtures"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var dir, owner string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the role catalog and sample cases",
		Long:  "Seed writes the role catalog and imports every case file. Cases already imported are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dir == "" {
				dir = a.cfg.FixturesDir
			}

			var (
				set *fixtures.Set
				err error
			)
			if dir == "" {
				set, err = fixtures.Embedded()
			} else {
				set, err = fixtures.Dir(dir)
			}
			if err != nil {
				return err
			}

			actor, err := a.actorFor(ctx, owner)
			if err != nil {
				return err
			}

			templates := repository.NewRoleTemplateRepository(a.db)
			records := repository.NewImportRecordRepository(a.db)
			seeder := fixtures.NewSeeder(templates, records, services.NewImportService(a.db, templates, a.settings))

			res, err := seeder.Seed(ctx, actor, set)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "role templates: %d\n", res.Templates)
			names := make([]string, 0, len(res.Imported))
			for name := range res.Imported {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				r := res.Imported[name]
				fmt.Fprintf(out, "imported %s -> %s (%d nodes, %d connections)\n", name, r.ScenarioID, r.NodesCreated, r.ConnectionsCreated)
			}
			for _, name := range res.Skipped {
				fmt.Fprintf(out, "skipped %s (already imported)\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "fixture directory (defaults to FIXTURES_DIR, then the embedded set)")
	cmd.Flags().StringVar(&owner, "owner", "", "email of the user who will own seeded scenarios")
	return cmd
}
