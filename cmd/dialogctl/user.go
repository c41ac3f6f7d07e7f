package main

import (
	"fmt"

	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/repository"
	"github.com/courtroom-studio/engine/internal/services"
	"github.com/spf13/cobra"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var in services.RegisterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account; the only way to create admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := []byte(a.cfg.JWTSecret)
			u, err := services.NewAuthService(repository.NewUserRepository(a.db), secret).Register(cmd.Context(), &in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Name, "name", "", "display name")
	create.Flags().StringVar(&in.Password, "password", "", "initial password, at least 8 characters")
	create.Flags().StringVar(&in.Role, "role", models.UserInstructor, "admin, instructor or student")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}
