package main

import (
	"fmt"
	"strconv"

	"blogsys/internal/database"
	"blogsys/internal/repository"
	"blogsys/internal/service"

	"github.com/spf13/cobra"
)

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var in service.RegisterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := in.Validate(); err != nil {
				return err
			}

			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			repo := repository.NewUserRepository(db, nil, c.cfg.BcryptCost)
			user, err := repo.Create(cmd.Context(), in.Email, in.Password, in.Username)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", user.ID, user.Username)
			return nil
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "account email")
	create.Flags().StringVar(&in.Username, "username", "", "account username")
	create.Flags().StringVar(&in.Password, "password", "", "account password")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			db, err := c.connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			removed, err := repository.NewUserRepository(db, nil, c.cfg.BcryptCost).Delete(cmd.Context(), uint(id))
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("user %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(create, remove)
	return cmd
}
