package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"
	"github.com/vasiliy-maslov/velora/internal/auth"
	"github.com/vasiliy-maslov/velora/internal/config"
	"github.com/vasiliy-maslov/velora/internal/user"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its bearer token",
		Long: `Create a user and print its bearer token.

The token is shown once. Only its bcrypt hash is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			admin, _ := cmd.Flags().GetBool("admin")

			if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
				return errors.New("--name and --email are required")
			}

			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			setupLogger(cfg.App, "order-service")

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.close()

			id, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("failed to generate user ID: %w", err)
			}
			token, hash, err := auth.NewToken(id)
			if err != nil {
				return err
			}

			u := &user.User{ID: id, Name: name, Email: email, IsAdmin: admin, TokenHash: hash}
			if err := st.users.Create(ctx, u); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user:  %s (%s)\nadmin: %t\ntoken: %s\n", u.ID, u.Email, u.IsAdmin, token)
			return nil
		},
	}

	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("email", "", "Email address, unique per user")
	cmd.Flags().Bool("admin", false, "Grant admin rights")
	return cmd
}
