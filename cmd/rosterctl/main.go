package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"roster/internal/auth"
	"roster/internal/config"
	"roster/internal/logging"
	"roster/internal/model"
	"roster/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Administrative commands for the roster service",
		SilenceUsage:  true,
	}
	cmd.AddCommand(newMigrateCommand(), newUserCommand())
	return cmd
}

// withBackend opens the configured store for the duration of fn.
func withBackend(ctx context.Context, fn func(*store.Backend, config.App, *logrus.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Production())
	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close()
	return fn(backend, cfg, log)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(_ *store.Backend, cfg config.App, log *logrus.Logger) error {
				log.WithField("backend", cfg.StoreBackend).Info("schema is up to date")
				return nil
			})
		},
	}
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account management commands",
	}
	cmd.AddCommand(newUserCreateCommand())
	return cmd
}

func newUserCreateCommand() *cobra.Command {
	var in auth.RegisterInput
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with any role",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Role = model.Role(role)
			return withBackend(cmd.Context(), func(b *store.Backend, cfg config.App, log *logrus.Logger) error {
				tokens := auth.NewTokens(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
				accounts := auth.NewAccounts(b.Users, tokens, auth.NewMemorySessions(), log)
				u, err := accounts.CreateUser(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Username, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "initial password")
	cmd.Flags().StringVarP(&role, "role", "r", string(model.RoleEmployee), "ADMIN or EMPLOYEE")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
