package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"auditflow/internal/bootstrap"
	"auditflow/internal/bootstrap/logging"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
	"auditflow/internal/usecase/audit"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage directory accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Add a directory account",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, _ *audit.Service, users ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		username, _ := cmd.Flags().GetString("name")
		canAudit, _ := cmd.Flags().GetBool("auditor")
		protected, _ := cmd.Flags().GetBool("protected")
		userID := cmd.Flags().Arg(0)

		if username == "" {
			username = userID
		}

		if err := users.CreateUser(ctx, ports.UserInfo{
			ID:        userID,
			Username:  username,
			Active:    true,
			CanAudit:  canAudit,
			Protected: protected,
		}); err != nil {
			logging.Error(ctx, "create user failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create user")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "user created: %s auditor=%t\n", userID, canAudit); err != nil {
			return errs.Wrap(err, "write user add output")
		}
		return nil
	}),
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List directory accounts",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, _ *audit.Service, _ ports.UserAdmin, directory ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		entries, err := directory.ListUsers(ctx)
		if err != nil {
			logging.Error(ctx, "list users failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list users")
		}

		if len(entries) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no users"); err != nil {
				return errs.Wrap(err, "write user list output")
			}
			return nil
		}

		for _, entry := range entries {
			flags := ""
			if entry.Protected {
				flags = " protected"
			}
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s name=%s active=%t auditor=%t%s\n",
				entry.ID,
				entry.Username,
				entry.Active,
				entry.CanAudit,
				flags,
			); err != nil {
				return errs.Wrap(err, "write user list output")
			}
		}
		return nil
	}),
}

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate <user-id>",
	Short: "Deactivate an account (protected accounts refuse)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, _ *audit.Service, users ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID := cmd.Flags().Arg(0)
		if err := users.SetUserActive(ctx, userID, false); err != nil {
			logging.Error(ctx, "deactivate user failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "deactivate user")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "user deactivated: %s\n", userID); err != nil {
			return errs.Wrap(err, "write user deactivate output")
		}
		return nil
	}),
}

var userActivateCmd = &cobra.Command{
	Use:   "activate <user-id>",
	Short: "Reactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, _ *audit.Service, users ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID := cmd.Flags().Arg(0)
		if err := users.SetUserActive(ctx, userID, true); err != nil {
			logging.Error(ctx, "activate user failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "activate user")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "user activated: %s\n", userID); err != nil {
			return errs.Wrap(err, "write user activate output")
		}
		return nil
	}),
}

func init() {
	userAddCmd.Flags().String("name", "", "Display name (defaults to the user id)")
	userAddCmd.Flags().Bool("auditor", false, "Grant the audit capability")
	userAddCmd.Flags().Bool("protected", false, "Mark the account protected against deactivation")

	userCmd.AddCommand(userAddCmd, userListCmd, userDeactivateCmd, userActivateCmd)
	rootCmd.AddCommand(userCmd)
}
