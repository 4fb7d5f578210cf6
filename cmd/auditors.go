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

var auditorsCmd = &cobra.Command{
	Use:   "auditors",
	Short: "List eligible auditors with their current workload",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		excluding, _ := cmd.Flags().GetString("excluding")
		auditors, err := svc.ListEligibleAuditors(ctx, excluding)
		if err != nil {
			logging.Error(ctx, "list auditors failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list auditors")
		}

		if len(auditors) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no eligible auditors"); err != nil {
				return errs.Wrap(err, "write auditors output")
			}
			return nil
		}

		for _, auditor := range auditors {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s name=%s workload=%d\n", auditor.ID, auditor.Username, auditor.Workload); err != nil {
				return errs.Wrap(err, "write auditors output")
			}
		}
		return nil
	}),
}

func init() {
	auditorsCmd.Flags().String("excluding", "", "Auditor id to leave out of the list")
	rootCmd.AddCommand(auditorsCmd)
}
