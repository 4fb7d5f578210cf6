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

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Hand samples to auditors",
}

var assignOneCmd = &cobra.Command{
	Use:   "one <sample-ref> <auditor-id>",
	Short: "Assign one sample to a named auditor",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		view, err := svc.AssignOne(ctx, cmd.Flags().Arg(0), cmd.Flags().Arg(1))
		if err != nil {
			logging.Error(ctx, "assign sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "assign sample")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to %s\n", view.SampleRef, view.AssignedTo); err != nil {
			return errs.Wrap(err, "write assign output")
		}
		return nil
	}),
}

var assignRandomCmd = &cobra.Command{
	Use:   "random <sample-ref>",
	Short: "Assign one sample to the least-loaded eligible auditor",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		view, err := svc.AssignRandom(ctx, cmd.Flags().Arg(0))
		if err != nil {
			logging.Error(ctx, "assign sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "assign sample")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to %s\n", view.SampleRef, view.AssignedTo); err != nil {
			return errs.Wrap(err, "write assign output")
		}
		return nil
	}),
}

var assignBulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Distribute a batch of samples across auditors",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		sampleRefs, _ := cmd.Flags().GetStringSlice("sample")
		auditorIDs, _ := cmd.Flags().GetStringSlice("auditor")

		result, err := svc.BulkAssign(ctx, audit.BulkAssignInput{
			SampleRefs: sampleRefs,
			AuditorIDs: auditorIDs,
		})
		if err != nil {
			logging.Error(ctx, "bulk assign failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "bulk assign")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "assigned %d of %d samples\n", result.AssignedCount, len(sampleRefs)); err != nil {
			return errs.Wrap(err, "write bulk assign output")
		}
		for _, item := range result.Errors {
			ref := item.SampleRef
			if ref == "" {
				ref = "-"
			}
			auditor := item.AuditorID
			if auditor == "" {
				auditor = "-"
			}
			if _, err := fmt.Fprintf(out, "failed sample=%s auditor=%s: %s\n", ref, auditor, item.Reason); err != nil {
				return errs.Wrap(err, "write bulk assign output")
			}
		}
		return nil
	}),
}

func init() {
	assignBulkCmd.Flags().StringSlice("sample", nil, "Sample ref to distribute (repeatable)")
	assignBulkCmd.Flags().StringSlice("auditor", nil, "Auditor id to receive work (repeatable)")

	assignCmd.AddCommand(assignOneCmd, assignRandomCmd, assignBulkCmd)
	rootCmd.AddCommand(assignCmd)
}
