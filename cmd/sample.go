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

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Manage the audit sample pool",
}

var sampleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a sample to the pool",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		customer, _ := cmd.Flags().GetString("customer")
		ticket, _ := cmd.Flags().GetString("ticket")
		formType, _ := cmd.Flags().GetString("form")
		priority, _ := cmd.Flags().GetString("priority")
		metaPairs, _ := cmd.Flags().GetStringSlice("meta")

		metadata, err := parseKeyValues(metaPairs)
		if err != nil {
			return err
		}

		view, err := svc.CreateSample(ctx, audit.CreateSampleInput{
			CustomerName: customer,
			TicketID:     ticket,
			FormType:     formType,
			Priority:     priority,
			Metadata:     metadata,
		})
		if err != nil {
			logging.Error(ctx, "create sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create sample")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "sample created: %s ticket=%s form=%s\n", view.SampleRef, view.TicketID, view.FormType); err != nil {
			return errs.Wrap(err, "write sample create output")
		}
		return nil
	}),
}

var sampleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List samples (skipped hidden unless requested by status)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		assignee, _ := cmd.Flags().GetString("assignee")

		items, err := svc.ListSamples(ctx, status, assignee)
		if err != nil {
			logging.Error(ctx, "list samples failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list samples")
		}

		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no samples"); err != nil {
				return errs.Wrap(err, "write sample list output")
			}
			return nil
		}

		for _, item := range items {
			assignedTo := item.AssignedTo
			if assignedTo == "" {
				assignedTo = "-"
			}
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s status=%s assignee=%s ticket=%s form=%s draft=%t uploaded=%s\n",
				item.SampleRef,
				item.Status,
				assignedTo,
				item.TicketID,
				item.FormType,
				item.HasDraft,
				item.UploadedAt,
			); err != nil {
				return errs.Wrap(err, "write sample list output")
			}
		}
		return nil
	}),
}

var sampleShowCmd = &cobra.Command{
	Use:   "show <sample-ref>",
	Short: "Show one sample",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		view, err := svc.GetSample(ctx, cmd.Flags().Arg(0))
		if err != nil {
			logging.Error(ctx, "get sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "get sample")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ref:       %s\n", view.SampleRef)
		fmt.Fprintf(out, "customer:  %s\n", view.CustomerName)
		fmt.Fprintf(out, "ticket:    %s\n", view.TicketID)
		fmt.Fprintf(out, "form:      %s\n", view.FormType)
		fmt.Fprintf(out, "status:    %s\n", view.Status)
		fmt.Fprintf(out, "assignee:  %s\n", view.AssignedTo)
		fmt.Fprintf(out, "priority:  %s\n", view.Priority)
		fmt.Fprintf(out, "draft:     %t\n", view.HasDraft)
		fmt.Fprintf(out, "uploaded:  %s\n", view.UploadedAt)
		if view.SkipReason != "" {
			fmt.Fprintf(out, "skipped:   %s\n", view.SkipReason)
		}
		for key, value := range view.Metadata {
			fmt.Fprintf(out, "meta.%s: %s\n", key, value)
		}
		return nil
	}),
}

var sampleUpdateCmd = &cobra.Command{
	Use:   "update <sample-ref>",
	Short: "Update sample fields; only the flags given are touched",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		input := audit.UpdateSampleInput{}
		if cmd.Flags().Changed("customer") {
			value, _ := cmd.Flags().GetString("customer")
			input.CustomerName = &value
		}
		if cmd.Flags().Changed("ticket") {
			value, _ := cmd.Flags().GetString("ticket")
			input.TicketID = &value
		}
		if cmd.Flags().Changed("form") {
			value, _ := cmd.Flags().GetString("form")
			input.FormType = &value
		}
		if cmd.Flags().Changed("priority") {
			value, _ := cmd.Flags().GetString("priority")
			input.Priority = &value
		}
		if cmd.Flags().Changed("meta") {
			metaPairs, _ := cmd.Flags().GetStringSlice("meta")
			metadata, err := parseKeyValues(metaPairs)
			if err != nil {
				return err
			}
			input.Metadata = metadata
		}

		view, err := svc.UpdateSample(ctx, cmd.Flags().Arg(0), input)
		if err != nil {
			logging.Error(ctx, "update sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "update sample")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "sample updated: %s ticket=%s form=%s priority=%s\n", view.SampleRef, view.TicketID, view.FormType, view.Priority); err != nil {
			return errs.Wrap(err, "write sample update output")
		}
		return nil
	}),
}

var sampleDeleteCmd = &cobra.Command{
	Use:   "delete <sample-ref>",
	Short: "Permanently delete a sample, leaving a deletion trail",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		deletedBy, _ := cmd.Flags().GetString("by")
		sampleRef := cmd.Flags().Arg(0)

		if err := svc.PermanentDelete(ctx, sampleRef, deletedBy); err != nil {
			logging.Error(ctx, "delete sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "delete sample")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "sample deleted: %s\n", sampleRef); err != nil {
			return errs.Wrap(err, "write sample delete output")
		}
		return nil
	}),
}

func init() {
	sampleCreateCmd.Flags().String("customer", "", "Customer name")
	sampleCreateCmd.Flags().String("ticket", "", "Ticket id")
	sampleCreateCmd.Flags().String("form", "", "Form type name")
	sampleCreateCmd.Flags().String("priority", "", "Priority (low|medium|high)")
	sampleCreateCmd.Flags().StringSlice("meta", nil, "Metadata key=value (repeatable)")

	sampleListCmd.Flags().String("status", "", "Filter by status (use 'skipped' to see skipped samples)")
	sampleListCmd.Flags().String("assignee", "", "Filter by assignee")

	sampleUpdateCmd.Flags().String("customer", "", "Customer name")
	sampleUpdateCmd.Flags().String("ticket", "", "Ticket id")
	sampleUpdateCmd.Flags().String("form", "", "Form type name")
	sampleUpdateCmd.Flags().String("priority", "", "Priority (low|medium|high)")
	sampleUpdateCmd.Flags().StringSlice("meta", nil, "Metadata key=value (repeatable, replaces stored metadata)")

	sampleDeleteCmd.Flags().String("by", "", "User id recorded in the deletion trail")
	_ = sampleDeleteCmd.MarkFlagRequired("by")

	sampleCmd.AddCommand(sampleCreateCmd, sampleListCmd, sampleShowCmd, sampleUpdateCmd, sampleDeleteCmd)
	rootCmd.AddCommand(sampleCmd)
}
