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

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Drive a sample through its audit lifecycle",
}

var workStartCmd = &cobra.Command{
	Use:   "start <sample-ref>",
	Short: "Start auditing an assigned sample, resuming any draft",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		auditorID, _ := cmd.Flags().GetString("as")
		state, err := svc.Start(ctx, cmd.Flags().Arg(0), auditorID)
		if err != nil {
			logging.Error(ctx, "start audit failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start audit")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "started %s form=%s\n", state.SampleRef, state.FormType)
		if state.FormWarning != "" {
			fmt.Fprintf(out, "warning: %s\n", state.FormWarning)
		}
		if len(state.Answers) > 0 {
			fmt.Fprintf(out, "resumed draft with %d answers\n", len(state.Answers))
		}
		for key, value := range state.Answers {
			fmt.Fprintf(out, "answer.%s: %s\n", key, value)
		}
		for key, value := range state.Remarks {
			fmt.Fprintf(out, "remark.%s: %s\n", key, value)
		}
		return nil
	}),
}

var workDraftCmd = &cobra.Command{
	Use:   "draft <sample-ref>",
	Short: "Save in-progress answers without finishing the audit",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		answerPairs, _ := cmd.Flags().GetStringSlice("answer")
		remarkPairs, _ := cmd.Flags().GetStringSlice("remark")

		answers, err := parseKeyValues(answerPairs)
		if err != nil {
			return err
		}
		remarks, err := parseKeyValues(remarkPairs)
		if err != nil {
			return err
		}

		sampleRef := cmd.Flags().Arg(0)
		if err := svc.SaveDraft(ctx, sampleRef, answers, remarks); err != nil {
			logging.Error(ctx, "save draft failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "save draft")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "draft saved: %s\n", sampleRef); err != nil {
			return errs.Wrap(err, "write draft output")
		}
		return nil
	}),
}

var workCompleteCmd = &cobra.Command{
	Use:   "complete <sample-ref>",
	Short: "Finish the audit, scoring the submitted answers",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		answerPairs, _ := cmd.Flags().GetStringSlice("answer")
		remarkPairs, _ := cmd.Flags().GetStringSlice("remark")

		answers, err := parseKeyValues(answerPairs)
		if err != nil {
			return err
		}
		remarks, err := parseKeyValues(remarkPairs)
		if err != nil {
			return err
		}

		view, err := svc.Complete(ctx, cmd.Flags().Arg(0), answers, remarks)
		if err != nil {
			logging.Error(ctx, "complete audit failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "complete audit")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"completed %s score=%d fatal=%t by=%s\n",
			view.SampleRef,
			view.Score,
			view.Fatal,
			view.CompletedBy,
		); err != nil {
			return errs.Wrap(err, "write complete output")
		}
		return nil
	}),
}

var workSkipCmd = &cobra.Command{
	Use:   "skip <sample-ref>",
	Short: "Skip a sample with a recorded reason",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		auditorID, _ := cmd.Flags().GetString("as")
		reason, _ := cmd.Flags().GetString("reason")
		sampleRef := cmd.Flags().Arg(0)

		if err := svc.Skip(ctx, sampleRef, auditorID, reason); err != nil {
			logging.Error(ctx, "skip sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "skip sample")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: %s\n", sampleRef, reason); err != nil {
			return errs.Wrap(err, "write skip output")
		}
		return nil
	}),
}

var workResetCmd = &cobra.Command{
	Use:   "reset <sample-ref>",
	Short: "Return a sample to the available pool",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		view, err := svc.Reset(ctx, cmd.Flags().Arg(0))
		if err != nil {
			logging.Error(ctx, "reset sample failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "reset sample")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "reset %s to %s\n", view.SampleRef, view.Status); err != nil {
			return errs.Wrap(err, "write reset output")
		}
		return nil
	}),
}

var workShowCmd = &cobra.Command{
	Use:   "show <sample-ref>",
	Short: "Show the completed audit record for a sample",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		view, err := svc.GetCompletedAudit(ctx, cmd.Flags().Arg(0))
		if err != nil {
			logging.Error(ctx, "get completed audit failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "get completed audit")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ref:       %s\n", view.SampleRef)
		fmt.Fprintf(out, "form:      %s\n", view.FormType)
		fmt.Fprintf(out, "score:     %d\n", view.Score)
		fmt.Fprintf(out, "fatal:     %t\n", view.Fatal)
		fmt.Fprintf(out, "by:        %s\n", view.CompletedBy)
		fmt.Fprintf(out, "at:        %s\n", view.CompletedAt)
		for key, value := range view.Answers {
			fmt.Fprintf(out, "answer.%s: %s\n", key, value)
		}
		for key, value := range view.Remarks {
			fmt.Fprintf(out, "remark.%s: %s\n", key, value)
		}
		return nil
	}),
}

func init() {
	workStartCmd.Flags().String("as", "", "Auditor id performing the audit")
	_ = workStartCmd.MarkFlagRequired("as")

	workDraftCmd.Flags().StringSlice("answer", nil, "Answer questionId=value (repeatable)")
	workDraftCmd.Flags().StringSlice("remark", nil, "Remark questionId=text (repeatable)")

	workCompleteCmd.Flags().StringSlice("answer", nil, "Answer questionId=value (repeatable)")
	workCompleteCmd.Flags().StringSlice("remark", nil, "Remark questionId=text (repeatable)")

	workSkipCmd.Flags().String("as", "", "Auditor id skipping the sample")
	workSkipCmd.Flags().String("reason", "", "Reason the sample cannot be audited")
	_ = workSkipCmd.MarkFlagRequired("as")
	_ = workSkipCmd.MarkFlagRequired("reason")

	workCmd.AddCommand(workStartCmd, workDraftCmd, workCompleteCmd, workSkipCmd, workResetCmd, workShowCmd)
	rootCmd.AddCommand(workCmd)
}
