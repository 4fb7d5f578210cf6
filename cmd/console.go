package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"auditflow/internal/bootstrap"
	"auditflow/internal/bootstrap/logging"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
	"auditflow/internal/usecase/audit"
	"auditflow/internal/usecase/auditorconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive auditor work queue",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *audit.Service, _ ports.UserAdmin, _ ports.IdentityDirectory) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		auditorID, _ := cmd.Flags().GetString("as")
		status, _ := cmd.Flags().GetString("status")
		refreshSeconds, _ := cmd.Flags().GetInt("refresh")

		model := auditorconsole.NewConsoleModel(ctx, svc, auditorconsole.Options{
			AuditorID:       auditorID,
			StatusFilter:    status,
			RefreshInterval: time.Duration(refreshSeconds) * time.Second,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run auditor console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.Flags().String("as", "", "Auditor id whose queue to show")
	consoleCmd.Flags().String("status", "", "Status filter for the queue")
	consoleCmd.Flags().Int("refresh", 5, "Queue refresh interval in seconds")
	_ = consoleCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(consoleCmd)
}
