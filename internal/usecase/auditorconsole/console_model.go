package auditorconsole

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"auditflow/internal/bootstrap/logging"
	"auditflow/internal/usecase/audit"
)

const maxActionLines = 8

type Options struct {
	AuditorID       string
	StatusFilter    string
	RefreshInterval time.Duration
}

// consoleModel is the auditor's work queue: samples assigned to them, a
// detail pane for the selection, and single-key lifecycle actions.
type consoleModel struct {
	ctx             context.Context
	service         *audit.Service
	auditorID       string
	statusFilter    string
	refreshInterval time.Duration

	samples       []audit.SampleView
	selectedIndex int
	detail        audit.SampleView
	hasDetail     bool
	status        string
	actionLogs    []string
}

type samplesLoadedMsg struct {
	items []audit.SampleView
	err   error
}

type sampleDetailLoadedMsg struct {
	sampleRef string
	detail    audit.SampleView
	err       error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action    string
	sampleRef string
	result    string
	err       error
}

func NewConsoleModel(ctx context.Context, service *audit.Service, options Options) tea.Model {
	statusFilter := strings.TrimSpace(strings.ToLower(options.StatusFilter))
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &consoleModel{
		ctx:             ctx,
		service:         service,
		auditorID:       strings.TrimSpace(options.AuditorID),
		statusFilter:    statusFilter,
		refreshInterval: interval,
		status:          "initializing",
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return tea.Batch(m.loadSamplesCmd(), m.tickCmd())
}

func (m *consoleModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadSamplesCmd(), m.tickCmd())
	case samplesLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.samples = msg.items
		if len(m.samples) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "queue is empty"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.samples) {
			m.selectedIndex = len(m.samples) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d samples", len(m.samples))
		return m, m.loadSelectedDetailCmd()
	case sampleDetailLoadedMsg:
		if !m.isCurrentSelection(msg.sampleRef) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail load failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.detail
		m.hasDetail = true
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.appendActionLog(msg.action, msg.sampleRef, "failed", msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
			m.appendActionLog(msg.action, msg.sampleRef, msg.result, nil)
		}
		return m, m.loadSamplesCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadSamplesCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.samples)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "s":
			return m, m.startCmd()
		case "p":
			return m, m.skipCmd()
		case "r":
			return m, m.resetCmd()
		}
	}
	return m, nil
}

func (m *consoleModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Auditor Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"auditor=%s status=%s refresh=%s",
		m.auditorID,
		firstNonEmpty(m.statusFilter, "all"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Queue"))
	builder.WriteString("\n")
	if len(m.samples) == 0 {
		builder.WriteString(dimStyle.Render("- no samples"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.samples {
			draftMark := ""
			if item.HasDraft {
				draftMark = " draft"
			}
			line := fmt.Sprintf("%s [%s] ticket=%s form=%s%s", item.SampleRef, item.Status, item.TicketID, item.FormType, draftMark)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("SampleRef: %s\n", m.detail.SampleRef))
		builder.WriteString(fmt.Sprintf("Customer: %s\n", m.detail.CustomerName))
		builder.WriteString(fmt.Sprintf("Ticket: %s\n", m.detail.TicketID))
		builder.WriteString(fmt.Sprintf("Form: %s\n", m.detail.FormType))
		builder.WriteString(fmt.Sprintf("Status: %s\n", m.detail.Status))
		builder.WriteString(fmt.Sprintf("Priority: %s\n", firstNonEmpty(m.detail.Priority, "-")))
		builder.WriteString(fmt.Sprintf("Draft: %t\n", m.detail.HasDraft))
		if m.detail.SkipReason != "" {
			builder.WriteString(fmt.Sprintf("SkipReason: %s\n", m.detail.SkipReason))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Actions"))
	builder.WriteString("\n")
	builder.WriteString("- s start audit\n")
	builder.WriteString("- p skip sample\n")
	builder.WriteString("- r reset to pool\n")
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Action Log"))
	builder.WriteString("\n")
	if len(m.actionLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.actionLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: up/k down/j move  g refresh  s/p/r actions  q quit"))
	return builder.String()
}

func (m *consoleModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *consoleModel) loadSamplesCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.service.ListSamples(m.ctx, m.statusFilter, m.auditorID)
		if err != nil {
			return samplesLoadedMsg{err: err}
		}
		sort.SliceStable(items, func(i int, j int) bool {
			if items[i].UpdatedAt == items[j].UpdatedAt {
				return items[i].SampleRef < items[j].SampleRef
			}
			return items[i].UpdatedAt > items[j].UpdatedAt
		})
		return samplesLoadedMsg{items: items}
	}
}

func (m *consoleModel) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedSample()
	if !ok {
		return nil
	}
	sampleRef := selected.SampleRef
	return func() tea.Msg {
		detail, err := m.service.GetSample(m.ctx, sampleRef)
		if err != nil {
			return sampleDetailLoadedMsg{sampleRef: sampleRef, err: err}
		}
		return sampleDetailLoadedMsg{sampleRef: sampleRef, detail: detail}
	}
}

func (m *consoleModel) startCmd() tea.Cmd {
	sample, ok := m.selectedSample()
	if !ok {
		m.status = "no sample selected"
		return nil
	}
	sampleRef := sample.SampleRef
	m.status = "starting " + sampleRef
	return func() tea.Msg {
		state, err := m.service.Start(m.ctx, sampleRef, m.auditorID)
		if err != nil {
			return actionDoneMsg{action: "start", sampleRef: sampleRef, err: err}
		}
		result := "inProgress"
		if state.FormWarning != "" {
			result = "inProgress (form missing)"
		}
		return actionDoneMsg{action: "start", sampleRef: sampleRef, result: result}
	}
}

func (m *consoleModel) skipCmd() tea.Cmd {
	sample, ok := m.selectedSample()
	if !ok {
		m.status = "no sample selected"
		return nil
	}
	sampleRef := sample.SampleRef
	m.status = "skipping " + sampleRef
	return func() tea.Msg {
		err := m.service.Skip(m.ctx, sampleRef, m.auditorID, "skipped from console")
		if err != nil {
			return actionDoneMsg{action: "skip", sampleRef: sampleRef, err: err}
		}
		return actionDoneMsg{action: "skip", sampleRef: sampleRef, result: "skipped"}
	}
}

func (m *consoleModel) resetCmd() tea.Cmd {
	sample, ok := m.selectedSample()
	if !ok {
		m.status = "no sample selected"
		return nil
	}
	sampleRef := sample.SampleRef
	m.status = "resetting " + sampleRef
	return func() tea.Msg {
		view, err := m.service.Reset(m.ctx, sampleRef)
		if err != nil {
			return actionDoneMsg{action: "reset", sampleRef: sampleRef, err: err}
		}
		return actionDoneMsg{action: "reset", sampleRef: sampleRef, result: view.Status}
	}
}

func (m *consoleModel) selectedSample() (audit.SampleView, bool) {
	if len(m.samples) == 0 {
		return audit.SampleView{}, false
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.samples) {
		return audit.SampleView{}, false
	}
	return m.samples[m.selectedIndex], true
}

func (m *consoleModel) isCurrentSelection(sampleRef string) bool {
	selected, ok := m.selectedSample()
	if !ok {
		return false
	}
	return strings.TrimSpace(selected.SampleRef) == strings.TrimSpace(sampleRef)
}

func (m *consoleModel) appendActionLog(action string, sampleRef string, result string, opErr error) {
	outcome := strings.TrimSpace(result)
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}
	if outcome == "" {
		outcome = "ok"
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s auditor=%s sample=%s action=%s result=%s", timestamp, m.auditorID, sampleRef, action, outcome)
	m.actionLogs = append([]string{line}, m.actionLogs...)
	if len(m.actionLogs) > maxActionLines {
		m.actionLogs = m.actionLogs[:maxActionLines]
	}

	logging.Info(m.ctx, "auditor console action",
		slog.String("time", timestamp),
		slog.String("auditor", m.auditorID),
		slog.String("sample_ref", sampleRef),
		slog.String("action", action),
		slog.String("result", outcome),
	)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}
