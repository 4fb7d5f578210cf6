package audit

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/infrastructure/persistence/sqlite/model"
	"auditflow/internal/ports"
)

func (e *testEnv) assignAndStart(t *testing.T, ticketID string, auditorID string) SampleView {
	t.Helper()
	ctx := context.Background()

	sample := e.createSample(t, ticketID)
	if _, err := e.svc.AssignOne(ctx, sample.SampleRef, auditorID); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}
	if _, err := e.svc.Start(ctx, sample.SampleRef, auditorID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	view, err := e.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	return view
}

func TestStartRequiresAssignedStatusAndOwner(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")
	env.addAuditor(t, "aud-2")

	sample := env.createSample(t, "TCK-9001")

	if _, err := env.svc.Start(ctx, sample.SampleRef, "aud-1"); !errors.Is(err, domainaudit.ErrInvalidState) {
		t.Fatalf("Start(available) error = %v, want ErrInvalidState", err)
	}

	if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}

	if _, err := env.svc.Start(ctx, sample.SampleRef, "aud-2"); !errors.Is(err, domainaudit.ErrInvalidState) {
		t.Fatalf("Start(wrong owner) error = %v, want ErrInvalidState", err)
	}

	state, err := env.svc.Start(ctx, sample.SampleRef, "aud-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if state.FormType != "voice-basic" || state.FormWarning != "" {
		t.Fatalf("state = %+v", state)
	}
	if len(state.Answers) != 0 {
		t.Fatalf("fresh start answers = %v, want empty", state.Answers)
	}

	view, err := env.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if view.Status != string(domainaudit.StatusInProgress) {
		t.Fatalf("status = %q, want inProgress", view.Status)
	}
}

func TestStartWithMissingFormIsRecoverable(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	view, err := env.svc.CreateSample(ctx, CreateSampleInput{
		CustomerName: "Acme Corp",
		TicketID:     "TCK-9002",
		FormType:     "retired-form",
	})
	if err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}
	if _, err := env.svc.AssignOne(ctx, view.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}

	state, err := env.svc.Start(ctx, view.SampleRef, "aud-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if state.FormWarning == "" {
		t.Fatalf("expected form warning for missing definition")
	}

	got, err := env.svc.GetSample(ctx, view.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if got.Status != string(domainaudit.StatusInProgress) {
		t.Fatalf("status = %q, want inProgress despite missing form", got.Status)
	}
}

func TestStartWithUnreadableFormIsRecoverable(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")
	env.catalog.loadErrs = map[string]error{
		"mangled-form": errors.New("yaml: could not find expected ':'"),
	}

	view, err := env.svc.CreateSample(ctx, CreateSampleInput{
		CustomerName: "Acme Corp",
		TicketID:     "TCK-9003",
		FormType:     "mangled-form",
	})
	if err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}
	if _, err := env.svc.AssignOne(ctx, view.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}

	state, err := env.svc.Start(ctx, view.SampleRef, "aud-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if state.FormWarning == "" {
		t.Fatalf("expected form warning for unreadable definition")
	}

	got, err := env.svc.GetSample(ctx, view.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if got.Status != string(domainaudit.StatusInProgress) {
		t.Fatalf("status = %q, want inProgress despite unreadable form", got.Status)
	}
}

func TestSaveDraftAndResume(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.assignAndStart(t, "TCK-9101", "aud-1")

	answers := map[string]string{"q1": "yes"}
	remarks := map[string]string{"q1": "clear greeting"}
	if err := env.svc.SaveDraft(ctx, sample.SampleRef, answers, remarks); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	view, err := env.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if !view.HasDraft {
		t.Fatalf("hasDraft = false after SaveDraft")
	}

	// Saving again with the same content is a no-op overwrite.
	if err := env.svc.SaveDraft(ctx, sample.SampleRef, answers, remarks); err != nil {
		t.Fatalf("second SaveDraft() error = %v", err)
	}

	// Reset and reassign, then a fresh Start resumes the draft content.
	if _, err := env.svc.Reset(ctx, sample.SampleRef); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}
	state, err := env.svc.Start(ctx, sample.SampleRef, "aud-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if state.Answers["q1"] != "yes" || state.Remarks["q1"] != "clear greeting" {
		t.Fatalf("resumed state = %+v", state)
	}
}

func TestSaveDraftRejectsEmptyContentAndWrongStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.createSample(t, "TCK-9102")
	if err := env.svc.SaveDraft(ctx, sample.SampleRef, map[string]string{"q1": "yes"}, nil); !errors.Is(err, domainaudit.ErrInvalidState) {
		t.Fatalf("SaveDraft(available) error = %v, want ErrInvalidState", err)
	}

	started := env.assignAndStart(t, "TCK-9103", "aud-1")
	if err := env.svc.SaveDraft(ctx, started.SampleRef, map[string]string{"q1": "  "}, nil); !errors.Is(err, domainaudit.ErrValidation) {
		t.Fatalf("SaveDraft(empty) error = %v, want ErrValidation", err)
	}
}

func TestCompleteScoresAndPurgesDraft(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.assignAndStart(t, "TCK-9201", "aud-1")
	if err := env.svc.SaveDraft(ctx, sample.SampleRef, map[string]string{"q1": "yes"}, nil); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	view, err := env.svc.Complete(ctx, sample.SampleRef, map[string]string{
		"q1": "yes",
		"q2": "yes",
		"q3": "yes",
	}, map[string]string{"q3": "good closing"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if view.Score != 100 || view.Fatal {
		t.Fatalf("score = %d fatal = %t, want 100 false", view.Score, view.Fatal)
	}
	if view.CompletedBy != "aud-1" {
		t.Fatalf("completedBy = %q", view.CompletedBy)
	}

	got, err := env.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if got.Status != string(domainaudit.StatusCompleted) {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.HasDraft {
		t.Fatalf("draft survived completion")
	}

	stored, err := env.svc.GetCompletedAudit(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetCompletedAudit() error = %v", err)
	}
	if stored.Score != 100 || stored.Remarks["q3"] != "good closing" {
		t.Fatalf("stored audit = %+v", stored)
	}
}

func TestCompleteFatalAnswerZeroesScore(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.assignAndStart(t, "TCK-9202", "aud-1")

	view, err := env.svc.Complete(ctx, sample.SampleRef, map[string]string{
		"q1": "yes",
		"q2": "no",
	}, nil)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if view.Score != 0 || !view.Fatal {
		t.Fatalf("score = %d fatal = %t, want 0 true", view.Score, view.Fatal)
	}
}

func TestCompleteRejectsMissingMandatory(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.assignAndStart(t, "TCK-9203", "aud-1")

	_, err := env.svc.Complete(ctx, sample.SampleRef, map[string]string{"q1": "yes"}, nil)
	if !errors.Is(err, domainaudit.ErrValidation) {
		t.Fatalf("Complete() error = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "q2") {
		t.Fatalf("error should name the missing question: %v", err)
	}

	// The rejected completion leaves the sample in progress with no record.
	got, err := env.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if got.Status != string(domainaudit.StatusInProgress) {
		t.Fatalf("status = %q, want inProgress", got.Status)
	}
	if _, err := env.svc.GetCompletedAudit(ctx, sample.SampleRef); !errors.Is(err, ports.ErrAuditNotFound) {
		t.Fatalf("GetCompletedAudit() error = %v, want ErrAuditNotFound", err)
	}
}

func TestCompleteKeepsDraftWhenPurgeDisabled(t *testing.T) {
	env := setupEnvWithOptions(t, Options{PurgeDraftOnComplete: false})
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.assignAndStart(t, "TCK-9204", "aud-1")
	if err := env.svc.SaveDraft(ctx, sample.SampleRef, map[string]string{"q1": "yes"}, nil); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	if _, err := env.svc.Complete(ctx, sample.SampleRef, map[string]string{"q1": "yes", "q2": "yes"}, nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	got, err := env.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if !got.HasDraft {
		t.Fatalf("draft purged despite purge disabled")
	}
}

func TestSkipFromAssignedAndInProgress(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	assigned := env.createSample(t, "TCK-9301")
	if _, err := env.svc.AssignOne(ctx, assigned.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}
	if err := env.svc.Skip(ctx, assigned.SampleRef, "aud-1", "recording corrupted"); err != nil {
		t.Fatalf("Skip(assigned) error = %v", err)
	}

	started := env.assignAndStart(t, "TCK-9302", "aud-1")
	if err := env.svc.Skip(ctx, started.SampleRef, "aud-1", "wrong language"); err != nil {
		t.Fatalf("Skip(inProgress) error = %v", err)
	}

	view, err := env.svc.GetSample(ctx, started.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if view.Status != string(domainaudit.StatusSkipped) {
		t.Fatalf("status = %q, want skipped", view.Status)
	}
	// Attribution stays on the record.
	if view.AssignedTo != "aud-1" || view.SkipReason != "wrong language" {
		t.Fatalf("skipped view = %+v", view)
	}

	records, err := env.svc.ListSkipRecords(ctx, started.SampleRef)
	if err != nil {
		t.Fatalf("ListSkipRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].SkippedBy != "aud-1" || records[0].Reason != "wrong language" {
		t.Fatalf("skip records = %+v", records)
	}
}

func TestSkipRequiresOwnerAndReason(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")
	env.addAuditor(t, "aud-2")

	sample := env.createSample(t, "TCK-9303")
	if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}

	if err := env.svc.Skip(ctx, sample.SampleRef, "aud-2", "not mine"); !errors.Is(err, domainaudit.ErrInvalidState) {
		t.Fatalf("Skip(wrong owner) error = %v, want ErrInvalidState", err)
	}
	if err := env.svc.Skip(ctx, sample.SampleRef, "aud-1", "  "); !errors.Is(err, domainaudit.ErrValidation) {
		t.Fatalf("Skip(blank reason) error = %v, want ErrValidation", err)
	}
}

func TestResetClearsAssigneeAndSkipReason(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.createSample(t, "TCK-9401")
	if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}
	if err := env.svc.Skip(ctx, sample.SampleRef, "aud-1", "bad audio"); err != nil {
		t.Fatalf("Skip() error = %v", err)
	}

	view, err := env.svc.Reset(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if view.Status != string(domainaudit.StatusAvailable) {
		t.Fatalf("status = %q, want available", view.Status)
	}
	if view.AssignedTo != "" || view.SkipReason != "" {
		t.Fatalf("reset view = %+v, want cleared assignee and reason", view)
	}

	// Skip history survives the reset for later review.
	records, err := env.svc.ListSkipRecords(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("ListSkipRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("skip records = %+v", records)
	}
}

func TestResetRejectsAvailableAndCompleted(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	fresh := env.createSample(t, "TCK-9402")
	if _, err := env.svc.Reset(ctx, fresh.SampleRef); !errors.Is(err, domainaudit.ErrInvalidState) {
		t.Fatalf("Reset(available) error = %v, want ErrInvalidState", err)
	}

	done := env.assignAndStart(t, "TCK-9403", "aud-1")
	if _, err := env.svc.Complete(ctx, done.SampleRef, map[string]string{"q1": "yes", "q2": "yes"}, nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := env.svc.Reset(ctx, done.SampleRef); !errors.Is(err, domainaudit.ErrInvalidState) {
		t.Fatalf("Reset(completed) error = %v, want ErrInvalidState", err)
	}
}

func TestPermanentDeleteLeavesProvenance(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.assignAndStart(t, "TCK-9501", "aud-1")
	if err := env.svc.SaveDraft(ctx, sample.SampleRef, map[string]string{"q1": "yes"}, nil); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	if err := env.svc.PermanentDelete(ctx, sample.SampleRef, "admin-1"); err != nil {
		t.Fatalf("PermanentDelete() error = %v", err)
	}

	if _, err := env.svc.GetSample(ctx, sample.SampleRef); !errors.Is(err, ports.ErrSampleNotFound) {
		t.Fatalf("GetSample(deleted) error = %v, want ErrSampleNotFound", err)
	}

	var records []model.DeletionRecord
	if err := env.db.Find(&records).Error; err != nil {
		t.Fatalf("load deletion records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("deletion records = %d, want 1", len(records))
	}
	record := records[0]
	if record.DeletedBy != "admin-1" || record.DeletionID == "" {
		t.Fatalf("deletion record = %+v", record)
	}
	if !strings.Contains(record.SnapshotJSON, "TCK-9501") {
		t.Fatalf("snapshot missing ticket id: %s", record.SnapshotJSON)
	}

	var drafts []model.Draft
	if err := env.db.Find(&drafts).Error; err != nil {
		t.Fatalf("load drafts: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("drafts = %d, want 0 after delete", len(drafts))
	}
}

func TestPermanentDeleteDropsSampleLock(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	sample := env.createSample(t, "TCK-9502")
	sampleID, err := parseSampleRef(sample.SampleRef)
	if err != nil {
		t.Fatalf("parseSampleRef(%q) error = %v", sample.SampleRef, err)
	}

	if err := env.svc.PermanentDelete(ctx, sample.SampleRef, "admin-1"); err != nil {
		t.Fatalf("PermanentDelete() error = %v", err)
	}

	if _, ok := env.svc.locks.Load(sampleID); ok {
		t.Fatalf("lock entry retained for deleted sample %d", sampleID)
	}
}

func TestPermanentDeleteRequiresActor(t *testing.T) {
	env := setupEnv(t)
	sample := env.createSample(t, "TCK-9502")

	err := env.svc.PermanentDelete(context.Background(), sample.SampleRef, " ")
	if !errors.Is(err, domainaudit.ErrValidation) {
		t.Fatalf("PermanentDelete(blank actor) error = %v, want ErrValidation", err)
	}
}

func TestLifecycleEventsEmittedInOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.createSample(t, "TCK-9601")
	if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}
	if _, err := env.svc.Start(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := env.svc.Complete(ctx, sample.SampleRef, map[string]string{"q1": "yes", "q2": "yes"}, nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	want := []string{
		ports.EventSampleCreated,
		ports.EventSampleAssigned,
		ports.EventSampleStarted,
		ports.EventSampleCompleted,
	}
	got := env.notifier.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	for _, event := range env.notifier.events {
		if event.EventID == "" || event.At == "" {
			t.Fatalf("event missing id or timestamp: %+v", event)
		}
	}
}
