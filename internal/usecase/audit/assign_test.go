package audit

import (
	"context"
	"errors"
	"testing"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/ports"
)

func TestAssignOneMovesAvailableToAssigned(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	sample := env.createSample(t, "TCK-5001")

	view, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1")
	if err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}

	if view.Status != string(domainaudit.StatusAssigned) {
		t.Fatalf("status = %q, want assigned", view.Status)
	}
	if view.AssignedTo != "aud-1" {
		t.Fatalf("assignedTo = %q, want aud-1", view.AssignedTo)
	}
}

func TestAssignOneRejectsNonAvailableSample(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")
	env.addAuditor(t, "aud-2")

	sample := env.createSample(t, "TCK-5002")
	if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("first AssignOne() error = %v", err)
	}

	_, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-2")
	if !errors.Is(err, domainaudit.ErrInvalidState) {
		t.Fatalf("second AssignOne() error = %v, want ErrInvalidState", err)
	}

	// The failed attempt must leave the first assignment intact.
	got, err := env.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if got.AssignedTo != "aud-1" || got.Status != string(domainaudit.StatusAssigned) {
		t.Fatalf("sample after failed assign = %+v", got)
	}
}

func TestAssignOneRejectsIneligibleAuditor(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addUser(t, "inactive", false, true)
	env.addUser(t, "viewer", true, false)

	sample := env.createSample(t, "TCK-5003")

	for _, auditorID := range []string{"inactive", "viewer", "nobody"} {
		_, err := env.svc.AssignOne(ctx, sample.SampleRef, auditorID)
		if !errors.Is(err, domainaudit.ErrNotEligible) {
			t.Fatalf("AssignOne(%s) error = %v, want ErrNotEligible", auditorID, err)
		}
	}

	got, err := env.svc.GetSample(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("GetSample() error = %v", err)
	}
	if got.Status != string(domainaudit.StatusAvailable) {
		t.Fatalf("status = %q, want available", got.Status)
	}
}

func TestAssignOneUnknownSample(t *testing.T) {
	env := setupEnv(t)
	env.addAuditor(t, "aud-1")

	_, err := env.svc.AssignOne(context.Background(), "SMP-424242", "aud-1")
	if !errors.Is(err, ports.ErrSampleNotFound) {
		t.Fatalf("AssignOne() error = %v, want ErrSampleNotFound", err)
	}
}

func TestAssignRandomPicksMinimumWorkload(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "busy")
	env.addAuditor(t, "idle")

	// Load one auditor with two active assignments.
	for _, ticket := range []string{"TCK-6001", "TCK-6002"} {
		sample := env.createSample(t, ticket)
		if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "busy"); err != nil {
			t.Fatalf("AssignOne() error = %v", err)
		}
	}

	target := env.createSample(t, "TCK-6003")
	view, err := env.svc.AssignRandom(ctx, target.SampleRef)
	if err != nil {
		t.Fatalf("AssignRandom() error = %v", err)
	}
	if view.AssignedTo != "idle" {
		t.Fatalf("assignedTo = %q, want idle", view.AssignedTo)
	}
}

func TestAssignRandomTieBreaksByDirectoryOrder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "first")
	env.addAuditor(t, "second")

	sample := env.createSample(t, "TCK-6004")
	view, err := env.svc.AssignRandom(ctx, sample.SampleRef)
	if err != nil {
		t.Fatalf("AssignRandom() error = %v", err)
	}
	if view.AssignedTo != "first" {
		t.Fatalf("assignedTo = %q, want first (stable tie)", view.AssignedTo)
	}
}

func TestAssignRandomCountsCompletedAsFreeCapacity(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")
	env.addAuditor(t, "aud-2")

	// aud-1 completes one audit; completed work must not count as load.
	done := env.createSample(t, "TCK-6005")
	if _, err := env.svc.AssignOne(ctx, done.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}
	if _, err := env.svc.Start(ctx, done.SampleRef, "aud-1"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	answers := map[string]string{"q1": "yes", "q2": "yes"}
	if _, err := env.svc.Complete(ctx, done.SampleRef, answers, nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	target := env.createSample(t, "TCK-6006")
	view, err := env.svc.AssignRandom(ctx, target.SampleRef)
	if err != nil {
		t.Fatalf("AssignRandom() error = %v", err)
	}
	// Both auditors are back at zero active load; the directory-order tie
	// winner takes it.
	if view.AssignedTo != "aud-1" {
		t.Fatalf("assignedTo = %q, want aud-1", view.AssignedTo)
	}
}

func TestAssignRandomNoEligibleAuditors(t *testing.T) {
	env := setupEnv(t)
	env.addUser(t, "inactive", false, true)

	sample := env.createSample(t, "TCK-6007")
	_, err := env.svc.AssignRandom(context.Background(), sample.SampleRef)
	if !errors.Is(err, domainaudit.ErrNotEligible) {
		t.Fatalf("AssignRandom() error = %v, want ErrNotEligible", err)
	}
}

func TestListEligibleAuditorsExcludesAndCountsFresh(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")
	env.addAuditor(t, "aud-2")
	env.addUser(t, "inactive", false, true)

	sample := env.createSample(t, "TCK-7001")
	if _, err := env.svc.AssignOne(ctx, sample.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}

	auditors, err := env.svc.ListEligibleAuditors(ctx, "aud-2")
	if err != nil {
		t.Fatalf("ListEligibleAuditors() error = %v", err)
	}
	if len(auditors) != 1 || auditors[0].ID != "aud-1" {
		t.Fatalf("auditors = %+v, want only aud-1", auditors)
	}
	if auditors[0].Workload != 1 {
		t.Fatalf("workload = %d, want 1", auditors[0].Workload)
	}
}
