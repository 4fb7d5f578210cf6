package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

// Skip parks a sample with a reason. The last assignee stays on the record
// for attribution, and the skip record lands in the same transaction as the
// status move.
func (s *Service) Skip(ctx context.Context, sampleRef string, auditorID string, reason string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("sample repository is required")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}

	sampleID, err := parseSampleRef(sampleRef)
	if err != nil {
		return err
	}
	auditorID = strings.TrimSpace(auditorID)
	if auditorID == "" {
		return fmt.Errorf("%w: auditor id is required", errValidation)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: skip reason is required", errValidation)
	}

	unlock := s.lockSample(sampleID)
	defer unlock()

	now := nowUTCString()
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		sample, err := s.repo.GetSample(txCtx, sampleID)
		if err != nil {
			if errors.Is(err, ports.ErrSampleNotFound) {
				return fmt.Errorf("sample %s not found: %w", sampleRef, ports.ErrSampleNotFound)
			}
			return err
		}

		current, err := domainaudit.ParseStatus(sample.Status)
		if err != nil {
			return err
		}
		if !domainaudit.CanTransition(current, domainaudit.StatusSkipped) {
			return fmt.Errorf("%w: sample %s is %s", errInvalidState, sampleRef, sample.Status)
		}
		if derefString(sample.AssignedTo) != auditorID {
			return fmt.Errorf("%w: sample %s is assigned to %s", errInvalidState, sampleRef, derefString(sample.AssignedTo))
		}

		if err := s.repo.CreateSkipRecord(txCtx, ports.SkipRecord{
			SampleID:  sampleID,
			SkippedBy: auditorID,
			Reason:    reason,
			SkippedAt: now,
		}); err != nil {
			return err
		}

		return s.repo.TransitionSample(txCtx, sampleID, ports.SampleTransition{
			ExpectedStatus: []string{string(domainaudit.StatusAssigned), string(domainaudit.StatusInProgress)},
			NewStatus:      string(domainaudit.StatusSkipped),
			SkipReason:     &reason,
			UpdatedAt:      now,
		})
	}); err != nil {
		return err
	}

	s.publishBestEffort(ctx, ports.EventSampleSkipped, sampleRef, auditorID, map[string]string{
		"reason": reason,
	})
	return nil
}
