package audit

import (
	"context"
	"errors"
	"fmt"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

// SaveDraft persists a resumable snapshot of in-progress answers and
// remarks. Repeating the call with the same content overwrites the draft
// with identical bytes, so it is idempotent.
func (s *Service) SaveDraft(ctx context.Context, sampleRef string, answers map[string]string, remarks map[string]string) error {
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

	if allEmpty(answers, remarks) {
		return fmt.Errorf("%w: draft has no content", errValidation)
	}

	answersJSON, err := marshalStringMap(answers)
	if err != nil {
		return errs.Wrap(err, "marshal draft answers")
	}
	remarksJSON, err := marshalStringMap(remarks)
	if err != nil {
		return errs.Wrap(err, "marshal draft remarks")
	}

	unlock := s.lockSample(sampleID)
	defer unlock()

	now := nowUTCString()
	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		sample, err := s.repo.GetSample(txCtx, sampleID)
		if err != nil {
			if errors.Is(err, ports.ErrSampleNotFound) {
				return fmt.Errorf("sample %s not found: %w", sampleRef, ports.ErrSampleNotFound)
			}
			return err
		}
		if sample.Status != string(domainaudit.StatusInProgress) {
			return fmt.Errorf("%w: sample %s is %s", errInvalidState, sampleRef, sample.Status)
		}

		if err := s.repo.UpsertDraft(txCtx, ports.Draft{
			SampleID:    sampleID,
			AnswersJSON: answersJSON,
			RemarksJSON: remarksJSON,
			SavedAt:     now,
		}); err != nil {
			return err
		}

		if sample.HasDraft {
			return nil
		}
		return s.repo.TransitionSample(txCtx, sampleID, ports.SampleTransition{
			ExpectedStatus: []string{string(domainaudit.StatusInProgress)},
			NewStatus:      string(domainaudit.StatusInProgress),
			HasDraft:       boolPtr(true),
			UpdatedAt:      now,
		})
	})
}
