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

// Complete validates all mandatory, currently-visible questions, computes
// the deterministic score, writes the immutable completed-audit record and
// advances the sample to completed. Everything lands in one transaction:
// either the audit record and the status move together, or nothing changes.
func (s *Service) Complete(ctx context.Context, sampleRef string, answers map[string]string, remarks map[string]string) (CompletedAuditView, error) {
	if ctx == nil {
		return CompletedAuditView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return CompletedAuditView{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return CompletedAuditView{}, errors.New("sample repository is required")
	}
	if s.uow == nil {
		return CompletedAuditView{}, errors.New("unit of work is required")
	}
	if s.forms == nil {
		return CompletedAuditView{}, errors.New("form catalog is required")
	}

	sampleID, err := parseSampleRef(sampleRef)
	if err != nil {
		return CompletedAuditView{}, err
	}

	answersJSON, err := marshalStringMap(answers)
	if err != nil {
		return CompletedAuditView{}, errs.Wrap(err, "marshal answers")
	}
	remarksJSON, err := marshalStringMap(remarks)
	if err != nil {
		return CompletedAuditView{}, errs.Wrap(err, "marshal remarks")
	}

	unlock := s.lockSample(sampleID)
	defer unlock()

	var out CompletedAuditView
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
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

		form, err := s.forms.GetForm(txCtx, sample.FormType)
		if err != nil {
			return err
		}

		if missing := domainaudit.MissingMandatory(form, answers); len(missing) > 0 {
			return fmt.Errorf("%w: mandatory questions unanswered: %s", errValidation, strings.Join(missing, ", "))
		}

		score, fatal := domainaudit.Score(form, answers)
		now := nowUTCString()
		completedBy := derefString(sample.AssignedTo)

		if err := s.repo.CreateCompletedAudit(txCtx, ports.CompletedAudit{
			SampleID:    sampleID,
			FormType:    sample.FormType,
			AnswersJSON: answersJSON,
			RemarksJSON: remarksJSON,
			Score:       score,
			Fatal:       fatal,
			CompletedBy: completedBy,
			CompletedAt: now,
		}); err != nil {
			return err
		}

		hasDraft := sample.HasDraft
		if s.purgeDraftOnComplete && hasDraft {
			if err := s.repo.DeleteDraft(txCtx, sampleID); err != nil {
				return err
			}
			hasDraft = false
		}

		if err := s.repo.TransitionSample(txCtx, sampleID, ports.SampleTransition{
			ExpectedStatus: []string{string(domainaudit.StatusInProgress)},
			NewStatus:      string(domainaudit.StatusCompleted),
			HasDraft:       boolPtr(hasDraft),
			UpdatedAt:      now,
		}); err != nil {
			return err
		}

		out = CompletedAuditView{
			SampleRef:   sampleRef,
			FormType:    sample.FormType,
			Answers:     answers,
			Remarks:     remarks,
			Score:       score,
			Fatal:       fatal,
			CompletedBy: completedBy,
			CompletedAt: now,
		}
		return nil
	}); err != nil {
		return CompletedAuditView{}, err
	}

	s.publishBestEffort(ctx, ports.EventSampleCompleted, sampleRef, out.CompletedBy, map[string]string{
		"score": fmt.Sprintf("%d", out.Score),
		"fatal": fmt.Sprintf("%t", out.Fatal),
	})
	return out, nil
}
