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

// Start moves an assigned sample into inProgress for its assignee and
// returns the working form state. A saved draft is resumed into the state;
// a missing form definition is surfaced as a recoverable warning while the
// sample still enters inProgress.
func (s *Service) Start(ctx context.Context, sampleRef string, auditorID string) (WorkingState, error) {
	if ctx == nil {
		return WorkingState{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return WorkingState{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return WorkingState{}, errors.New("sample repository is required")
	}
	if s.uow == nil {
		return WorkingState{}, errors.New("unit of work is required")
	}

	sampleID, err := parseSampleRef(sampleRef)
	if err != nil {
		return WorkingState{}, err
	}
	auditorID = strings.TrimSpace(auditorID)
	if auditorID == "" {
		return WorkingState{}, fmt.Errorf("%w: auditor id is required", errValidation)
	}

	unlock := s.lockSample(sampleID)
	defer unlock()

	state := WorkingState{
		SampleRef: sampleRef,
		Answers:   map[string]string{},
		Remarks:   map[string]string{},
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		sample, err := s.repo.GetSample(txCtx, sampleID)
		if err != nil {
			if errors.Is(err, ports.ErrSampleNotFound) {
				return fmt.Errorf("sample %s not found: %w", sampleRef, ports.ErrSampleNotFound)
			}
			return err
		}
		if sample.Status != string(domainaudit.StatusAssigned) {
			return fmt.Errorf("%w: sample %s is %s", errInvalidState, sampleRef, sample.Status)
		}
		if derefString(sample.AssignedTo) != auditorID {
			return fmt.Errorf("%w: sample %s is assigned to %s", errInvalidState, sampleRef, derefString(sample.AssignedTo))
		}

		state.FormType = sample.FormType

		if sample.HasDraft {
			draft, err := s.repo.GetDraft(txCtx, sampleID)
			if err != nil && !errors.Is(err, ports.ErrDraftNotFound) {
				return err
			}
			if err == nil {
				answers, decodeErr := unmarshalStringMap(draft.AnswersJSON)
				if decodeErr != nil {
					return errs.Wrap(decodeErr, "decode draft answers")
				}
				remarks, decodeErr := unmarshalStringMap(draft.RemarksJSON)
				if decodeErr != nil {
					return errs.Wrap(decodeErr, "decode draft remarks")
				}
				state.Answers = answers
				state.Remarks = remarks
			}
		}

		return s.repo.TransitionSample(txCtx, sampleID, ports.SampleTransition{
			ExpectedStatus: []string{string(domainaudit.StatusAssigned)},
			NewStatus:      string(domainaudit.StatusInProgress),
			UpdatedAt:      nowUTCString(),
		})
	}); err != nil {
		return WorkingState{}, err
	}

	// Form resolution happens after the transition is committed: a form that
	// cannot be resolved, for whatever reason, must not keep the auditor out
	// of the sample they now hold.
	if s.forms != nil {
		if _, err := s.forms.GetForm(ctx, state.FormType); err != nil {
			if errors.Is(err, domainaudit.ErrFormNotFound) {
				state.FormWarning = fmt.Sprintf("form definition %q is not available", state.FormType)
			} else {
				state.FormWarning = fmt.Sprintf("form definition %q could not be loaded: %v", state.FormType, err)
			}
		}
	}

	s.publishBestEffort(ctx, ports.EventSampleStarted, sampleRef, auditorID, nil)
	return state, nil
}
