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

// AssignOne hands an available sample to a specific eligible auditor.
func (s *Service) AssignOne(ctx context.Context, sampleRef string, auditorID string) (SampleView, error) {
	if ctx == nil {
		return SampleView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SampleView{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return SampleView{}, errors.New("sample repository is required")
	}
	if s.uow == nil {
		return SampleView{}, errors.New("unit of work is required")
	}

	sampleID, err := parseSampleRef(sampleRef)
	if err != nil {
		return SampleView{}, err
	}

	auditorID = strings.TrimSpace(auditorID)
	if auditorID == "" {
		return SampleView{}, fmt.Errorf("%w: auditor id is required", errValidation)
	}

	eligible, err := s.isEligible(ctx, auditorID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return SampleView{}, fmt.Errorf("%w: %s", errNotEligible, auditorID)
		}
		return SampleView{}, err
	}
	if !eligible {
		return SampleView{}, fmt.Errorf("%w: %s", errNotEligible, auditorID)
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
		if sample.Status != string(domainaudit.StatusAvailable) {
			return fmt.Errorf("%w: sample %s is %s", errInvalidState, sampleRef, sample.Status)
		}

		return s.repo.TransitionSample(txCtx, sampleID, ports.SampleTransition{
			ExpectedStatus: []string{string(domainaudit.StatusAvailable)},
			NewStatus:      string(domainaudit.StatusAssigned),
			AssignedTo:     strPtr(auditorID),
			UpdatedAt:      now,
		})
	}); err != nil {
		return SampleView{}, err
	}

	sample, err := s.repo.GetSample(ctx, sampleID)
	if err != nil {
		return SampleView{}, err
	}
	view, err := mapSampleView(sample)
	if err != nil {
		return SampleView{}, err
	}

	s.publishBestEffort(ctx, ports.EventSampleAssigned, view.SampleRef, auditorID, map[string]string{
		"auditor": auditorID,
	})
	return view, nil
}
