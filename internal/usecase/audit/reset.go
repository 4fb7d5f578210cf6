package audit

import (
	"context"
	"errors"
	"fmt"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

// Reset returns a sample to the available pool, clearing the assignee and
// any skip reason. The permission gate (admin only) sits outside this core.
func (s *Service) Reset(ctx context.Context, sampleRef string) (SampleView, error) {
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

	unlock := s.lockSample(sampleID)
	defer unlock()

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
		if !domainaudit.CanReset(current) {
			return fmt.Errorf("%w: sample %s is %s", errInvalidState, sampleRef, sample.Status)
		}

		return s.repo.TransitionSample(txCtx, sampleID, ports.SampleTransition{
			ExpectedStatus: []string{
				string(domainaudit.StatusAssigned),
				string(domainaudit.StatusInProgress),
				string(domainaudit.StatusSkipped),
			},
			NewStatus:       string(domainaudit.StatusAvailable),
			ClearAssignee:   true,
			ClearSkipReason: true,
			UpdatedAt:       nowUTCString(),
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

	s.publishBestEffort(ctx, ports.EventSampleReset, sampleRef, "", nil)
	return view, nil
}
