package audit

import (
	"context"
	"errors"
	"fmt"

	"auditflow/internal/errs"
)

// AssignRandom picks the eligible auditor with the minimum current workload
// and assigns the sample to them. Ties break by directory order, so the pick
// is stable for a given workload distribution.
func (s *Service) AssignRandom(ctx context.Context, sampleRef string) (SampleView, error) {
	if ctx == nil {
		return SampleView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SampleView{}, errs.Wrap(err, "check context")
	}

	eligible, err := s.ListEligibleAuditors(ctx, "")
	if err != nil {
		return SampleView{}, err
	}
	if len(eligible) == 0 {
		return SampleView{}, fmt.Errorf("%w: no eligible auditors", errNotEligible)
	}

	pick := eligible[0]
	for _, auditor := range eligible[1:] {
		if auditor.Workload < pick.Workload {
			pick = auditor
		}
	}

	return s.AssignOne(ctx, sampleRef, pick.ID)
}
