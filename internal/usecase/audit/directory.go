package audit

import (
	"context"
	"errors"
	"strings"

	"auditflow/internal/errs"
)

// ListEligibleAuditors returns active auditors holding the audit capability,
// each with their current workload. Workload is counted fresh from the
// sample store at call time; fairness decisions never see cached counts.
func (s *Service) ListEligibleAuditors(ctx context.Context, excluding string) ([]AuditorView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("sample repository is required")
	}
	if s.directory == nil {
		return nil, errors.New("identity directory is required")
	}

	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list users")
	}

	excluding = strings.TrimSpace(excluding)
	items := make([]AuditorView, 0, len(users))
	for _, user := range users {
		if !user.Active || !user.CanAudit {
			continue
		}
		if excluding != "" && user.ID == excluding {
			continue
		}

		workload, err := s.repo.CountActiveAssignments(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		items = append(items, AuditorView{
			ID:       user.ID,
			Username: user.Username,
			Workload: int(workload),
		})
	}
	return items, nil
}

// eligibleAuditorSet resolves the given auditor ids against the eligible set,
// preserving input order and dropping duplicates and ineligible entries.
func (s *Service) eligibleAuditorSet(ctx context.Context, auditorIDs []string) ([]AuditorView, error) {
	eligible, err := s.ListEligibleAuditors(ctx, "")
	if err != nil {
		return nil, err
	}

	byID := make(map[string]AuditorView, len(eligible))
	for _, auditor := range eligible {
		byID[auditor.ID] = auditor
	}

	seen := make(map[string]struct{}, len(auditorIDs))
	out := make([]AuditorView, 0, len(auditorIDs))
	for _, raw := range auditorIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if auditor, ok := byID[id]; ok {
			out = append(out, auditor)
		}
	}
	return out, nil
}

// isEligible checks one auditor id against the directory.
func (s *Service) isEligible(ctx context.Context, auditorID string) (bool, error) {
	if s.directory == nil {
		return false, errors.New("identity directory is required")
	}

	user, err := s.directory.GetUser(ctx, auditorID)
	if err != nil {
		return false, err
	}
	return user.Active && user.CanAudit, nil
}
