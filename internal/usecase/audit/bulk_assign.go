package audit

import (
	"context"
	"errors"
	"strings"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

// Distribution strategies. All three hand out floor(n/k) or ceil(n/k)
// samples per auditor; they differ only in which shuffled positions each
// auditor receives, so repeated bulk calls never expose a fixed, guessable
// assignment pattern.
const (
	strategyRoundRobin = iota
	strategyBlocked
	strategyReverse
	strategyCount
)

// BulkAssign distributes a set of available samples across a set of eligible
// auditors in one fairness-preserving operation. Item-level store failures
// are collected and never block the remaining items; the failed sample's
// status is left untouched, so retrying just the failed subset is safe.
func (s *Service) BulkAssign(ctx context.Context, input BulkAssignInput) (BulkAssignResult, error) {
	if ctx == nil {
		return BulkAssignResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return BulkAssignResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return BulkAssignResult{}, errors.New("sample repository is required")
	}
	if s.uow == nil {
		return BulkAssignResult{}, errors.New("unit of work is required")
	}

	result := BulkAssignResult{Errors: make([]BulkAssignError, 0, 4)}

	// Filter the request down to samples currently available. Refs that do
	// not parse are reported; refs in any other status are silently dropped,
	// matching the pool semantics of the operation.
	sampleIDs := make([]uint64, 0, len(input.SampleRefs))
	seenSamples := make(map[uint64]struct{}, len(input.SampleRefs))
	for _, raw := range input.SampleRefs {
		ref := strings.TrimSpace(raw)
		if ref == "" {
			continue
		}

		sampleID, err := parseSampleRef(ref)
		if err != nil {
			result.Errors = append(result.Errors, BulkAssignError{SampleRef: ref, Reason: err.Error()})
			continue
		}
		if _, ok := seenSamples[sampleID]; ok {
			continue
		}
		seenSamples[sampleID] = struct{}{}

		sample, err := s.repo.GetSample(ctx, sampleID)
		if err != nil {
			if errors.Is(err, ports.ErrSampleNotFound) {
				continue
			}
			return BulkAssignResult{}, err
		}
		if sample.Status != string(domainaudit.StatusAvailable) {
			continue
		}
		sampleIDs = append(sampleIDs, sampleID)
	}

	auditors, err := s.eligibleAuditorSet(ctx, input.AuditorIDs)
	if err != nil {
		return BulkAssignResult{}, err
	}

	if len(sampleIDs) == 0 {
		result.Errors = append(result.Errors, BulkAssignError{Reason: "no samples in the request are available for assignment"})
		return result, nil
	}
	if len(auditors) == 0 {
		result.Errors = append(result.Errors, BulkAssignError{Reason: "no auditors in the request are eligible"})
		return result, nil
	}

	// Independent unbiased shuffles so neither output order leaks input order.
	s.shuffle(len(sampleIDs), func(i, j int) {
		sampleIDs[i], sampleIDs[j] = sampleIDs[j], sampleIDs[i]
	})
	s.shuffle(len(auditors), func(i, j int) {
		auditors[i], auditors[j] = auditors[j], auditors[i]
	})

	n := len(sampleIDs)
	k := len(auditors)
	offset := s.intn(k)

	var auditorSeq []int
	switch s.intn(strategyCount) {
	case strategyBlocked:
		auditorSeq = blockedAuditorSequence(n, k, offset)
	case strategyReverse:
		// Consume samples from the end of the shuffled list backward while
		// the auditor index advances forward.
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			sampleIDs[i], sampleIDs[j] = sampleIDs[j], sampleIDs[i]
		}
		auditorSeq = roundRobinAuditorSequence(n, k, offset)
	default:
		auditorSeq = roundRobinAuditorSequence(n, k, offset)
	}

	now := nowUTCString()
	for i, sampleID := range sampleIDs {
		auditor := auditors[auditorSeq[i]]
		if err := s.applyBulkItem(ctx, sampleID, auditor.ID, now); err != nil {
			result.Errors = append(result.Errors, BulkAssignError{
				SampleRef: formatSampleRef(sampleID),
				AuditorID: auditor.ID,
				Reason:    err.Error(),
			})
			continue
		}

		result.AssignedCount++
		s.publishBestEffort(ctx, ports.EventSampleAssigned, formatSampleRef(sampleID), auditor.ID, map[string]string{
			"auditor": auditor.ID,
			"bulk":    "true",
		})
	}

	return result, nil
}

func (s *Service) applyBulkItem(ctx context.Context, sampleID uint64, auditorID string, now string) error {
	unlock := s.lockSample(sampleID)
	defer unlock()

	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.TransitionSample(txCtx, sampleID, ports.SampleTransition{
			ExpectedStatus: []string{string(domainaudit.StatusAvailable)},
			NewStatus:      string(domainaudit.StatusAssigned),
			AssignedTo:     strPtr(auditorID),
			UpdatedAt:      now,
		})
	})
}

// fairQuotas gives each auditor floor(n/k) samples, with the remainder
// distributed one each starting at the random offset.
func fairQuotas(n int, k int, offset int) []int {
	quotas := make([]int, k)
	for i := range quotas {
		quotas[i] = n / k
	}
	for i := 0; i < n%k; i++ {
		quotas[(offset+i)%k]++
	}
	return quotas
}

// roundRobinAuditorSequence: sample i goes to auditor (offset + i) mod k.
func roundRobinAuditorSequence(n int, k int, offset int) []int {
	seq := make([]int, n)
	for i := range seq {
		seq[i] = (offset + i) % k
	}
	return seq
}

// blockedAuditorSequence hands out blocks of ceil(n/(k*2)) consecutive
// shuffled positions, advancing one auditor per block. Quotas cap every
// auditor at its fair share, so the tail of the block walk skips auditors
// that are already full.
func blockedAuditorSequence(n int, k int, offset int) []int {
	blockSize := (n + k*2 - 1) / (k * 2)
	if blockSize < 1 {
		blockSize = 1
	}

	quotas := fairQuotas(n, k, offset)
	seq := make([]int, 0, n)
	current := offset % k
	fill := 0

	for len(seq) < n {
		if quotas[current] == 0 {
			current = (current + 1) % k
			fill = 0
			continue
		}

		seq = append(seq, current)
		quotas[current]--
		fill++
		if fill == blockSize {
			current = (current + 1) % k
			fill = 0
		}
	}
	return seq
}
