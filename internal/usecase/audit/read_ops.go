package audit

import (
	"context"
	"errors"
	"fmt"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

// GetSample returns one sample by its public ref.
func (s *Service) GetSample(ctx context.Context, sampleRef string) (SampleView, error) {
	if ctx == nil {
		return SampleView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SampleView{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return SampleView{}, errors.New("sample repository is required")
	}

	sampleID, err := parseSampleRef(sampleRef)
	if err != nil {
		return SampleView{}, err
	}

	sample, err := s.repo.GetSample(ctx, sampleID)
	if err != nil {
		if errors.Is(err, ports.ErrSampleNotFound) {
			return SampleView{}, fmt.Errorf("sample %s not found: %w", sampleRef, ports.ErrSampleNotFound)
		}
		return SampleView{}, err
	}
	return mapSampleView(sample)
}

// ListSamples returns samples in insertion order. Without a status filter,
// skipped samples stay hidden; pass status "skipped" to see them.
func (s *Service) ListSamples(ctx context.Context, status string, assignedTo string) ([]SampleView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("sample repository is required")
	}

	filter := ports.SampleFilter{AssignedTo: assignedTo}
	if status != "" {
		parsed, err := domainaudit.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = string(parsed)
		filter.IncludeSkipped = parsed == domainaudit.StatusSkipped
	}

	samples, err := s.repo.ListSamples(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]SampleView, 0, len(samples))
	for _, sample := range samples {
		view, err := mapSampleView(sample)
		if err != nil {
			return nil, err
		}
		items = append(items, view)
	}
	return items, nil
}

// GetCompletedAudit returns the immutable completed-audit record.
func (s *Service) GetCompletedAudit(ctx context.Context, sampleRef string) (CompletedAuditView, error) {
	if ctx == nil {
		return CompletedAuditView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return CompletedAuditView{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return CompletedAuditView{}, errors.New("sample repository is required")
	}

	sampleID, err := parseSampleRef(sampleRef)
	if err != nil {
		return CompletedAuditView{}, err
	}

	record, err := s.repo.GetCompletedAudit(ctx, sampleID)
	if err != nil {
		if errors.Is(err, ports.ErrAuditNotFound) {
			return CompletedAuditView{}, fmt.Errorf("completed audit for %s not found: %w", sampleRef, ports.ErrAuditNotFound)
		}
		return CompletedAuditView{}, err
	}

	answers, err := unmarshalStringMap(record.AnswersJSON)
	if err != nil {
		return CompletedAuditView{}, errs.Wrap(err, "decode audit answers")
	}
	remarks, err := unmarshalStringMap(record.RemarksJSON)
	if err != nil {
		return CompletedAuditView{}, errs.Wrap(err, "decode audit remarks")
	}

	return CompletedAuditView{
		SampleRef:   formatSampleRef(record.SampleID),
		FormType:    record.FormType,
		Answers:     answers,
		Remarks:     remarks,
		Score:       record.Score,
		Fatal:       record.Fatal,
		CompletedBy: record.CompletedBy,
		CompletedAt: record.CompletedAt,
	}, nil
}

// ListSkipRecords returns skip records for elevated review.
func (s *Service) ListSkipRecords(ctx context.Context, sampleRef string) ([]SkipRecordView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("sample repository is required")
	}

	sampleID, err := parseSampleRef(sampleRef)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListSkipRecords(ctx, sampleID)
	if err != nil {
		return nil, err
	}

	items := make([]SkipRecordView, 0, len(records))
	for _, record := range records {
		items = append(items, SkipRecordView{
			SampleRef: formatSampleRef(record.SampleID),
			SkippedBy: record.SkippedBy,
			Reason:    record.Reason,
			SkippedAt: record.SkippedAt,
		})
	}
	return items, nil
}
