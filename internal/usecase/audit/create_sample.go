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

var validPriorities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
}

// CreateSample adds a sample to the pool with status available.
func (s *Service) CreateSample(ctx context.Context, input CreateSampleInput) (SampleView, error) {
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

	customerName := strings.TrimSpace(input.CustomerName)
	if customerName == "" {
		return SampleView{}, fmt.Errorf("%w: customer name is required", errValidation)
	}
	ticketID := strings.TrimSpace(input.TicketID)
	if ticketID == "" {
		return SampleView{}, fmt.Errorf("%w: ticket id is required", errValidation)
	}
	formType := strings.TrimSpace(input.FormType)
	if formType == "" {
		return SampleView{}, fmt.Errorf("%w: form type is required", errValidation)
	}

	priority, err := normalizePriority(input.Priority)
	if err != nil {
		return SampleView{}, err
	}

	metadataJSON, err := marshalStringMap(input.Metadata)
	if err != nil {
		return SampleView{}, errs.Wrap(err, "marshal sample metadata")
	}

	now := nowUTCString()
	sample := ports.Sample{
		CustomerName: customerName,
		TicketID:     ticketID,
		FormType:     formType,
		Status:       string(domainaudit.StatusAvailable),
		Priority:     priority,
		MetadataJSON: metadataJSON,
		UploadedAt:   now,
		UpdatedAt:    now,
	}

	var created ports.Sample
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.CreateSample(txCtx, sample)
		return err
	}); err != nil {
		return SampleView{}, err
	}

	view, err := mapSampleView(created)
	if err != nil {
		return SampleView{}, err
	}

	s.publishBestEffort(ctx, ports.EventSampleCreated, view.SampleRef, "", map[string]string{
		"ticket_id": ticketID,
		"form_type": formType,
	})
	return view, nil
}

// UpdateSample merges descriptive fields. Lifecycle fields are out of reach
// here; status and assignment only move through the engine and the
// lifecycle transitions.
func (s *Service) UpdateSample(ctx context.Context, sampleRef string, input UpdateSampleInput) (SampleView, error) {
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

	patch := ports.SampleFieldPatch{}
	if input.CustomerName != nil {
		trimmed := strings.TrimSpace(*input.CustomerName)
		if trimmed == "" {
			return SampleView{}, fmt.Errorf("%w: customer name cannot be cleared", errValidation)
		}
		patch.CustomerName = &trimmed
	}
	if input.TicketID != nil {
		trimmed := strings.TrimSpace(*input.TicketID)
		if trimmed == "" {
			return SampleView{}, fmt.Errorf("%w: ticket id cannot be cleared", errValidation)
		}
		patch.TicketID = &trimmed
	}
	if input.FormType != nil {
		trimmed := strings.TrimSpace(*input.FormType)
		if trimmed == "" {
			return SampleView{}, fmt.Errorf("%w: form type cannot be cleared", errValidation)
		}
		patch.FormType = &trimmed
	}
	if input.Priority != nil {
		priority, err := normalizePriority(*input.Priority)
		if err != nil {
			return SampleView{}, err
		}
		if priority != nil {
			patch.Priority = priority
		}
	}
	if input.Metadata != nil {
		metadataJSON, err := marshalStringMap(input.Metadata)
		if err != nil {
			return SampleView{}, errs.Wrap(err, "marshal sample metadata")
		}
		patch.MetadataJSON = &metadataJSON
	}

	unlock := s.lockSample(sampleID)
	defer unlock()

	updated, err := s.repo.UpdateSampleFields(ctx, sampleID, patch)
	if err != nil {
		if errors.Is(err, ports.ErrSampleNotFound) {
			return SampleView{}, fmt.Errorf("sample %s not found: %w", sampleRef, ports.ErrSampleNotFound)
		}
		return SampleView{}, err
	}
	return mapSampleView(updated)
}

func normalizePriority(raw string) (*string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return nil, nil
	}
	if _, ok := validPriorities[trimmed]; !ok {
		return nil, fmt.Errorf("%w: unknown priority %q", errValidation, raw)
	}
	return &trimmed, nil
}
