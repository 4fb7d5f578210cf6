package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

// PermanentDelete removes a sample from any status. The deletion-provenance
// record (who, when, a full snapshot of what) is written in the same
// transaction as the hard delete; a sample is never gone without its trail.
func (s *Service) PermanentDelete(ctx context.Context, sampleRef string, deletedBy string) error {
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
	deletedBy = strings.TrimSpace(deletedBy)
	if deletedBy == "" {
		return fmt.Errorf("%w: deletedBy is required", errValidation)
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

		snapshot, err := json.Marshal(sample)
		if err != nil {
			return errs.Wrap(err, "marshal sample snapshot")
		}

		if err := s.repo.CreateDeletionRecord(txCtx, ports.DeletionRecord{
			DeletionID:   uuid.NewString(),
			SampleID:     sampleID,
			DeletedBy:    deletedBy,
			DeletedAt:    nowUTCString(),
			SnapshotJSON: string(snapshot),
		}); err != nil {
			return err
		}

		if err := s.repo.DeleteDraft(txCtx, sampleID); err != nil {
			return err
		}

		deleted, err := s.repo.DeleteSample(txCtx, sampleID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("sample %s not found: %w", sampleRef, ports.ErrSampleNotFound)
		}
		return nil
	}); err != nil {
		return err
	}

	s.releaseSampleLock(sampleID)
	s.publishBestEffort(ctx, ports.EventSampleDeleted, sampleRef, deletedBy, nil)
	return nil
}
