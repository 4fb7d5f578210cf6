package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"auditflow/internal/domain/audit"
	"auditflow/internal/errs"
	"auditflow/internal/infrastructure/persistence/sqlite/model"
	"auditflow/internal/ports"
)

type SampleRepository struct {
	db *gorm.DB
}

var _ ports.SampleRepository = (*SampleRepository)(nil)

func NewSampleRepository(db *gorm.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

func (r *SampleRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *SampleRepository) CreateSample(ctx context.Context, sample ports.Sample) (ports.Sample, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Sample{}, err
	}

	row := model.Sample{
		CustomerName: sample.CustomerName,
		TicketID:     sample.TicketID,
		FormType:     sample.FormType,
		Status:       sample.Status,
		AssignedTo:   sample.AssignedTo,
		Priority:     sample.Priority,
		MetadataJSON: sample.MetadataJSON,
		SkipReason:   sample.SkipReason,
		HasDraft:     sample.HasDraft,
		UploadedAt:   sample.UploadedAt,
		UpdatedAt:    sample.UpdatedAt,
	}
	if row.MetadataJSON == "" {
		row.MetadataJSON = "{}"
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Sample{}, errs.Wrap(err, "insert sample")
	}
	return mapSample(row), nil
}

func (r *SampleRepository) GetSample(ctx context.Context, sampleID uint64) (ports.Sample, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Sample{}, err
	}

	var row model.Sample
	if err := db.Where("sample_id = ?", sampleID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Sample{}, ports.ErrSampleNotFound
		}
		return ports.Sample{}, errs.Wrap(err, "query sample")
	}
	return mapSample(row), nil
}

func (r *SampleRepository) ListSamples(ctx context.Context, filter ports.SampleFilter) ([]ports.Sample, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Sample{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	} else if !filter.IncludeSkipped {
		// Skipped samples never show up in default listings; they must be
		// requested explicitly.
		query = query.Where("status <> ?", string(audit.StatusSkipped))
	}
	if assignee := strings.TrimSpace(filter.AssignedTo); assignee != "" {
		query = query.Where("assigned_to = ?", assignee)
	}

	var rows []model.Sample
	if err := query.Order("sample_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query samples")
	}

	items := make([]ports.Sample, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSample(row))
	}
	return items, nil
}

func (r *SampleRepository) CountActiveAssignments(ctx context.Context, auditorID string) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Sample{}).
		Where("assigned_to = ?", auditorID).
		Where("status IN ?", []string{string(audit.StatusAssigned), string(audit.StatusInProgress)}).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count active assignments")
	}
	return count, nil
}

func (r *SampleRepository) UpdateSampleFields(ctx context.Context, sampleID uint64, patch ports.SampleFieldPatch) (ports.Sample, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Sample{}, err
	}

	updates := map[string]any{}
	if patch.CustomerName != nil {
		updates["customer_name"] = *patch.CustomerName
	}
	if patch.TicketID != nil {
		updates["ticket_id"] = *patch.TicketID
	}
	if patch.FormType != nil {
		updates["form_type"] = *patch.FormType
	}
	if patch.Priority != nil {
		updates["priority"] = *patch.Priority
	}
	if patch.MetadataJSON != nil {
		updates["metadata_json"] = *patch.MetadataJSON
	}
	if len(updates) == 0 {
		return r.GetSample(ctx, sampleID)
	}

	result := db.Model(&model.Sample{}).Where("sample_id = ?", sampleID).Updates(updates)
	if result.Error != nil {
		return ports.Sample{}, errs.Wrap(result.Error, "update sample fields")
	}
	if result.RowsAffected == 0 {
		return ports.Sample{}, ports.ErrSampleNotFound
	}
	return r.GetSample(ctx, sampleID)
}

// TransitionSample applies a guarded status write. The WHERE clause on the
// current status makes concurrent transitions on the same sample id race
// safely: exactly one wins, the rest see ErrStatusConflict.
func (r *SampleRepository) TransitionSample(ctx context.Context, sampleID uint64, transition ports.SampleTransition) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}
	if len(transition.ExpectedStatus) == 0 {
		return errors.New("expected status set is required")
	}
	if strings.TrimSpace(transition.NewStatus) == "" {
		return errors.New("new status is required")
	}

	updates := map[string]any{
		"status":     transition.NewStatus,
		"updated_at": transition.UpdatedAt,
	}
	if transition.ClearAssignee {
		updates["assigned_to"] = nil
	} else if transition.AssignedTo != nil {
		updates["assigned_to"] = *transition.AssignedTo
	}
	if transition.ClearSkipReason {
		updates["skip_reason"] = nil
	} else if transition.SkipReason != nil {
		updates["skip_reason"] = *transition.SkipReason
	}
	if transition.HasDraft != nil {
		updates["has_draft"] = *transition.HasDraft
	}

	result := db.Model(&model.Sample{}).
		Where("sample_id = ?", sampleID).
		Where("status IN ?", transition.ExpectedStatus).
		Updates(updates)
	if result.Error != nil {
		return errs.Wrap(result.Error, "transition sample")
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.Sample{}).Where("sample_id = ?", sampleID).Count(&count).Error; err != nil {
			return errs.Wrap(err, "check sample existence")
		}
		if count == 0 {
			return ports.ErrSampleNotFound
		}
		return ports.ErrStatusConflict
	}
	return nil
}

func (r *SampleRepository) DeleteSample(ctx context.Context, sampleID uint64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Where("sample_id = ?", sampleID).Delete(&model.Sample{})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "delete sample")
	}
	return result.RowsAffected > 0, nil
}

func (r *SampleRepository) UpsertDraft(ctx context.Context, draft ports.Draft) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Draft{
		SampleID:    draft.SampleID,
		AnswersJSON: draft.AnswersJSON,
		RemarksJSON: draft.RemarksJSON,
		SavedAt:     draft.SavedAt,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sample_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"answers_json": row.AnswersJSON,
			"remarks_json": row.RemarksJSON,
			"saved_at":     row.SavedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert draft")
	}
	return nil
}

func (r *SampleRepository) GetDraft(ctx context.Context, sampleID uint64) (ports.Draft, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Draft{}, err
	}

	var row model.Draft
	if err := db.Where("sample_id = ?", sampleID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Draft{}, ports.ErrDraftNotFound
		}
		return ports.Draft{}, errs.Wrap(err, "query draft")
	}
	return ports.Draft{
		SampleID:    row.SampleID,
		AnswersJSON: row.AnswersJSON,
		RemarksJSON: row.RemarksJSON,
		SavedAt:     row.SavedAt,
	}, nil
}

func (r *SampleRepository) DeleteDraft(ctx context.Context, sampleID uint64) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("sample_id = ?", sampleID).Delete(&model.Draft{}).Error; err != nil {
		return errs.Wrap(err, "delete draft")
	}
	return nil
}

func (r *SampleRepository) CreateSkipRecord(ctx context.Context, record ports.SkipRecord) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.SkipRecord{
		SampleID:  record.SampleID,
		SkippedBy: record.SkippedBy,
		Reason:    record.Reason,
		SkippedAt: record.SkippedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert skip record")
	}
	return nil
}

func (r *SampleRepository) ListSkipRecords(ctx context.Context, sampleID uint64) ([]ports.SkipRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.SkipRecord
	if err := db.
		Where("sample_id = ?", sampleID).
		Order("skip_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query skip records")
	}

	items := make([]ports.SkipRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.SkipRecord{
			SkipID:    row.SkipID,
			SampleID:  row.SampleID,
			SkippedBy: row.SkippedBy,
			Reason:    row.Reason,
			SkippedAt: row.SkippedAt,
		})
	}
	return items, nil
}

func (r *SampleRepository) CreateDeletionRecord(ctx context.Context, record ports.DeletionRecord) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.DeletionRecord{
		DeletionID:   record.DeletionID,
		SampleID:     record.SampleID,
		DeletedBy:    record.DeletedBy,
		DeletedAt:    record.DeletedAt,
		SnapshotJSON: record.SnapshotJSON,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert deletion record")
	}
	return nil
}

func (r *SampleRepository) CreateCompletedAudit(ctx context.Context, record ports.CompletedAudit) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.CompletedAudit{
		SampleID:    record.SampleID,
		FormType:    record.FormType,
		AnswersJSON: record.AnswersJSON,
		RemarksJSON: record.RemarksJSON,
		Score:       record.Score,
		Fatal:       record.Fatal,
		CompletedBy: record.CompletedBy,
		CompletedAt: record.CompletedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert completed audit")
	}
	return nil
}

func (r *SampleRepository) GetCompletedAudit(ctx context.Context, sampleID uint64) (ports.CompletedAudit, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.CompletedAudit{}, err
	}

	var row model.CompletedAudit
	if err := db.Where("sample_id = ?", sampleID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CompletedAudit{}, ports.ErrAuditNotFound
		}
		return ports.CompletedAudit{}, errs.Wrap(err, "query completed audit")
	}
	return ports.CompletedAudit{
		SampleID:    row.SampleID,
		FormType:    row.FormType,
		AnswersJSON: row.AnswersJSON,
		RemarksJSON: row.RemarksJSON,
		Score:       row.Score,
		Fatal:       row.Fatal,
		CompletedBy: row.CompletedBy,
		CompletedAt: row.CompletedAt,
	}, nil
}

func mapSample(row model.Sample) ports.Sample {
	return ports.Sample{
		SampleID:     row.SampleID,
		CustomerName: row.CustomerName,
		TicketID:     row.TicketID,
		FormType:     row.FormType,
		Status:       row.Status,
		AssignedTo:   row.AssignedTo,
		Priority:     row.Priority,
		MetadataJSON: row.MetadataJSON,
		SkipReason:   row.SkipReason,
		HasDraft:     row.HasDraft,
		UploadedAt:   row.UploadedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
