package ports

import (
	"context"
	"errors"
)

var (
	ErrSampleNotFound = errors.New("sample not found")
	ErrDraftNotFound  = errors.New("draft not found")
	ErrAuditNotFound  = errors.New("completed audit not found")

	// ErrStatusConflict: a guarded status update matched zero rows because
	// the sample's status changed under us. The caller's transition must
	// fail without side effects.
	ErrStatusConflict = errors.New("sample status changed concurrently")
)

type Sample struct {
	SampleID     uint64
	CustomerName string
	TicketID     string
	FormType     string
	Status       string
	AssignedTo   *string
	Priority     *string
	MetadataJSON string
	SkipReason   *string
	HasDraft     bool
	UploadedAt   string
	UpdatedAt    string
}

// SampleFilter narrows ListSamples. Skipped samples are excluded unless the
// filter explicitly asks for them.
type SampleFilter struct {
	Status         string
	AssignedTo     string
	IncludeSkipped bool
}

// SampleFieldPatch merges descriptive fields into an existing sample.
// Identity and lifecycle fields are deliberately absent; status moves only
// through TransitionSample.
type SampleFieldPatch struct {
	CustomerName *string
	TicketID     *string
	FormType     *string
	Priority     *string
	MetadataJSON *string
}

// SampleTransition is a guarded status write: the row is updated only while
// its status is still one of ExpectedStatus. Optional fields are applied in
// the same statement so the transition lands atomically.
type SampleTransition struct {
	ExpectedStatus  []string
	NewStatus       string
	AssignedTo      *string
	ClearAssignee   bool
	SkipReason      *string
	ClearSkipReason bool
	HasDraft        *bool
	UpdatedAt       string
}

type Draft struct {
	SampleID    uint64
	AnswersJSON string
	RemarksJSON string
	SavedAt     string
}

type SkipRecord struct {
	SkipID    uint64
	SampleID  uint64
	SkippedBy string
	Reason    string
	SkippedAt string
}

type DeletionRecord struct {
	DeletionID   string
	SampleID     uint64
	DeletedBy    string
	DeletedAt    string
	SnapshotJSON string
}

type CompletedAudit struct {
	SampleID    uint64
	FormType    string
	AnswersJSON string
	RemarksJSON string
	Score       int
	Fatal       bool
	CompletedBy string
	CompletedAt string
}

type SampleReadRepository interface {
	GetSample(ctx context.Context, sampleID uint64) (Sample, error)
	ListSamples(ctx context.Context, filter SampleFilter) ([]Sample, error)
	CountActiveAssignments(ctx context.Context, auditorID string) (int64, error)
	GetDraft(ctx context.Context, sampleID uint64) (Draft, error)
	ListSkipRecords(ctx context.Context, sampleID uint64) ([]SkipRecord, error)
	GetCompletedAudit(ctx context.Context, sampleID uint64) (CompletedAudit, error)
}

type SampleRepository interface {
	SampleReadRepository
	CreateSample(ctx context.Context, sample Sample) (Sample, error)
	UpdateSampleFields(ctx context.Context, sampleID uint64, patch SampleFieldPatch) (Sample, error)
	TransitionSample(ctx context.Context, sampleID uint64, transition SampleTransition) error
	DeleteSample(ctx context.Context, sampleID uint64) (bool, error)
	UpsertDraft(ctx context.Context, draft Draft) error
	DeleteDraft(ctx context.Context, sampleID uint64) error
	CreateSkipRecord(ctx context.Context, record SkipRecord) error
	CreateDeletionRecord(ctx context.Context, record DeletionRecord) error
	CreateCompletedAudit(ctx context.Context, record CompletedAudit) error
}
