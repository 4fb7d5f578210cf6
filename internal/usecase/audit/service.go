package audit

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"auditflow/internal/bootstrap/logging"
	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/ports"
)

// Service is the sample lifecycle and assignment core: sample store
// operations, the auditor directory view, the assignment engine, and the
// lifecycle state machine.
type Service struct {
	repo      ports.SampleRepository
	uow       ports.UnitOfWork
	directory ports.IdentityDirectory
	forms     ports.FormCatalog
	notifier  ports.Notifier

	// purgeDraftOnComplete controls whether a successful completion removes
	// the saved draft. Keeping stale drafts risks a later start() loading
	// answers from a finished audit.
	purgeDraftOnComplete bool

	rngMu sync.Mutex
	rng   *rand.Rand

	// locks serializes mutations per sample id on top of the repository's
	// guarded status writes.
	locks sync.Map
}

type Options struct {
	PurgeDraftOnComplete bool

	// Rand drives shuffle and strategy selection in bulk assignment.
	// Injectable so tests get deterministic distributions; nil seeds from
	// the clock.
	Rand *rand.Rand
}

func NewService(
	repo ports.SampleRepository,
	uow ports.UnitOfWork,
	directory ports.IdentityDirectory,
	forms ports.FormCatalog,
	notifier ports.Notifier,
	options Options,
) *Service {
	rng := options.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Service{
		repo:                 repo,
		uow:                  uow,
		directory:            directory,
		forms:                forms,
		notifier:             notifier,
		purgeDraftOnComplete: options.PurgeDraftOnComplete,
		rng:                  rng,
	}
}

type CreateSampleInput struct {
	CustomerName string
	TicketID     string
	FormType     string
	Priority     string
	Metadata     map[string]string
}

type UpdateSampleInput struct {
	CustomerName *string
	TicketID     *string
	FormType     *string
	Priority     *string
	Metadata     map[string]string
}

type SampleView struct {
	SampleRef    string
	CustomerName string
	TicketID     string
	FormType     string
	Status       string
	AssignedTo   string
	Priority     string
	Metadata     map[string]string
	SkipReason   string
	HasDraft     bool
	UploadedAt   string
	UpdatedAt    string
}

type AuditorView struct {
	ID       string
	Username string
	Workload int
}

type BulkAssignInput struct {
	SampleRefs []string
	AuditorIDs []string
}

type BulkAssignError struct {
	SampleRef string
	AuditorID string
	Reason    string
}

type BulkAssignResult struct {
	AssignedCount int
	Errors        []BulkAssignError
}

// WorkingState is the caller's form session after Start: the sample under
// audit plus any resumed draft content.
type WorkingState struct {
	SampleRef string
	FormType  string
	Answers   map[string]string
	Remarks   map[string]string

	// FormWarning carries the recoverable missing-form-definition condition;
	// the sample still enters inProgress.
	FormWarning string
}

type CompletedAuditView struct {
	SampleRef   string
	FormType    string
	Answers     map[string]string
	Remarks     map[string]string
	Score       int
	Fatal       bool
	CompletedBy string
	CompletedAt string
}

type SkipRecordView struct {
	SampleRef string
	SkippedBy string
	Reason    string
	SkippedAt string
}

// lockSample serializes mutations to one sample id. Returns the unlock func.
func (s *Service) lockSample(sampleID uint64) func() {
	value, _ := s.locks.LoadOrStore(sampleID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// releaseSampleLock drops the lock entry once the sample id can never be
// mutated again. Callers must still hold the lock when dropping it: a racing
// lockSample either holds the removed mutex (and serializes with us) or
// stores a fresh one for an id that no longer resolves to a row.
func (s *Service) releaseSampleLock(sampleID uint64) {
	s.locks.Delete(sampleID)
}

func (s *Service) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Service) shuffle(n int, swap func(i, j int)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(n, swap)
}

// publishBestEffort mirrors a lifecycle event to the sync collaborator.
// Failures are logged and never surfaced to the transition that emitted them.
func (s *Service) publishBestEffort(ctx context.Context, kind string, sampleRef string, actor string, detail map[string]string) {
	if s.notifier == nil {
		return
	}

	event := ports.LifecycleEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		SampleRef: sampleRef,
		Actor:     actor,
		At:        nowUTCString(),
		Detail:    detail,
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		logging.Warn(ctx, "lifecycle event publish failed",
			slog.String("kind", kind),
			slog.String("sample_ref", sampleRef),
			slog.String("err", err.Error()),
		)
	}
}

var (
	errInvalidState = domainaudit.ErrInvalidState
	errNotEligible  = domainaudit.ErrNotEligible
	errValidation   = domainaudit.ErrValidation
)
