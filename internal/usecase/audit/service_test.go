package audit

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	domainaudit "auditflow/internal/domain/audit"
	"auditflow/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "auditflow/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "auditflow/internal/infrastructure/persistence/sqlite/uow"
	"auditflow/internal/ports"
)

var testDBSeq atomic.Int64

type testCatalog struct {
	forms    map[string]domainaudit.FormDefinition
	loadErrs map[string]error
}

func (c *testCatalog) GetForm(_ context.Context, name string) (domainaudit.FormDefinition, error) {
	if err, ok := c.loadErrs[name]; ok {
		return domainaudit.FormDefinition{}, err
	}
	form, ok := c.forms[name]
	if !ok {
		return domainaudit.FormDefinition{}, domainaudit.ErrFormNotFound
	}
	return form, nil
}

type testNotifier struct {
	events []ports.LifecycleEvent
	fail   bool
}

func (n *testNotifier) Publish(_ context.Context, event ports.LifecycleEvent) error {
	if n.fail {
		return errors.New("notifier is down")
	}
	n.events = append(n.events, event)
	return nil
}

func (n *testNotifier) kinds() []string {
	out := make([]string, 0, len(n.events))
	for _, event := range n.events {
		out = append(out, event.Kind)
	}
	return out
}

func testForm() domainaudit.FormDefinition {
	return domainaudit.FormDefinition{
		Name: "voice-basic",
		Sections: []domainaudit.Section{
			{
				ID: "main",
				Questions: []domainaudit.Question{
					{ID: "q1", Text: "Greeting", Mandatory: true, Weightage: 40},
					{ID: "q2", Text: "Identity check", Mandatory: true, Weightage: 40, Fatal: true, FatalValues: []string{"no"}},
					{ID: "q3", Text: "Closing", Mandatory: false, Weightage: 20},
				},
			},
		},
	}
}

type testEnv struct {
	svc      *Service
	db       *gorm.DB
	repo     *sqliterepo.SampleRepository
	catalog  *testCatalog
	notifier *testNotifier
	users    *sqliterepo.UserDirectory
}

func setupEnvWithOptions(t *testing.T, options Options) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:audit_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Sample{},
		&model.Draft{},
		&model.SkipRecord{},
		&model.DeletionRecord{},
		&model.CompletedAudit{},
		&model.User{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	catalog := &testCatalog{forms: map[string]domainaudit.FormDefinition{
		"voice-basic": testForm(),
	}}
	notifier := &testNotifier{}
	repo := sqliterepo.NewSampleRepository(db)
	users := sqliterepo.NewUserDirectory(db)
	uow := sqliteuow.NewUnitOfWork(db)

	if options.Rand == nil {
		options.Rand = rand.New(rand.NewSource(1))
	}

	return &testEnv{
		svc:      NewService(repo, uow, users, catalog, notifier, options),
		db:       db,
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		users:    users,
	}
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupEnvWithOptions(t, Options{PurgeDraftOnComplete: true})
}

func (e *testEnv) addAuditor(t *testing.T, id string) {
	t.Helper()
	e.addUser(t, id, true, true)
}

func (e *testEnv) addUser(t *testing.T, id string, active bool, canAudit bool) {
	t.Helper()
	err := e.users.CreateUser(context.Background(), ports.UserInfo{
		ID:       id,
		Username: "name-" + id,
		Active:   active,
		CanAudit: canAudit,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", id, err)
	}
}

func (e *testEnv) createSample(t *testing.T, ticketID string) SampleView {
	t.Helper()
	view, err := e.svc.CreateSample(context.Background(), CreateSampleInput{
		CustomerName: "Acme Corp",
		TicketID:     ticketID,
		FormType:     "voice-basic",
	})
	if err != nil {
		t.Fatalf("CreateSample(%s) error = %v", ticketID, err)
	}
	return view
}

func TestCreateSampleStartsAvailable(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	view, err := env.svc.CreateSample(ctx, CreateSampleInput{
		CustomerName: "Acme Corp",
		TicketID:     "TCK-1001",
		FormType:     "voice-basic",
		Priority:     "High",
		Metadata:     map[string]string{"channel": "voice"},
	})
	if err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}

	if view.Status != string(domainaudit.StatusAvailable) {
		t.Fatalf("status = %q, want available", view.Status)
	}
	if view.AssignedTo != "" {
		t.Fatalf("assignedTo = %q, want empty", view.AssignedTo)
	}
	if view.Priority != "high" {
		t.Fatalf("priority = %q, want high", view.Priority)
	}
	if view.Metadata["channel"] != "voice" {
		t.Fatalf("metadata = %v", view.Metadata)
	}
	if view.UploadedAt == "" || view.UpdatedAt == "" {
		t.Fatalf("timestamps missing: uploaded=%q updated=%q", view.UploadedAt, view.UpdatedAt)
	}

	if got := env.notifier.kinds(); len(got) != 1 || got[0] != ports.EventSampleCreated {
		t.Fatalf("events = %v", got)
	}
}

func TestCreateSampleRejectsMissingFields(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	cases := []CreateSampleInput{
		{TicketID: "TCK-1", FormType: "voice-basic"},
		{CustomerName: "Acme", FormType: "voice-basic"},
		{CustomerName: "Acme", TicketID: "TCK-1"},
		{CustomerName: "Acme", TicketID: "TCK-1", FormType: "voice-basic", Priority: "urgent"},
	}

	for i, input := range cases {
		if _, err := env.svc.CreateSample(ctx, input); !errors.Is(err, domainaudit.ErrValidation) {
			t.Fatalf("case %d: error = %v, want ErrValidation", i, err)
		}
	}
}

func TestUpdateSamplePatchesOnlyGivenFields(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	created := env.createSample(t, "TCK-2001")

	newTicket := "TCK-2001-b"
	updated, err := env.svc.UpdateSample(ctx, created.SampleRef, UpdateSampleInput{
		TicketID: &newTicket,
	})
	if err != nil {
		t.Fatalf("UpdateSample() error = %v", err)
	}

	if updated.TicketID != newTicket {
		t.Fatalf("ticketID = %q, want %q", updated.TicketID, newTicket)
	}
	if updated.CustomerName != created.CustomerName {
		t.Fatalf("customerName changed: %q", updated.CustomerName)
	}
	if updated.Status != created.Status {
		t.Fatalf("status changed: %q", updated.Status)
	}
}

func TestUpdateSampleCannotClearRequiredField(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	created := env.createSample(t, "TCK-2002")

	blank := "  "
	if _, err := env.svc.UpdateSample(ctx, created.SampleRef, UpdateSampleInput{CustomerName: &blank}); !errors.Is(err, domainaudit.ErrValidation) {
		t.Fatalf("UpdateSample(blank customer) error = %v, want ErrValidation", err)
	}
}

func TestGetSampleUnknownRef(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	if _, err := env.svc.GetSample(ctx, "SMP-999999"); !errors.Is(err, ports.ErrSampleNotFound) {
		t.Fatalf("GetSample() error = %v, want ErrSampleNotFound", err)
	}
	if _, err := env.svc.GetSample(ctx, "bogus"); !errors.Is(err, domainaudit.ErrInvalidSampleRef) {
		t.Fatalf("GetSample(bogus) error = %v, want ErrInvalidSampleRef", err)
	}
}

func TestListSamplesHidesSkippedByDefault(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addAuditor(t, "aud-1")

	first := env.createSample(t, "TCK-3001")
	second := env.createSample(t, "TCK-3002")

	if _, err := env.svc.AssignOne(ctx, second.SampleRef, "aud-1"); err != nil {
		t.Fatalf("AssignOne() error = %v", err)
	}
	if err := env.svc.Skip(ctx, second.SampleRef, "aud-1", "call recording missing"); err != nil {
		t.Fatalf("Skip() error = %v", err)
	}

	items, err := env.svc.ListSamples(ctx, "", "")
	if err != nil {
		t.Fatalf("ListSamples() error = %v", err)
	}
	if len(items) != 1 || items[0].SampleRef != first.SampleRef {
		t.Fatalf("default list = %+v, want only %s", items, first.SampleRef)
	}

	skipped, err := env.svc.ListSamples(ctx, "skipped", "")
	if err != nil {
		t.Fatalf("ListSamples(skipped) error = %v", err)
	}
	if len(skipped) != 1 || skipped[0].SampleRef != second.SampleRef {
		t.Fatalf("skipped list = %+v, want only %s", skipped, second.SampleRef)
	}
	if skipped[0].SkipReason != "call recording missing" {
		t.Fatalf("skipReason = %q", skipped[0].SkipReason)
	}
}

func TestListSamplesRejectsUnknownStatus(t *testing.T) {
	env := setupEnv(t)

	if _, err := env.svc.ListSamples(context.Background(), "archived", ""); !errors.Is(err, domainaudit.ErrUnknownStatus) {
		t.Fatalf("ListSamples(archived) error = %v, want ErrUnknownStatus", err)
	}
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	env := setupEnv(t)
	env.notifier.fail = true

	view, err := env.svc.CreateSample(context.Background(), CreateSampleInput{
		CustomerName: "Acme Corp",
		TicketID:     "TCK-4001",
		FormType:     "voice-basic",
	})
	if err != nil {
		t.Fatalf("CreateSample() error = %v", err)
	}
	if view.Status != string(domainaudit.StatusAvailable) {
		t.Fatalf("status = %q", view.Status)
	}
}
