package formcatalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"auditflow/internal/domain/audit"
)

const sampleFormYAML = `name: voice-basic
sections:
  - id: greeting
    title: Greeting
    questions:
      - id: q1
        text: Agent greeted the customer
        mandatory: true
        weightage: 40
      - id: q2
        text: Agent verified identity
        mandatory: true
        weightage: 40
        fatal: true
        fatalValues: ["no"]
  - id: resolution
    title: Resolution
    questions:
      - id: q3
        text: Escalation handled correctly
        weightage: 20
        visibility:
          questionId: q1
          showWhen: ["yes"]
`

func writeForm(t *testing.T, dir string, name string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write form file: %v", err)
	}
}

func TestGetFormParsesDefinition(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, dir, "voice-basic", sampleFormYAML)

	catalog := NewYAMLCatalog(dir)
	form, err := catalog.GetForm(context.Background(), "voice-basic")
	if err != nil {
		t.Fatalf("GetForm() error = %v", err)
	}

	if form.Name != "voice-basic" {
		t.Fatalf("name = %q", form.Name)
	}
	questions := form.Questions()
	if len(questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(questions))
	}

	q2 := questions[1]
	if !q2.Fatal || len(q2.FatalValues) != 1 || q2.FatalValues[0] != "no" {
		t.Fatalf("q2 = %+v", q2)
	}

	q3 := questions[2]
	if q3.Visibility == nil || q3.Visibility.QuestionID != "q1" {
		t.Fatalf("q3 visibility = %+v", q3.Visibility)
	}
	if q3.Mandatory {
		t.Fatalf("q3 should not be mandatory")
	}
}

func TestGetFormDefaultsNameFromFile(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, dir, "chat-short", "sections: []\n")

	catalog := NewYAMLCatalog(dir)
	form, err := catalog.GetForm(context.Background(), "chat-short")
	if err != nil {
		t.Fatalf("GetForm() error = %v", err)
	}
	if form.Name != "chat-short" {
		t.Fatalf("name = %q, want chat-short", form.Name)
	}
}

func TestGetFormMissingDefinition(t *testing.T) {
	catalog := NewYAMLCatalog(t.TempDir())

	if _, err := catalog.GetForm(context.Background(), "nope"); !errors.Is(err, audit.ErrFormNotFound) {
		t.Fatalf("GetForm(nope) error = %v, want ErrFormNotFound", err)
	}
}

func TestGetFormRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, dir, "real", "sections: []\n")

	catalog := NewYAMLCatalog(filepath.Join(dir, "sub"))
	for _, name := range []string{"../real", `..\real`, "", "  "} {
		if _, err := catalog.GetForm(context.Background(), name); !errors.Is(err, audit.ErrFormNotFound) {
			t.Fatalf("GetForm(%q) error = %v, want ErrFormNotFound", name, err)
		}
	}
}

func TestGetFormMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, dir, "broken", "sections: [unclosed\n")

	catalog := NewYAMLCatalog(dir)
	if _, err := catalog.GetForm(context.Background(), "broken"); err == nil {
		t.Fatalf("GetForm(broken) expected parse error")
	}
}
