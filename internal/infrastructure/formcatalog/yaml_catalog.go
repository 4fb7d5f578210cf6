package formcatalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"auditflow/internal/domain/audit"
	"auditflow/internal/errs"
	"auditflow/internal/ports"
)

// YAMLCatalog serves form definitions from one YAML file per form type under
// a configured directory. Definitions are read on every lookup so edits do
// not require a restart.
type YAMLCatalog struct {
	dir string
}

var _ ports.FormCatalog = (*YAMLCatalog)(nil)

func NewYAMLCatalog(dir string) *YAMLCatalog {
	return &YAMLCatalog{dir: dir}
}

type formFile struct {
	Name     string        `yaml:"name"`
	Sections []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	ID        string         `yaml:"id"`
	Title     string         `yaml:"title"`
	Questions []questionFile `yaml:"questions"`
}

type questionFile struct {
	ID          string          `yaml:"id"`
	Text        string          `yaml:"text"`
	Mandatory   bool            `yaml:"mandatory"`
	Fatal       bool            `yaml:"fatal"`
	Weightage   int             `yaml:"weightage"`
	FatalValues []string        `yaml:"fatalValues"`
	Visibility  *visibilityFile `yaml:"visibility"`
}

type visibilityFile struct {
	QuestionID string   `yaml:"questionId"`
	ShowWhen   []string `yaml:"showWhen"`
}

func (c *YAMLCatalog) GetForm(ctx context.Context, name string) (audit.FormDefinition, error) {
	if ctx == nil {
		return audit.FormDefinition{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return audit.FormDefinition{}, errs.Wrap(err, "check context")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return audit.FormDefinition{}, fmt.Errorf("%w: empty form name", audit.ErrFormNotFound)
	}
	if strings.ContainsAny(trimmed, `/\`) {
		return audit.FormDefinition{}, fmt.Errorf("%w: %q", audit.ErrFormNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(c.dir, trimmed+".yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return audit.FormDefinition{}, fmt.Errorf("%w: %q", audit.ErrFormNotFound, name)
		}
		return audit.FormDefinition{}, errs.Wrapf(err, "read form definition %q", name)
	}

	var file formFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return audit.FormDefinition{}, errs.Wrapf(err, "parse form definition %q", name)
	}

	form := audit.FormDefinition{
		Name:     file.Name,
		Sections: make([]audit.Section, 0, len(file.Sections)),
	}
	if form.Name == "" {
		form.Name = trimmed
	}

	for _, section := range file.Sections {
		out := audit.Section{
			ID:        section.ID,
			Title:     section.Title,
			Questions: make([]audit.Question, 0, len(section.Questions)),
		}
		for _, q := range section.Questions {
			question := audit.Question{
				ID:          q.ID,
				Text:        q.Text,
				Mandatory:   q.Mandatory,
				Fatal:       q.Fatal,
				Weightage:   q.Weightage,
				FatalValues: q.FatalValues,
			}
			if q.Visibility != nil {
				question.Visibility = &audit.VisibilityRule{
					QuestionID: q.Visibility.QuestionID,
					ShowWhen:   q.Visibility.ShowWhen,
				}
			}
			out.Questions = append(out.Questions, question)
		}
		form.Sections = append(form.Sections, out)
	}

	return form, nil
}
