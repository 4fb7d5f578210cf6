package audit

// FormDefinition is the schema of an audit form as served by the form
// catalog. The core only reads it for completion validation and scoring;
// rendering is out of scope.
type FormDefinition struct {
	Name     string
	Sections []Section
}

type Section struct {
	ID        string
	Title     string
	Questions []Question
}

type Question struct {
	ID        string
	Text      string
	Mandatory bool
	Weightage int

	// Fatal questions force the audit score to zero when answered with one
	// of FatalValues.
	Fatal       bool
	FatalValues []string

	// Visibility, when set, hides the question unless the controlling
	// question's answer is in ShowWhen.
	Visibility *VisibilityRule
}

type VisibilityRule struct {
	QuestionID string
	ShowWhen   []string
}

// Questions flattens the section tree in declaration order.
func (f FormDefinition) Questions() []Question {
	out := make([]Question, 0, 16)
	for _, section := range f.Sections {
		out = append(out, section.Questions...)
	}
	return out
}
