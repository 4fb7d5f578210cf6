package audit

import (
	"testing"
)

func scoringForm() FormDefinition {
	return FormDefinition{
		Name: "voice-basic",
		Sections: []Section{
			{
				ID:    "greeting",
				Title: "Greeting",
				Questions: []Question{
					{ID: "q1", Text: "Agent greeted the customer", Mandatory: true, Weightage: 20},
					{ID: "q2", Text: "Agent verified identity", Mandatory: true, Weightage: 30, Fatal: true, FatalValues: []string{"no"}},
				},
			},
			{
				ID:    "resolution",
				Title: "Resolution",
				Questions: []Question{
					{ID: "q3", Text: "Issue resolved on first contact", Mandatory: false, Weightage: 40},
					{
						ID:        "q4",
						Text:      "Escalation handled correctly",
						Mandatory: true,
						Weightage: 10,
						Visibility: &VisibilityRule{
							QuestionID: "q3",
							ShowWhen:   []string{"no", "escalated"},
						},
					},
				},
			},
		},
	}
}

func TestQuestionVisibleWithoutRule(t *testing.T) {
	q := Question{ID: "q1"}
	if !QuestionVisible(q, nil) {
		t.Fatalf("question without visibility rule should always be visible")
	}
}

func TestQuestionVisibleMatchesCaseInsensitive(t *testing.T) {
	form := scoringForm()
	q4 := form.Sections[1].Questions[1]

	if !QuestionVisible(q4, map[string]string{"q3": " Escalated "}) {
		t.Fatalf("q4 should be visible when q3=escalated")
	}
	if QuestionVisible(q4, map[string]string{"q3": "yes"}) {
		t.Fatalf("q4 should be hidden when q3=yes")
	}
	if QuestionVisible(q4, nil) {
		t.Fatalf("q4 should be hidden with no controlling answer")
	}
}

func TestMissingMandatoryHonorsVisibility(t *testing.T) {
	form := scoringForm()

	missing := MissingMandatory(form, map[string]string{"q3": "yes"})
	if len(missing) != 2 || missing[0] != "q1" || missing[1] != "q2" {
		t.Fatalf("missing = %v, want [q1 q2]", missing)
	}

	// q3=no reveals q4, which is also mandatory.
	missing = MissingMandatory(form, map[string]string{"q1": "yes", "q3": "no"})
	if len(missing) != 2 || missing[0] != "q2" || missing[1] != "q4" {
		t.Fatalf("missing = %v, want [q2 q4]", missing)
	}

	missing = MissingMandatory(form, map[string]string{
		"q1": "yes",
		"q2": "yes",
		"q3": "yes",
	})
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
}

func TestScoreSumsVisibleAnsweredQuestions(t *testing.T) {
	form := scoringForm()

	score, fatal := Score(form, map[string]string{
		"q1": "yes",
		"q2": "yes",
		"q3": "yes",
	})
	if fatal {
		t.Fatalf("unexpected fatal")
	}
	// q4 hidden by q3=yes, so 20+30+40.
	if score != 90 {
		t.Fatalf("score = %d, want 90", score)
	}
}

func TestScoreSkipsHiddenAndUnanswered(t *testing.T) {
	form := scoringForm()

	score, fatal := Score(form, map[string]string{
		"q1": "yes",
		"q2": "yes",
	})
	if fatal {
		t.Fatalf("unexpected fatal")
	}
	if score != 50 {
		t.Fatalf("score = %d, want 50", score)
	}
}

func TestScoreFatalAnswerZeroesEverything(t *testing.T) {
	form := scoringForm()

	score, fatal := Score(form, map[string]string{
		"q1": "yes",
		"q2": "NO",
		"q3": "yes",
	})
	if !fatal {
		t.Fatalf("expected fatal flag")
	}
	if score != 0 {
		t.Fatalf("score = %d, want 0", score)
	}
}
