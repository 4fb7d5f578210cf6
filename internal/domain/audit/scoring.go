package audit

import "strings"

// QuestionVisible applies the controlling-question rule. Questions without a
// visibility rule are always visible.
func QuestionVisible(q Question, answers map[string]string) bool {
	if q.Visibility == nil {
		return true
	}

	controlling := strings.TrimSpace(answers[q.Visibility.QuestionID])
	for _, value := range q.Visibility.ShowWhen {
		if strings.EqualFold(controlling, strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

// MissingMandatory returns ids of mandatory, currently-visible questions
// without a non-empty answer, in form order.
func MissingMandatory(form FormDefinition, answers map[string]string) []string {
	missing := make([]string, 0, 4)
	for _, q := range form.Questions() {
		if !q.Mandatory || !QuestionVisible(q, answers) {
			continue
		}
		if strings.TrimSpace(answers[q.ID]) == "" {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Score computes the deterministic audit score: the sum of weightage over
// answered, non-failing, visible questions. Any fatal question answered with
// a fatal-trigger value zeroes the whole score.
func Score(form FormDefinition, answers map[string]string) (int, bool) {
	total := 0
	fatal := false

	for _, q := range form.Questions() {
		if !QuestionVisible(q, answers) {
			continue
		}

		answer := strings.TrimSpace(answers[q.ID])
		if answer == "" {
			continue
		}

		if answerTriggersFatal(q, answer) {
			if q.Fatal {
				fatal = true
			}
			continue
		}
		total += q.Weightage
	}

	if fatal {
		return 0, true
	}
	return total, false
}

func answerTriggersFatal(q Question, answer string) bool {
	for _, value := range q.FatalValues {
		if strings.EqualFold(answer, strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}
