package domain

import "time"

// GivenAnswer holds one submitted answer: free text for TEXT questions, a
// per-option selection vector for choice questions.
type GivenAnswer struct {
	Text    string `json:"text,omitempty"`
	Choices []bool `json:"choices,omitempty"`
}

// QuizRun is one student's in-progress attempt at a quiz. Questions is the
// student's fixed question order for this run, enabling stable resume.
// Answers and Correct grow in lockstep; Counter is both the number of
// answered questions and the next index into Questions.
type QuizRun struct {
	UID       string        `json:"uid"`
	StudentID string        `json:"studentId"`
	Questions []string      `json:"questions"`
	Answers   []GivenAnswer `json:"answers"`
	Correct   []bool        `json:"correct"`
	Counter   int           `json:"counter"`
	Created   time.Time     `json:"created"`
	Updated   time.Time     `json:"updated"`
}

// QuizRunPatch is a partial run update. StudentID is always carried so
// receivers can discard updates addressed to a different viewer.
type QuizRunPatch struct {
	UID       string        `json:"uid,omitempty"`
	StudentID string        `json:"studentId,omitempty"`
	Questions []string      `json:"questions,omitempty"`
	Answers   []GivenAnswer `json:"answers,omitempty"`
	Correct   []bool        `json:"correct,omitempty"`
	Counter   *int          `json:"counter,omitempty"`
	Updated   *time.Time    `json:"updated,omitempty"`
}

// ApplyTo shallow-merges the patch into the run.
func (p QuizRunPatch) ApplyTo(r *QuizRun) {
	if p.UID != "" {
		r.UID = p.UID
	}
	if p.StudentID != "" {
		r.StudentID = p.StudentID
	}
	if p.Questions != nil {
		r.Questions = p.Questions
	}
	if p.Answers != nil {
		r.Answers = p.Answers
	}
	if p.Correct != nil {
		r.Correct = p.Correct
	}
	if p.Counter != nil {
		r.Counter = *p.Counter
	}
	if p.Updated != nil {
		r.Updated = *p.Updated
	}
}

// AsPatch converts a full run into a patch carrying every field.
func (r QuizRun) AsPatch() QuizRunPatch {
	return QuizRunPatch{
		UID:       r.UID,
		StudentID: r.StudentID,
		Questions: r.Questions,
		Answers:   r.Answers,
		Correct:   r.Correct,
		Counter:   &r.Counter,
		Updated:   &r.Updated,
	}
}
