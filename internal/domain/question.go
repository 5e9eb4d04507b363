package domain

import "time"

// QuestionType discriminates how a question is answered and graded.
type QuestionType string

const (
	SingleChoice   QuestionType = "SINGLE"
	MultipleChoice QuestionType = "MULTIPLE"
	TextQuestion   QuestionType = "TEXT"
)

// AnswerOption is one selectable answer of a choice question.
type AnswerOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an authored quiz question. TEXT questions carry no graded
// options; they are always considered answered correctly.
type Question struct {
	UID        string         `json:"uid"`
	Text       string         `json:"text"`
	Type       QuestionType   `json:"type"`
	Answers    []AnswerOption `json:"answers"`
	AuthorID   string         `json:"authorId"`
	AuthorName string         `json:"authorName"`
	Approved   bool           `json:"approved"`
	EditMode   bool           `json:"editMode"`
	Created    time.Time      `json:"created"`
	Updated    time.Time      `json:"updated"`
}

// VisibleTo reports whether a viewer may see the question: admins, the
// author and the quiz's teachers always can, everyone else only after
// approval.
func (q Question) VisibleTo(viewer User, quiz Quiz) bool {
	if viewer.Role == RoleAdmin || q.Approved {
		return true
	}
	if q.AuthorID == viewer.UID {
		return true
	}
	return quiz.HasTeacher(viewer.UID)
}

// Grade computes correctness of a submitted answer for this question.
func (q Question) Grade(answer GivenAnswer) bool {
	if q.Type == TextQuestion {
		return true
	}
	return GradeChoices(answer.Choices, q.Answers)
}

// GradeChoices compares a selection vector against the stored options
// positionally. Short submissions are padded with false, positions beyond
// the stored options are ignored and an empty submission is incorrect.
func GradeChoices(submitted []bool, options []AnswerOption) bool {
	if len(submitted) == 0 {
		return false
	}
	for i, opt := range options {
		selected := false
		if i < len(submitted) {
			selected = submitted[i]
		}
		if selected != opt.Correct {
			return false
		}
	}
	return true
}

// QuestionPatch is a partial question update.
type QuestionPatch struct {
	UID        string         `json:"uid,omitempty"`
	Text       *string        `json:"text,omitempty"`
	Type       *QuestionType  `json:"type,omitempty"`
	Answers    []AnswerOption `json:"answers,omitempty"`
	AuthorID   *string        `json:"authorId,omitempty"`
	AuthorName *string        `json:"authorName,omitempty"`
	Approved   *bool          `json:"approved,omitempty"`
	EditMode   *bool          `json:"editMode,omitempty"`
	Updated    *time.Time     `json:"updated,omitempty"`
}

// ApplyTo shallow-merges the patch into the question.
func (p QuestionPatch) ApplyTo(q *Question) {
	if p.UID != "" {
		q.UID = p.UID
	}
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Answers != nil {
		q.Answers = p.Answers
	}
	if p.AuthorID != nil {
		q.AuthorID = *p.AuthorID
	}
	if p.AuthorName != nil {
		q.AuthorName = *p.AuthorName
	}
	if p.Approved != nil {
		q.Approved = *p.Approved
	}
	if p.EditMode != nil {
		q.EditMode = *p.EditMode
	}
	if p.Updated != nil {
		q.Updated = *p.Updated
	}
}

// AsPatch converts a full question into a patch carrying every field.
func (q Question) AsPatch() QuestionPatch {
	return QuestionPatch{
		UID:        q.UID,
		Text:       &q.Text,
		Type:       &q.Type,
		Answers:    q.Answers,
		AuthorID:   &q.AuthorID,
		AuthorName: &q.AuthorName,
		Approved:   &q.Approved,
		EditMode:   &q.EditMode,
		Updated:    &q.Updated,
	}
}
