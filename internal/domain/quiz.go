package domain

import (
	"math/rand"
	"time"
)

// QuizState is the lifecycle phase of a quiz.
type QuizState string

const (
	QuizEditing QuizState = "EDITING"
	QuizStarted QuizState = "STARTED"
	QuizStopped QuizState = "STOPPED"
	// QuizActive is a legacy phase still present on old quizzes. It is
	// accepted as a start source but never written back.
	QuizActive QuizState = "ACTIVE"
)

// CanTransition reports whether the lifecycle state machine allows moving
// from one phase to another. Illegal transitions are expected to be dropped
// silently by callers.
func CanTransition(from, to QuizState) bool {
	switch to {
	case QuizStarted:
		return from == QuizActive || from == QuizEditing || from == QuizStopped
	case QuizStopped:
		return from == QuizStarted || from == QuizEditing
	case QuizEditing:
		return from != QuizEditing
	default:
		return false
	}
}

// Group is a named, ordered subdivision of a quiz's questions. A question id
// appears in at most one group at a time.
type Group struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

// ParticipationSettings controls how students may appear in a quiz.
type ParticipationSettings struct {
	Anonymous bool `json:"ANONYMOUS"`
	Name      bool `json:"NAME"`
	Nickname  bool `json:"NICKNAME"`
}

// QuestionTypeSettings controls which question types may be authored.
type QuestionTypeSettings struct {
	Single   bool `json:"SINGLE"`
	Multiple bool `json:"MULTIPLE"`
	Text     bool `json:"TEXT"`
}

// Quiz is the authored unit containing grouped questions, membership and
// lifecycle state.
type Quiz struct {
	UID                  string                `json:"uid"`
	Title                string                `json:"title"`
	Description          string                `json:"description"`
	State                QuizState             `json:"state"`
	UniqueLink           string                `json:"uniqueLink"`
	Groups               []Group               `json:"groups"`
	Teachers             []string              `json:"teachers"`
	Students             []string              `json:"students"`
	Comments             []string              `json:"comments"`
	StudentQuestions     bool                  `json:"studentQuestions"`
	StudentComments      bool                  `json:"studentComments"`
	StudentParticipation ParticipationSettings `json:"studentParticipationSettings"`
	AllowedQuestionTypes QuestionTypeSettings  `json:"allowedQuestionTypesSettings"`
	ShuffleQuestions     bool                  `json:"shuffleQuestions"`
	Created              time.Time             `json:"created"`
	Updated              time.Time             `json:"updated"`
}

// HasTeacher reports whether the user id is among the quiz's teachers.
func (q Quiz) HasTeacher(userID string) bool {
	return contains(q.Teachers, userID)
}

// HasStudent reports whether the user id is among the quiz's students.
func (q Quiz) HasStudent(userID string) bool {
	return contains(q.Students, userID)
}

// FlattenQuestions returns all question ids in group order, then in-group
// order. This is the canonical question sequence for a run.
func (q Quiz) FlattenQuestions() []string {
	var ids []string
	for _, g := range q.Groups {
		ids = append(ids, g.Questions...)
	}
	return ids
}

// CloneGroups deep-copies the group list so callers can rearrange question
// ids without touching state shared with earlier snapshots.
func CloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{Name: g.Name, Questions: append([]string(nil), g.Questions...)}
	}
	return out
}

// AppendToGroup appends a question id to the named group. Returns the group
// list unchanged if no group carries that name.
func AppendToGroup(groups []Group, name, questionID string) []Group {
	for i := range groups {
		if groups[i].Name == name {
			groups[i].Questions = append(groups[i].Questions, questionID)
			break
		}
	}
	return groups
}

// MoveToGroup removes a question id from whichever group currently holds it
// and appends it to the named group.
func MoveToGroup(groups []Group, name, questionID string) []Group {
	for i := range groups {
		kept := groups[i].Questions[:0]
		for _, id := range groups[i].Questions {
			if id != questionID {
				kept = append(kept, id)
			}
		}
		groups[i].Questions = kept
	}
	return AppendToGroup(groups, name, questionID)
}

// ShuffleOrder returns a shuffled copy of the id sequence.
func ShuffleOrder(rnd *rand.Rand, ids []string) []string {
	out := append([]string(nil), ids...)
	rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// QuizPatch is a partial quiz update. Nil fields are absent and leave the
// target untouched; slice fields replace wholesale when present.
type QuizPatch struct {
	UID                  string                 `json:"uid,omitempty"`
	Title                *string                `json:"title,omitempty"`
	Description          *string                `json:"description,omitempty"`
	State                *QuizState             `json:"state,omitempty"`
	UniqueLink           *string                `json:"uniqueLink,omitempty"`
	Groups               []Group                `json:"groups,omitempty"`
	Teachers             []string               `json:"teachers,omitempty"`
	Students             []string               `json:"students,omitempty"`
	Comments             []string               `json:"comments,omitempty"`
	StudentQuestions     *bool                  `json:"studentQuestions,omitempty"`
	StudentComments      *bool                  `json:"studentComments,omitempty"`
	StudentParticipation *ParticipationSettings `json:"studentParticipationSettings,omitempty"`
	AllowedQuestionTypes *QuestionTypeSettings  `json:"allowedQuestionTypesSettings,omitempty"`
	ShuffleQuestions     *bool                  `json:"shuffleQuestions,omitempty"`
	Updated              *time.Time             `json:"updated,omitempty"`
}

// ApplyTo shallow-merges the patch into the quiz.
func (p QuizPatch) ApplyTo(q *Quiz) {
	if p.UID != "" {
		q.UID = p.UID
	}
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	if p.State != nil {
		q.State = *p.State
	}
	if p.UniqueLink != nil {
		q.UniqueLink = *p.UniqueLink
	}
	if p.Groups != nil {
		q.Groups = p.Groups
	}
	if p.Teachers != nil {
		q.Teachers = p.Teachers
	}
	if p.Students != nil {
		q.Students = p.Students
	}
	if p.Comments != nil {
		q.Comments = p.Comments
	}
	if p.StudentQuestions != nil {
		q.StudentQuestions = *p.StudentQuestions
	}
	if p.StudentComments != nil {
		q.StudentComments = *p.StudentComments
	}
	if p.StudentParticipation != nil {
		q.StudentParticipation = *p.StudentParticipation
	}
	if p.AllowedQuestionTypes != nil {
		q.AllowedQuestionTypes = *p.AllowedQuestionTypes
	}
	if p.ShuffleQuestions != nil {
		q.ShuffleQuestions = *p.ShuffleQuestions
	}
	if p.Updated != nil {
		q.Updated = *p.Updated
	}
}

// AsPatch converts a full quiz into a patch carrying every field, used when
// broadcasting freshly created or fully re-read entities.
func (q Quiz) AsPatch() QuizPatch {
	return QuizPatch{
		UID:                  q.UID,
		Title:                &q.Title,
		Description:          &q.Description,
		State:                &q.State,
		UniqueLink:           &q.UniqueLink,
		Groups:               q.Groups,
		Teachers:             q.Teachers,
		Students:             q.Students,
		Comments:             q.Comments,
		StudentQuestions:     &q.StudentQuestions,
		StudentComments:      &q.StudentComments,
		StudentParticipation: &q.StudentParticipation,
		AllowedQuestionTypes: &q.AllowedQuestionTypes,
		ShuffleQuestions:     &q.ShuffleQuestions,
		Updated:              &q.Updated,
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
