package app

import (
	"sort"

	"recapp-sync-service/internal/domain"
)

// State is the locally synchronized projection of the active quiz. It is a
// derived cache, never authoritative: stores own the truth, pushes refresh
// it and a quiz switch invalidates it wholesale.
type State struct {
	Quiz         domain.Quiz       `json:"quiz"`
	Comments     []domain.Comment  `json:"comments"`
	Questions    []domain.Question `json:"questions"`
	TeacherNames []string          `json:"teacherNames"`
	Run          *domain.QuizRun   `json:"run,omitempty"`
}

// The fold functions below absorb one push each. They build fresh slices so
// previously handed-out snapshots stay valid, and applying the same push
// twice yields the same state.

func foldQuizPatch(st *State, patch domain.QuizPatch) {
	patch.ApplyTo(&st.Quiz)
}

func foldCommentPatch(st *State, patch domain.CommentPatch) {
	merged := domain.Comment{UID: patch.UID}
	kept := make([]domain.Comment, 0, len(st.Comments)+1)
	for _, c := range st.Comments {
		if c.UID == patch.UID {
			merged = c
			continue
		}
		kept = append(kept, c)
	}
	patch.ApplyTo(&merged)
	kept = append(kept, merged)
	sort.Slice(kept, func(i, j int) bool { return kept[i].UID < kept[j].UID })
	st.Comments = kept
}

func foldCommentDeleted(st *State, id string) {
	kept := make([]domain.Comment, 0, len(st.Comments))
	for _, c := range st.Comments {
		if c.UID != id {
			kept = append(kept, c)
		}
	}
	st.Comments = kept
}

func foldQuestionPatch(st *State, patch domain.QuestionPatch) {
	merged := domain.Question{UID: patch.UID}
	kept := make([]domain.Question, 0, len(st.Questions)+1)
	for _, q := range st.Questions {
		if q.UID == patch.UID {
			merged = q
			continue
		}
		kept = append(kept, q)
	}
	patch.ApplyTo(&merged)
	kept = append(kept, merged)
	sort.Slice(kept, func(i, j int) bool { return kept[i].UID < kept[j].UID })
	st.Questions = kept
}

func foldQuestionDeleted(st *State, id string) {
	kept := make([]domain.Question, 0, len(st.Questions))
	for _, q := range st.Questions {
		if q.UID != id {
			kept = append(kept, q)
		}
	}
	st.Questions = kept
}

// foldRunPatch merges a run push into state. Returns false when the update
// is addressed to a different student; the state is then left untouched.
func foldRunPatch(st *State, localUserID string, patch domain.QuizRunPatch) bool {
	if patch.StudentID == "" || patch.StudentID != localUserID {
		return false
	}
	run := domain.QuizRun{}
	if st.Run != nil {
		run = *st.Run
	}
	patch.ApplyTo(&run)
	st.Run = &run
	return true
}

func foldRunDeleted(st *State) {
	st.Run = nil
}
