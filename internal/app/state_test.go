package app

import (
	"reflect"
	"testing"

	"recapp-sync-service/internal/domain"
)

func TestFoldCommentPatchKeepsOneEntryPerID(t *testing.T) {
	st := &State{}
	textA := "first"
	textB := "second"

	foldCommentPatch(st, domain.CommentPatch{UID: "c2", Text: &textA})
	foldCommentPatch(st, domain.CommentPatch{UID: "c1", Text: &textA})
	foldCommentPatch(st, domain.CommentPatch{UID: "c2", Text: &textB})

	if len(st.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(st.Comments))
	}
	if st.Comments[0].UID != "c1" || st.Comments[1].UID != "c2" {
		t.Fatalf("comments not sorted by uid: %v", st.Comments)
	}
	if st.Comments[1].Text != "second" {
		t.Fatalf("repeated patch did not replace, got %q", st.Comments[1].Text)
	}
}

func TestFoldCommentPatchMergesPartialUpdate(t *testing.T) {
	st := &State{}
	author := "s1"
	text := "why?"
	foldCommentPatch(st, domain.CommentPatch{UID: "c1", AuthorID: &author, Text: &text})

	answered := true
	foldCommentPatch(st, domain.CommentPatch{UID: "c1", Answered: &answered})

	c := st.Comments[0]
	if c.AuthorID != "s1" || c.Text != "why?" || !c.Answered {
		t.Fatalf("partial patch lost earlier fields: %+v", c)
	}
}

func TestFoldCommentPatchIsIdempotent(t *testing.T) {
	st := &State{}
	text := "hello"
	patch := domain.CommentPatch{UID: "c1", Text: &text}
	foldCommentPatch(st, patch)
	before := append([]domain.Comment(nil), st.Comments...)
	foldCommentPatch(st, patch)
	if !reflect.DeepEqual(before, st.Comments) {
		t.Fatalf("applying the same patch twice changed state: %v vs %v", before, st.Comments)
	}
}

func TestFoldCommentDeletedUnknownIDIsNoop(t *testing.T) {
	st := &State{Comments: []domain.Comment{{UID: "c1"}}}
	foldCommentDeleted(st, "missing")
	if len(st.Comments) != 1 {
		t.Fatalf("delete of unknown id changed the collection: %v", st.Comments)
	}
	foldCommentDeleted(st, "c1")
	if len(st.Comments) != 0 {
		t.Fatalf("expected empty collection, got %v", st.Comments)
	}
}

func TestFoldQuestionPatchSortedAndDeduplicated(t *testing.T) {
	st := &State{}
	foldQuestionPatch(st, domain.QuestionPatch{UID: "q3"})
	foldQuestionPatch(st, domain.QuestionPatch{UID: "q1"})
	foldQuestionPatch(st, domain.QuestionPatch{UID: "q3"})
	foldQuestionPatch(st, domain.QuestionPatch{UID: "q2"})

	if len(st.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(st.Questions))
	}
	for i, uid := range []string{"q1", "q2", "q3"} {
		if st.Questions[i].UID != uid {
			t.Fatalf("questions not sorted: %v", st.Questions)
		}
	}

	foldQuestionDeleted(st, "q2")
	if len(st.Questions) != 2 {
		t.Fatalf("expected 2 questions after delete, got %v", st.Questions)
	}
}

func TestFoldRunPatchRoutesByStudent(t *testing.T) {
	st := &State{}
	counter := 3

	if foldRunPatch(st, "s1", domain.QuizRunPatch{UID: "run-1", StudentID: "s2", Counter: &counter}) {
		t.Fatalf("run addressed to another student was folded")
	}
	if st.Run != nil {
		t.Fatalf("misdirected run left state behind: %+v", st.Run)
	}

	if foldRunPatch(st, "s1", domain.QuizRunPatch{UID: "run-1", Counter: &counter}) {
		t.Fatalf("run without a student id was folded")
	}

	if !foldRunPatch(st, "s1", domain.QuizRunPatch{UID: "run-1", StudentID: "s1", Counter: &counter}) {
		t.Fatalf("own run update was discarded")
	}
	if st.Run == nil || st.Run.Counter != 3 {
		t.Fatalf("run not folded: %+v", st.Run)
	}

	// Later partial updates merge into the existing run.
	next := 4
	foldRunPatch(st, "s1", domain.QuizRunPatch{UID: "run-1", StudentID: "s1", Counter: &next})
	if st.Run.Counter != 4 {
		t.Fatalf("expected counter 4, got %d", st.Run.Counter)
	}

	foldRunDeleted(st)
	if st.Run != nil {
		t.Fatalf("expected run cleared")
	}
}

func TestFoldQuizPatchLeavesAbsentFields(t *testing.T) {
	st := &State{Quiz: domain.Quiz{UID: "quiz-1", Title: "Keep", State: domain.QuizEditing}}
	state := domain.QuizStarted
	foldQuizPatch(st, domain.QuizPatch{UID: "quiz-1", State: &state})

	if st.Quiz.State != domain.QuizStarted {
		t.Fatalf("state not folded: %+v", st.Quiz)
	}
	if st.Quiz.Title != "Keep" {
		t.Fatalf("absent field overwritten: %+v", st.Quiz)
	}
}

func TestFoldSnapshotIsolation(t *testing.T) {
	st := &State{}
	text := "a"
	foldCommentPatch(st, domain.CommentPatch{UID: "c1", Text: &text})
	snapshot := st.Comments

	other := "b"
	foldCommentPatch(st, domain.CommentPatch{UID: "c1", Text: &other})
	if snapshot[0].Text != "a" {
		t.Fatalf("earlier snapshot mutated by later fold: %q", snapshot[0].Text)
	}
}
