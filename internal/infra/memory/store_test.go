package memory

import (
	"context"
	"testing"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

func collect(pushes *[]app.Push) app.Sink {
	return func(p app.Push) { *pushes = append(*pushes, p) }
}

func TestQuizStoreCreateAndUpdatePublish(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()

	uid, err := store.Create(ctx, domain.Quiz{Title: "Geo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var pushes []app.Push
	cancel := store.Subscribe(uid, collect(&pushes))
	defer cancel()

	title := "Geography"
	if err := store.Update(ctx, domain.QuizPatch{UID: uid, Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}

	quiz, err := store.Get(ctx, uid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if quiz.Title != "Geography" {
		t.Fatalf("update not applied: %+v", quiz)
	}
	if quiz.UniqueLink != "/quiz/"+uid {
		t.Fatalf("share link not derived: %q", quiz.UniqueLink)
	}

	if len(pushes) != 1 {
		t.Fatalf("expected 1 push, got %d", len(pushes))
	}
	update, ok := pushes[0].(app.QuizUpdated)
	if !ok {
		t.Fatalf("expected QuizUpdated, got %T", pushes[0])
	}
	if update.Quiz.Title == nil || *update.Quiz.Title != "Geography" {
		t.Fatalf("push carries wrong patch: %+v", update.Quiz)
	}
	if update.Quiz.Updated == nil {
		t.Fatalf("update timestamp not stamped on patch")
	}
}

func TestQuizStoreUnknownQuiz(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()

	if _, err := store.Get(ctx, "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if err := store.Update(ctx, domain.QuizPatch{UID: "missing"}); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestSubscriptionCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()

	var pushes []app.Push
	cancel := store.Subscribe("quiz-1", collect(&pushes))

	if _, err := store.Create(ctx, "quiz-1", domain.Comment{Text: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	cancel()
	if _, err := store.Create(ctx, "quiz-1", domain.Comment{Text: "b"}); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}

	if len(pushes) != 1 {
		t.Fatalf("expected delivery to stop after cancel, got %d pushes", len(pushes))
	}
}

func TestCommentStoreUpvoteOnce(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()

	uid, err := store.Create(ctx, "quiz-1", domain.Comment{Text: "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var pushes []app.Push
	cancel := store.Subscribe("quiz-1", collect(&pushes))
	defer cancel()

	if err := store.Upvote(ctx, "quiz-1", uid, "u1"); err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if err := store.Upvote(ctx, "quiz-1", uid, "u1"); err != nil {
		t.Fatalf("repeat upvote: %v", err)
	}

	all, err := store.GetAll(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if got := all[0].Upvotes(); got != 1 {
		t.Fatalf("expected 1 upvote, got %d", got)
	}
	// The no-op repeat must not fan out.
	if len(pushes) != 1 {
		t.Fatalf("expected 1 push, got %d", len(pushes))
	}
}

func TestCommentStoreDeleteUnknown(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()

	if err := store.Delete(ctx, "quiz-1", "missing"); err != domain.ErrCommentNotFound {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestCommentStoreGetAllSorted(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()

	for _, text := range []string{"a", "b", "c"} {
		if _, err := store.Create(ctx, "quiz-1", domain.Comment{Text: text}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	all, err := store.GetAll(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].UID >= all[i].UID {
			t.Fatalf("comments not sorted by uid: %v", all)
		}
	}
}

func TestQuestionStoreScopedByQuiz(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore()

	if _, err := store.Create(ctx, "quiz-1", domain.Question{Text: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, "quiz-2", domain.Question{Text: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := store.GetAll(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 || all[0].Text != "a" {
		t.Fatalf("questions leaked across quizzes: %v", all)
	}
}

func TestRunStoreResumeAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore()

	first, err := store.GetForUser(ctx, "quiz-1", "s1", []string{"q1", "q2"})
	if err != nil {
		t.Fatalf("get for user: %v", err)
	}
	if first.Counter != 0 || len(first.Questions) != 2 {
		t.Fatalf("fresh run malformed: %+v", first)
	}
	if first.Answers == nil || first.Correct == nil {
		t.Fatalf("fresh run must carry empty, non-nil progress slices")
	}

	// Same student resumes, even with a different question order.
	again, err := store.GetForUser(ctx, "quiz-1", "s1", []string{"q2", "q1"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if again.UID != first.UID || again.Questions[0] != "q1" {
		t.Fatalf("expected resumed run %s, got %+v", first.UID, again)
	}

	// Another student gets their own run.
	other, err := store.GetForUser(ctx, "quiz-1", "s2", []string{"q1", "q2"})
	if err != nil {
		t.Fatalf("other student: %v", err)
	}
	if other.UID == first.UID {
		t.Fatalf("students share a run")
	}

	var pushes []app.Push
	cancel := store.Subscribe("quiz-1", collect(&pushes))
	defer cancel()

	if err := store.Clear(ctx, "quiz-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(pushes) != 1 {
		t.Fatalf("expected RunDeleted push, got %v", pushes)
	}
	if _, ok := pushes[0].(app.RunDeleted); !ok {
		t.Fatalf("expected RunDeleted, got %T", pushes[0])
	}

	fresh, err := store.GetForUser(ctx, "quiz-1", "s1", []string{"q1"})
	if err != nil {
		t.Fatalf("after clear: %v", err)
	}
	if fresh.UID == first.UID {
		t.Fatalf("cleared run came back: %+v", fresh)
	}
}

func TestRunStoreUpdateRoutesStudentID(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore()

	run, err := store.GetForUser(ctx, "quiz-1", "s1", []string{"q1"})
	if err != nil {
		t.Fatalf("get for user: %v", err)
	}

	var pushes []app.Push
	cancel := store.Subscribe("quiz-1", collect(&pushes))
	defer cancel()

	counter := 1
	if err := store.Update(ctx, "quiz-1", domain.QuizRunPatch{UID: run.UID, Counter: &counter}); err != nil {
		t.Fatalf("update: %v", err)
	}

	update, ok := pushes[0].(app.RunUpdated)
	if !ok {
		t.Fatalf("expected RunUpdated, got %T", pushes[0])
	}
	if update.Run.StudentID != "s1" {
		t.Fatalf("push must carry the owning student, got %q", update.Run.StudentID)
	}

	if err := store.Update(ctx, "quiz-1", domain.QuizRunPatch{UID: "missing"}); err != domain.ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestNameStoreSkipsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store := NewNameStore()
	store.Put("u1", domain.UserName{Username: "alice"})

	names, err := store.GetNames(ctx, []string{"u1", "ghost"})
	if err != nil {
		t.Fatalf("get names: %v", err)
	}
	if len(names) != 1 || names[0].Username != "alice" {
		t.Fatalf("expected only known names, got %v", names)
	}
}
