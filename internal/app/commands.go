package app

import (
	"context"
	"fmt"
	"log"

	"recapp-sync-service/internal/domain"
)

// handlePush folds one remote update into local state. Stale or misdirected
// pushes are discarded silently; they are expected on shared channels.
func (a *Actor) handlePush(ctx context.Context, p Push) {
	switch m := p.(type) {
	case QuizUpdated:
		foldQuizPatch(&a.state, m.Quiz)
		if m.Quiz.Teachers != nil {
			a.refreshTeacherNames(ctx)
		}
		if m.Quiz.State != nil && *m.Quiz.State == domain.QuizStarted && a.state.Run == nil {
			a.handleStartQuiz(ctx)
		}
	case CommentUpdated:
		foldCommentPatch(&a.state, m.Comment)
	case CommentDeleted:
		foldCommentDeleted(&a.state, m.ID)
	case QuestionUpdated:
		foldQuestionPatch(&a.state, m.Question)
	case QuestionDeleted:
		foldQuestionDeleted(&a.state, m.ID)
	case RunUpdated:
		foldRunPatch(&a.state, a.userID(), m.Run)
	case RunDeleted:
		foldRunDeleted(&a.state)
	}
}

func (a *Actor) handleCreateQuiz(ctx context.Context, creatorID string) (string, error) {
	now := a.clock()
	quiz := domain.Quiz{
		Title:            "New quiz",
		Description:      "Quiz description",
		State:            domain.QuizEditing,
		Groups:           []domain.Group{{Name: "General", Questions: []string{}}},
		Teachers:         []string{creatorID},
		Students:         []string{},
		Comments:         []string{},
		StudentQuestions: true,
		StudentComments:  true,
		StudentParticipation: domain.ParticipationSettings{
			Anonymous: true, Name: true, Nickname: true,
		},
		AllowedQuestionTypes: domain.QuestionTypeSettings{
			Single: true, Multiple: true, Text: true,
		},
		ShuffleQuestions: false,
		Created:          now,
		Updated:          now,
	}
	uid, err := a.stores.Quizzes.Create(ctx, quiz)
	if err != nil {
		return "", fmt.Errorf("create quiz: %w", err)
	}
	a.handleSetQuiz(ctx, uid)
	return uid, nil
}

func (a *Actor) handleSetUser(ctx context.Context, user domain.User) {
	a.user = &user
	if a.quizID != "" {
		// Reload the active quiz under the new identity. The switch guard is
		// opened explicitly, otherwise SetQuiz would see the same id and
		// no-op.
		id := a.quizID
		a.state.Quiz.UID = ""
		a.handleSetQuiz(ctx, id)
	}
}

// handleSetQuiz switches the actor to another quiz: drop the cached
// collections, unsubscribe from the old channels, load and subscribe to the
// new ones. Failures are logged and leave best-effort partial state that the
// next push corrects. The mailbox serializes handlers, so the whole sequence
// is atomic per quiz id.
func (a *Actor) handleSetQuiz(ctx context.Context, id string) {
	if id == a.state.Quiz.UID {
		return
	}
	a.state.Comments = nil
	a.state.Questions = nil
	a.state.Run = nil
	a.unsubscribeAll()
	a.quizID = id

	quiz, err := a.stores.Quizzes.Get(ctx, id)
	if err != nil {
		log.Printf("actor: set quiz %s: %v", id, err)
		return
	}
	a.state.Quiz = quiz
	a.refreshTeacherNames(ctx)

	if comments, err := a.stores.Comments.GetAll(ctx, id); err != nil {
		log.Printf("actor: load comments for %s: %v", id, err)
	} else {
		for _, c := range comments {
			foldCommentPatch(&a.state, c.AsPatch())
		}
	}
	if questions, err := a.stores.Questions.GetAll(ctx, id); err != nil {
		log.Printf("actor: load questions for %s: %v", id, err)
	} else {
		for _, q := range questions {
			foldQuestionPatch(&a.state, q.AsPatch())
		}
	}

	a.subscribeAll(id)
	if quiz.State == domain.QuizStarted {
		a.handleStartQuiz(ctx)
	}
}

func (a *Actor) handleActivate(ctx context.Context, userID, quizID string) error {
	quiz, err := a.stores.Quizzes.Get(ctx, quizID)
	if err != nil {
		return fmt.Errorf("activate quiz %s: %w", quizID, err)
	}
	if quiz.HasTeacher(userID) || quiz.HasStudent(userID) {
		return nil
	}
	students := append(append([]string(nil), quiz.Students...), userID)
	a.handleUpdate(ctx, domain.QuizPatch{UID: quizID, Students: students})
	return nil
}

// handleUpdate forwards a partial quiz update, defaulting the uid to the
// active quiz. Send-style: delivery failures are only logged.
func (a *Actor) handleUpdate(ctx context.Context, patch domain.QuizPatch) {
	if patch.UID == "" {
		patch.UID = a.state.Quiz.UID
	}
	if err := a.stores.Quizzes.Update(ctx, patch); err != nil {
		log.Printf("actor: update quiz %s: %v", patch.UID, err)
	}
}

func (a *Actor) handleChangeState(ctx context.Context, next domain.QuizState) {
	if !domain.CanTransition(a.state.Quiz.State, next) {
		return
	}
	state := next
	a.handleUpdate(ctx, domain.QuizPatch{UID: a.state.Quiz.UID, State: &state})
	if next == domain.QuizEditing {
		// Back to editing invalidates every student's progress.
		if err := a.stores.Runs.Clear(ctx, a.quizID); err != nil {
			log.Printf("actor: clear runs for %s: %v", a.quizID, err)
		}
	}
}

func (a *Actor) handleStartQuiz(ctx context.Context) {
	order := a.state.Quiz.FlattenQuestions()
	if a.state.Quiz.ShuffleQuestions {
		order = domain.ShuffleOrder(a.rnd, order)
	}
	run, err := a.stores.Runs.GetForUser(ctx, a.quizID, a.userID(), order)
	if err != nil {
		log.Printf("actor: start quiz %s: %v", a.quizID, err)
		return
	}
	a.state.Run = &run
}

// handleLogAnswer appends the answer to the active run, grades it and sends
// the advanced run to the run store. The local run itself is refreshed by
// the resulting push.
func (a *Actor) handleLogAnswer(ctx context.Context, questionID string, answer domain.GivenAnswer) (bool, error) {
	if a.state.Run == nil {
		return false, domain.ErrRunNotFound
	}
	var question *domain.Question
	for i := range a.state.Questions {
		if a.state.Questions[i].UID == questionID {
			question = &a.state.Questions[i]
			break
		}
	}
	if question == nil {
		return false, domain.ErrQuestionNotFound
	}

	correct := question.Grade(answer)
	run := a.state.Run
	answers := append(append([]domain.GivenAnswer(nil), run.Answers...), answer)
	graded := append(append([]bool(nil), run.Correct...), correct)
	counter := run.Counter + 1

	if err := a.stores.Runs.Update(ctx, a.quizID, domain.QuizRunPatch{
		UID:       run.UID,
		StudentID: run.StudentID,
		Answers:   answers,
		Correct:   graded,
		Counter:   &counter,
	}); err != nil {
		log.Printf("actor: log answer for %s: %v", questionID, err)
	}
	return correct, nil
}

func (a *Actor) handleAddComment(ctx context.Context, comment domain.Comment) error {
	if a.user == nil {
		return nil
	}
	now := a.clock()
	comment.AuthorID = a.user.UID
	comment.AuthorName = a.user.Username
	comment.RelatedQuiz = a.quizID
	comment.Created = now
	comment.Updated = now
	if comment.Upvoters == nil {
		comment.Upvoters = []string{}
	}

	uid, err := a.stores.Comments.Create(ctx, a.quizID, comment)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	ids := append(append([]string(nil), a.state.Quiz.Comments...), uid)
	a.handleUpdate(ctx, domain.QuizPatch{Comments: ids})
	return nil
}

func (a *Actor) handleDeleteComment(ctx context.Context, id string) error {
	return a.stores.Comments.Delete(ctx, a.quizID, id)
}

func (a *Actor) handleFinishComment(ctx context.Context, id string) {
	answered := true
	if err := a.stores.Comments.Update(ctx, a.quizID, domain.CommentPatch{UID: id, Answered: &answered}); err != nil {
		log.Printf("actor: finish comment %s: %v", id, err)
	}
}

func (a *Actor) handleUpvoteComment(ctx context.Context, id string) {
	if a.user == nil {
		return
	}
	if err := a.stores.Comments.Upvote(ctx, a.quizID, id, a.user.UID); err != nil {
		log.Printf("actor: upvote comment %s: %v", id, err)
	}
}

func (a *Actor) handleAddQuestion(ctx context.Context, question domain.Question, group string) (string, error) {
	if a.user == nil {
		return "", domain.ErrNoActingUser
	}
	now := a.clock()
	question.EditMode = false
	if a.state.Quiz.HasTeacher(a.user.UID) {
		// Teacher questions skip moderation.
		question.Approved = true
	}
	question.AuthorID = a.user.UID
	question.AuthorName = a.user.Username
	question.Created = now
	question.Updated = now

	uid, err := a.stores.Questions.Create(ctx, a.quizID, question)
	if err != nil {
		return "", fmt.Errorf("create question: %w", err)
	}
	groups := domain.AppendToGroup(domain.CloneGroups(a.state.Quiz.Groups), group, uid)
	a.handleUpdate(ctx, domain.QuizPatch{Groups: groups})
	return uid, nil
}

func (a *Actor) handleDeleteQuestion(ctx context.Context, id string) error {
	return a.stores.Questions.Delete(ctx, a.quizID, id)
}

func (a *Actor) handleUpdateQuestion(ctx context.Context, patch domain.QuestionPatch, group string) {
	if patch.EditMode == nil {
		editMode := false
		patch.EditMode = &editMode
	}
	if err := a.stores.Questions.Update(ctx, a.quizID, patch); err != nil {
		log.Printf("actor: update question %s: %v", patch.UID, err)
	}
	if group == "" {
		return
	}
	groups := domain.MoveToGroup(domain.CloneGroups(a.state.Quiz.Groups), group, patch.UID)
	a.handleUpdate(ctx, domain.QuizPatch{Groups: groups})
}

func (a *Actor) refreshTeacherNames(ctx context.Context) {
	names, err := a.stores.Names.GetNames(ctx, a.state.Quiz.Teachers)
	if err != nil {
		log.Printf("actor: resolve teacher names: %v", err)
		return
	}
	display := make([]string, 0, len(names))
	for _, n := range names {
		display = append(display, n.Display())
	}
	a.state.TeacherNames = display
}

func (a *Actor) userID() string {
	if a.user == nil {
		return ""
	}
	return a.user.UID
}
