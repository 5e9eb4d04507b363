package app

import (
	"context"

	"recapp-sync-service/internal/domain"
)

// Sink receives push notifications for a subscribed quiz or collection.
type Sink func(Push)

// QuizStore owns quiz entities (in-memory, Redis-backed, etc).
type QuizStore interface {
	Get(ctx context.Context, id string) (domain.Quiz, error)
	Create(ctx context.Context, quiz domain.Quiz) (string, error)
	Update(ctx context.Context, patch domain.QuizPatch) error
	// Subscribe registers a sink for updates to one quiz. The returned
	// cancel must be called to stop delivery.
	Subscribe(quizID string, sink Sink) (cancel func())
}

// CommentStore owns the per-quiz comment collection.
type CommentStore interface {
	Create(ctx context.Context, quizID string, comment domain.Comment) (string, error)
	Update(ctx context.Context, quizID string, patch domain.CommentPatch) error
	Delete(ctx context.Context, quizID, id string) error
	Upvote(ctx context.Context, quizID, commentID, userID string) error
	GetAll(ctx context.Context, quizID string) ([]domain.Comment, error)
	Subscribe(quizID string, sink Sink) (cancel func())
}

// QuestionStore owns the per-quiz question collection.
type QuestionStore interface {
	Create(ctx context.Context, quizID string, question domain.Question) (string, error)
	Update(ctx context.Context, quizID string, patch domain.QuestionPatch) error
	Delete(ctx context.Context, quizID, id string) error
	GetAll(ctx context.Context, quizID string) ([]domain.Question, error)
	Subscribe(quizID string, sink Sink) (cancel func())
}

// RunStore owns the per-quiz run collection, keyed by student.
type RunStore interface {
	// GetForUser returns the student's existing run or creates one with the
	// given question order.
	GetForUser(ctx context.Context, quizID, studentID string, questions []string) (domain.QuizRun, error)
	Update(ctx context.Context, quizID string, patch domain.QuizRunPatch) error
	// Clear deletes every student's run for the quiz.
	Clear(ctx context.Context, quizID string) error
	Subscribe(quizID string, sink Sink) (cancel func())
}

// NameStore resolves user ids to display names.
type NameStore interface {
	GetNames(ctx context.Context, ids []string) ([]domain.UserName, error)
}

// Stores bundles the collaborators an actor talks to.
type Stores struct {
	Quizzes   QuizStore
	Comments  CommentStore
	Questions QuestionStore
	Runs      RunStore
	Names     NameStore
}
