package app

import "recapp-sync-service/internal/domain"

// Push is a remote update notification delivered by a store subscription.
type Push interface {
	isPush()
}

// QuizUpdated carries a partial quiz update.
type QuizUpdated struct {
	Quiz domain.QuizPatch
}

// CommentUpdated carries a full or partial comment.
type CommentUpdated struct {
	Comment domain.CommentPatch
}

// CommentDeleted marks a comment as removed.
type CommentDeleted struct {
	ID string
}

// QuestionUpdated carries a full or partial question.
type QuestionUpdated struct {
	Question domain.QuestionPatch
}

// QuestionDeleted marks a question as removed.
type QuestionDeleted struct {
	ID string
}

// RunUpdated carries a partial run update. The embedded studentId routes the
// update; receivers discard runs of other students sharing the channel.
type RunUpdated struct {
	Run domain.QuizRunPatch
}

// RunDeleted clears the local run, e.g. when a quiz returns to editing.
type RunDeleted struct{}

func (QuizUpdated) isPush()     {}
func (CommentUpdated) isPush()  {}
func (CommentDeleted) isPush()  {}
func (QuestionUpdated) isPush() {}
func (QuestionDeleted) isPush() {}
func (RunUpdated) isPush()      {}
func (RunDeleted) isPush()      {}

// message is the closed set of inbox messages the actor dispatches on.
type message interface {
	isMessage()
}

type cmdCreateQuiz struct{ creatorID string }
type cmdSetUser struct{ user domain.User }
type cmdSetQuiz struct{ id string }
type cmdActivate struct{ userID, quizID string }
type cmdUpdate struct{ patch domain.QuizPatch }
type cmdChangeState struct{ state domain.QuizState }
type cmdStartQuiz struct{}
type cmdLogAnswer struct {
	questionID string
	answer     domain.GivenAnswer
}
type cmdAddComment struct{ comment domain.Comment }
type cmdDeleteComment struct{ id string }
type cmdFinishComment struct{ id string }
type cmdUpvoteComment struct{ id string }
type cmdAddQuestion struct {
	question domain.Question
	group    string
}
type cmdDeleteQuestion struct{ id string }
type cmdUpdateQuestion struct {
	patch domain.QuestionPatch
	group string
}
type cmdSnapshot struct{}
type pushMsg struct{ push Push }

func (cmdCreateQuiz) isMessage()     {}
func (cmdSetUser) isMessage()        {}
func (cmdSetQuiz) isMessage()        {}
func (cmdActivate) isMessage()       {}
func (cmdUpdate) isMessage()         {}
func (cmdChangeState) isMessage()    {}
func (cmdStartQuiz) isMessage()      {}
func (cmdLogAnswer) isMessage()      {}
func (cmdAddComment) isMessage()     {}
func (cmdDeleteComment) isMessage()  {}
func (cmdFinishComment) isMessage()  {}
func (cmdUpvoteComment) isMessage()  {}
func (cmdAddQuestion) isMessage()    {}
func (cmdDeleteQuestion) isMessage() {}
func (cmdUpdateQuestion) isMessage() {}
func (cmdSnapshot) isMessage()       {}
func (pushMsg) isMessage()           {}
