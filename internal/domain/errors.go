package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a referenced question id is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCommentNotFound indicates a referenced comment id is unknown.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrRunNotFound indicates no run exists for the student and quiz.
	ErrRunNotFound = errors.New("quiz run not found")
	// ErrNoActingUser is returned when a command needs an identity but none has been set.
	ErrNoActingUser = errors.New("no acting user set")
)
