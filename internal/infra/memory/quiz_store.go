package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore, useful for
// tests and for running the service without Redis.
type QuizStore struct {
	hub   *hub
	clock func() time.Time

	mu      sync.RWMutex
	seq     int
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return NewQuizStoreWithClock(time.Now)
}

// NewQuizStoreWithClock allows deterministic timestamps in tests.
func NewQuizStoreWithClock(now func() time.Time) *QuizStore {
	return &QuizStore{
		hub:     newHub(),
		clock:   now,
		quizzes: make(map[string]domain.Quiz),
	}
}

func (s *QuizStore) Get(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) Create(_ context.Context, quiz domain.Quiz) (string, error) {
	s.mu.Lock()
	s.seq++
	uid := fmt.Sprintf("quiz-%d", s.seq)
	quiz.UID = uid
	quiz.UniqueLink = "/quiz/" + uid
	now := s.clock()
	if quiz.Created.IsZero() {
		quiz.Created = now
	}
	quiz.Updated = now
	s.quizzes[uid] = quiz
	s.mu.Unlock()

	s.hub.publish(uid, app.QuizUpdated{Quiz: quiz.AsPatch()})
	return uid, nil
}

func (s *QuizStore) Update(_ context.Context, patch domain.QuizPatch) error {
	s.mu.Lock()
	quiz, ok := s.quizzes[patch.UID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrQuizNotFound
	}
	now := s.clock()
	patch.Updated = &now
	patch.ApplyTo(&quiz)
	s.quizzes[patch.UID] = quiz
	s.mu.Unlock()

	s.hub.publish(patch.UID, app.QuizUpdated{Quiz: patch})
	return nil
}

func (s *QuizStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.hub.subscribe(quizID, sink)
}

// Put stores a quiz under its own uid without touching timestamps. Used to
// seed demo and test data.
func (s *QuizStore) Put(quiz domain.Quiz) {
	s.mu.Lock()
	s.quizzes[quiz.UID] = quiz
	s.mu.Unlock()
}
