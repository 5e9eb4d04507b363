package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionStore.
type QuestionStore struct {
	hub   *hub
	clock func() time.Time

	mu        sync.RWMutex
	seq       int
	questions map[string]map[string]domain.Question
}

func NewQuestionStore() *QuestionStore {
	return NewQuestionStoreWithClock(time.Now)
}

func NewQuestionStoreWithClock(now func() time.Time) *QuestionStore {
	return &QuestionStore{
		hub:       newHub(),
		clock:     now,
		questions: make(map[string]map[string]domain.Question),
	}
}

func (s *QuestionStore) Create(_ context.Context, quizID string, question domain.Question) (string, error) {
	s.mu.Lock()
	s.seq++
	uid := fmt.Sprintf("question-%d", s.seq)
	question.UID = uid
	now := s.clock()
	if question.Created.IsZero() {
		question.Created = now
	}
	question.Updated = now
	if s.questions[quizID] == nil {
		s.questions[quizID] = make(map[string]domain.Question)
	}
	s.questions[quizID][uid] = question
	s.mu.Unlock()

	s.hub.publish(quizID, app.QuestionUpdated{Question: question.AsPatch()})
	return uid, nil
}

func (s *QuestionStore) Update(_ context.Context, quizID string, patch domain.QuestionPatch) error {
	s.mu.Lock()
	question, ok := s.questions[quizID][patch.UID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrQuestionNotFound
	}
	now := s.clock()
	patch.Updated = &now
	patch.ApplyTo(&question)
	s.questions[quizID][patch.UID] = question
	s.mu.Unlock()

	s.hub.publish(quizID, app.QuestionUpdated{Question: patch})
	return nil
}

func (s *QuestionStore) Delete(_ context.Context, quizID, id string) error {
	s.mu.Lock()
	if _, ok := s.questions[quizID][id]; !ok {
		s.mu.Unlock()
		return domain.ErrQuestionNotFound
	}
	delete(s.questions[quizID], id)
	s.mu.Unlock()

	s.hub.publish(quizID, app.QuestionDeleted{ID: id})
	return nil
}

func (s *QuestionStore) GetAll(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]domain.Question, 0, len(s.questions[quizID]))
	for _, q := range s.questions[quizID] {
		all = append(all, q)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UID < all[j].UID })
	return all, nil
}

func (s *QuestionStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.hub.subscribe(quizID, sink)
}
