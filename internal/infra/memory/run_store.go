package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

// RunStore is an in-memory implementation of app.RunStore. Runs are keyed by
// quiz and student, so a student resumes the same run on reconnect.
type RunStore struct {
	hub   *hub
	clock func() time.Time

	mu   sync.RWMutex
	seq  int
	runs map[string]map[string]domain.QuizRun
}

func NewRunStore() *RunStore {
	return NewRunStoreWithClock(time.Now)
}

func NewRunStoreWithClock(now func() time.Time) *RunStore {
	return &RunStore{
		hub:   newHub(),
		clock: now,
		runs:  make(map[string]map[string]domain.QuizRun),
	}
}

func (s *RunStore) GetForUser(_ context.Context, quizID, studentID string, questions []string) (domain.QuizRun, error) {
	s.mu.Lock()
	if run, ok := s.runs[quizID][studentID]; ok {
		s.mu.Unlock()
		return run, nil
	}
	s.seq++
	now := s.clock()
	run := domain.QuizRun{
		UID:       fmt.Sprintf("run-%d", s.seq),
		StudentID: studentID,
		Questions: append([]string(nil), questions...),
		Answers:   []domain.GivenAnswer{},
		Correct:   []bool{},
		Counter:   0,
		Created:   now,
		Updated:   now,
	}
	if s.runs[quizID] == nil {
		s.runs[quizID] = make(map[string]domain.QuizRun)
	}
	s.runs[quizID][studentID] = run
	s.mu.Unlock()

	s.hub.publish(quizID, app.RunUpdated{Run: run.AsPatch()})
	return run, nil
}

func (s *RunStore) Update(_ context.Context, quizID string, patch domain.QuizRunPatch) error {
	s.mu.Lock()
	var found *domain.QuizRun
	var studentID string
	for sid, run := range s.runs[quizID] {
		if run.UID == patch.UID {
			r := run
			found = &r
			studentID = sid
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return domain.ErrRunNotFound
	}
	now := s.clock()
	patch.Updated = &now
	patch.StudentID = studentID
	patch.ApplyTo(found)
	s.runs[quizID][studentID] = *found
	s.mu.Unlock()

	s.hub.publish(quizID, app.RunUpdated{Run: patch})
	return nil
}

func (s *RunStore) Clear(_ context.Context, quizID string) error {
	s.mu.Lock()
	delete(s.runs, quizID)
	s.mu.Unlock()

	s.hub.publish(quizID, app.RunDeleted{})
	return nil
}

func (s *RunStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.hub.subscribe(quizID, sink)
}
