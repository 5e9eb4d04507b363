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

// CommentStore is an in-memory implementation of app.CommentStore.
type CommentStore struct {
	hub   *hub
	clock func() time.Time

	mu       sync.RWMutex
	seq      int
	comments map[string]map[string]domain.Comment
}

func NewCommentStore() *CommentStore {
	return NewCommentStoreWithClock(time.Now)
}

func NewCommentStoreWithClock(now func() time.Time) *CommentStore {
	return &CommentStore{
		hub:      newHub(),
		clock:    now,
		comments: make(map[string]map[string]domain.Comment),
	}
}

func (s *CommentStore) Create(_ context.Context, quizID string, comment domain.Comment) (string, error) {
	s.mu.Lock()
	s.seq++
	uid := fmt.Sprintf("comment-%d", s.seq)
	comment.UID = uid
	comment.RelatedQuiz = quizID
	now := s.clock()
	if comment.Created.IsZero() {
		comment.Created = now
	}
	comment.Updated = now
	if comment.Upvoters == nil {
		comment.Upvoters = []string{}
	}
	if s.comments[quizID] == nil {
		s.comments[quizID] = make(map[string]domain.Comment)
	}
	s.comments[quizID][uid] = comment
	s.mu.Unlock()

	s.hub.publish(quizID, app.CommentUpdated{Comment: comment.AsPatch()})
	return uid, nil
}

func (s *CommentStore) Update(_ context.Context, quizID string, patch domain.CommentPatch) error {
	s.mu.Lock()
	comment, ok := s.comments[quizID][patch.UID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrCommentNotFound
	}
	now := s.clock()
	patch.Updated = &now
	patch.ApplyTo(&comment)
	s.comments[quizID][patch.UID] = comment
	s.mu.Unlock()

	s.hub.publish(quizID, app.CommentUpdated{Comment: patch})
	return nil
}

func (s *CommentStore) Delete(_ context.Context, quizID, id string) error {
	s.mu.Lock()
	if _, ok := s.comments[quizID][id]; !ok {
		s.mu.Unlock()
		return domain.ErrCommentNotFound
	}
	delete(s.comments[quizID], id)
	s.mu.Unlock()

	s.hub.publish(quizID, app.CommentDeleted{ID: id})
	return nil
}

func (s *CommentStore) Upvote(_ context.Context, quizID, commentID, userID string) error {
	s.mu.Lock()
	comment, ok := s.comments[quizID][commentID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrCommentNotFound
	}
	if comment.HasUpvoter(userID) {
		s.mu.Unlock()
		return nil
	}
	comment.Upvoters = append(append([]string(nil), comment.Upvoters...), userID)
	comment.Updated = s.clock()
	s.comments[quizID][commentID] = comment
	s.mu.Unlock()

	updated := comment.Updated
	s.hub.publish(quizID, app.CommentUpdated{Comment: domain.CommentPatch{
		UID:      commentID,
		Upvoters: comment.Upvoters,
		Updated:  &updated,
	}})
	return nil
}

func (s *CommentStore) GetAll(_ context.Context, quizID string) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]domain.Comment, 0, len(s.comments[quizID]))
	for _, c := range s.comments[quizID] {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UID < all[j].UID })
	return all, nil
}

func (s *CommentStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.hub.subscribe(quizID, sink)
}
