package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

// CommentStore keeps each quiz's comments in a hash (quiz:{id}:comments,
// field per comment uid) and fans writes out over pub/sub.
type CommentStore struct {
	client *redis.Client
	clock  func() time.Time
	fanout *fanout
}

func NewCommentStore(client *redis.Client) *CommentStore {
	return &CommentStore{
		client: client,
		clock:  time.Now,
		fanout: newFanout(client, decodeCommentPush),
	}
}

type commentEnvelope struct {
	Op      string               `json:"op"`
	Comment *domain.CommentPatch `json:"comment,omitempty"`
	ID      string               `json:"id,omitempty"`
}

func decodeCommentPush(payload []byte) (app.Push, error) {
	var env commentEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	switch env.Op {
	case "update":
		if env.Comment == nil {
			return nil, fmt.Errorf("comment update without payload")
		}
		return app.CommentUpdated{Comment: *env.Comment}, nil
	case "delete":
		return app.CommentDeleted{ID: env.ID}, nil
	default:
		return nil, fmt.Errorf("unknown comment op %q", env.Op)
	}
}

func (s *CommentStore) Create(ctx context.Context, quizID string, comment domain.Comment) (string, error) {
	uid := newUID("comment")
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

	if err := s.persist(ctx, quizID, comment); err != nil {
		return "", err
	}
	s.publish(ctx, quizID, commentEnvelope{Op: "update", Comment: patchPtr(comment.AsPatch())})
	return uid, nil
}

func (s *CommentStore) Update(ctx context.Context, quizID string, patch domain.CommentPatch) error {
	comment, err := s.get(ctx, quizID, patch.UID)
	if err != nil {
		return err
	}
	now := s.clock()
	patch.Updated = &now
	patch.ApplyTo(&comment)

	if err := s.persist(ctx, quizID, comment); err != nil {
		return err
	}
	s.publish(ctx, quizID, commentEnvelope{Op: "update", Comment: &patch})
	return nil
}

func (s *CommentStore) Delete(ctx context.Context, quizID, id string) error {
	removed, err := s.client.HDel(ctx, commentsKey(quizID), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrCommentNotFound
	}
	s.publish(ctx, quizID, commentEnvelope{Op: "delete", ID: id})
	return nil
}

func (s *CommentStore) Upvote(ctx context.Context, quizID, commentID, userID string) error {
	comment, err := s.get(ctx, quizID, commentID)
	if err != nil {
		return err
	}
	if comment.HasUpvoter(userID) {
		return nil
	}
	comment.Upvoters = append(comment.Upvoters, userID)
	comment.Updated = s.clock()

	if err := s.persist(ctx, quizID, comment); err != nil {
		return err
	}
	updated := comment.Updated
	s.publish(ctx, quizID, commentEnvelope{Op: "update", Comment: &domain.CommentPatch{
		UID:      commentID,
		Upvoters: comment.Upvoters,
		Updated:  &updated,
	}})
	return nil
}

func (s *CommentStore) GetAll(ctx context.Context, quizID string) ([]domain.Comment, error) {
	fields, err := s.client.HGetAll(ctx, commentsKey(quizID)).Result()
	if err != nil {
		return nil, err
	}
	all := make([]domain.Comment, 0, len(fields))
	for id, raw := range fields {
		var comment domain.Comment
		if err := json.Unmarshal([]byte(raw), &comment); err != nil {
			return nil, fmt.Errorf("unmarshal comment %s: %w", id, err)
		}
		all = append(all, comment)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UID < all[j].UID })
	return all, nil
}

func (s *CommentStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.fanout.subscribe(commentsChannel(quizID), sink)
}

func (s *CommentStore) get(ctx context.Context, quizID, id string) (domain.Comment, error) {
	raw, err := s.client.HGet(ctx, commentsKey(quizID), id).Bytes()
	if err == redis.Nil {
		return domain.Comment{}, domain.ErrCommentNotFound
	}
	if err != nil {
		return domain.Comment{}, err
	}
	var comment domain.Comment
	if err := json.Unmarshal(raw, &comment); err != nil {
		return domain.Comment{}, fmt.Errorf("unmarshal comment %s: %w", id, err)
	}
	return comment, nil
}

func (s *CommentStore) persist(ctx context.Context, quizID string, comment domain.Comment) error {
	raw, err := json.Marshal(comment)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, commentsKey(quizID), comment.UID, raw).Err()
}

func (s *CommentStore) publish(ctx context.Context, quizID string, env commentEnvelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	s.fanout.publish(ctx, commentsChannel(quizID), raw)
}

func patchPtr(p domain.CommentPatch) *domain.CommentPatch {
	return &p
}

func commentsKey(quizID string) string {
	return "quiz:" + quizID + ":comments"
}

func commentsChannel(quizID string) string {
	return "quiz:" + quizID + ":comments:events"
}
