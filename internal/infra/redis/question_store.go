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

// QuestionStore keeps each quiz's questions in a hash (quiz:{id}:questions)
// and fans writes out over pub/sub.
type QuestionStore struct {
	client *redis.Client
	clock  func() time.Time
	fanout *fanout
}

func NewQuestionStore(client *redis.Client) *QuestionStore {
	return &QuestionStore{
		client: client,
		clock:  time.Now,
		fanout: newFanout(client, decodeQuestionPush),
	}
}

type questionEnvelope struct {
	Op       string                `json:"op"`
	Question *domain.QuestionPatch `json:"question,omitempty"`
	ID       string                `json:"id,omitempty"`
}

func decodeQuestionPush(payload []byte) (app.Push, error) {
	var env questionEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	switch env.Op {
	case "update":
		if env.Question == nil {
			return nil, fmt.Errorf("question update without payload")
		}
		return app.QuestionUpdated{Question: *env.Question}, nil
	case "delete":
		return app.QuestionDeleted{ID: env.ID}, nil
	default:
		return nil, fmt.Errorf("unknown question op %q", env.Op)
	}
}

func (s *QuestionStore) Create(ctx context.Context, quizID string, question domain.Question) (string, error) {
	uid := newUID("question")
	question.UID = uid
	now := s.clock()
	if question.Created.IsZero() {
		question.Created = now
	}
	question.Updated = now

	if err := s.persist(ctx, quizID, question); err != nil {
		return "", err
	}
	patch := question.AsPatch()
	s.publish(ctx, quizID, questionEnvelope{Op: "update", Question: &patch})
	return uid, nil
}

func (s *QuestionStore) Update(ctx context.Context, quizID string, patch domain.QuestionPatch) error {
	question, err := s.get(ctx, quizID, patch.UID)
	if err != nil {
		return err
	}
	now := s.clock()
	patch.Updated = &now
	patch.ApplyTo(&question)

	if err := s.persist(ctx, quizID, question); err != nil {
		return err
	}
	s.publish(ctx, quizID, questionEnvelope{Op: "update", Question: &patch})
	return nil
}

func (s *QuestionStore) Delete(ctx context.Context, quizID, id string) error {
	removed, err := s.client.HDel(ctx, questionsKey(quizID), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrQuestionNotFound
	}
	s.publish(ctx, quizID, questionEnvelope{Op: "delete", ID: id})
	return nil
}

func (s *QuestionStore) GetAll(ctx context.Context, quizID string) ([]domain.Question, error) {
	fields, err := s.client.HGetAll(ctx, questionsKey(quizID)).Result()
	if err != nil {
		return nil, err
	}
	all := make([]domain.Question, 0, len(fields))
	for id, raw := range fields {
		var question domain.Question
		if err := json.Unmarshal([]byte(raw), &question); err != nil {
			return nil, fmt.Errorf("unmarshal question %s: %w", id, err)
		}
		all = append(all, question)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UID < all[j].UID })
	return all, nil
}

func (s *QuestionStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.fanout.subscribe(questionsChannel(quizID), sink)
}

func (s *QuestionStore) get(ctx context.Context, quizID, id string) (domain.Question, error) {
	raw, err := s.client.HGet(ctx, questionsKey(quizID), id).Bytes()
	if err == redis.Nil {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, err
	}
	var question domain.Question
	if err := json.Unmarshal(raw, &question); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal question %s: %w", id, err)
	}
	return question, nil
}

func (s *QuestionStore) persist(ctx context.Context, quizID string, question domain.Question) error {
	raw, err := json.Marshal(question)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, questionsKey(quizID), question.UID, raw).Err()
}

func (s *QuestionStore) publish(ctx context.Context, quizID string, env questionEnvelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	s.fanout.publish(ctx, questionsChannel(quizID), raw)
}

func questionsKey(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func questionsChannel(quizID string) string {
	return "quiz:" + quizID + ":questions:events"
}
