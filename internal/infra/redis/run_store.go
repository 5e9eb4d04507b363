package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

// RunStore keeps each quiz's runs in a hash keyed by student id
// (quiz:{id}:runs) so a student resumes the same run, and fans writes out
// over pub/sub. Clearing the quiz drops the whole hash.
type RunStore struct {
	client *redis.Client
	clock  func() time.Time
	fanout *fanout
}

func NewRunStore(client *redis.Client) *RunStore {
	return &RunStore{
		client: client,
		clock:  time.Now,
		fanout: newFanout(client, decodeRunPush),
	}
}

type runEnvelope struct {
	Op  string               `json:"op"`
	Run *domain.QuizRunPatch `json:"run,omitempty"`
}

func decodeRunPush(payload []byte) (app.Push, error) {
	var env runEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	switch env.Op {
	case "update":
		if env.Run == nil {
			return nil, fmt.Errorf("run update without payload")
		}
		return app.RunUpdated{Run: *env.Run}, nil
	case "delete":
		return app.RunDeleted{}, nil
	default:
		return nil, fmt.Errorf("unknown run op %q", env.Op)
	}
}

func (s *RunStore) GetForUser(ctx context.Context, quizID, studentID string, questions []string) (domain.QuizRun, error) {
	if run, err := s.get(ctx, quizID, studentID); err == nil {
		return run, nil
	} else if err != domain.ErrRunNotFound {
		return domain.QuizRun{}, err
	}

	now := s.clock()
	run := domain.QuizRun{
		UID:       newUID("run"),
		StudentID: studentID,
		Questions: append([]string(nil), questions...),
		Answers:   []domain.GivenAnswer{},
		Correct:   []bool{},
		Counter:   0,
		Created:   now,
		Updated:   now,
	}
	if err := s.persist(ctx, quizID, run); err != nil {
		return domain.QuizRun{}, err
	}
	patch := run.AsPatch()
	s.publish(ctx, quizID, runEnvelope{Op: "update", Run: &patch})
	return run, nil
}

func (s *RunStore) Update(ctx context.Context, quizID string, patch domain.QuizRunPatch) error {
	run, err := s.find(ctx, quizID, patch)
	if err != nil {
		return err
	}
	now := s.clock()
	patch.Updated = &now
	patch.StudentID = run.StudentID
	patch.ApplyTo(&run)

	if err := s.persist(ctx, quizID, run); err != nil {
		return err
	}
	s.publish(ctx, quizID, runEnvelope{Op: "update", Run: &patch})
	return nil
}

func (s *RunStore) Clear(ctx context.Context, quizID string) error {
	if err := s.client.Del(ctx, runsKey(quizID)).Err(); err != nil {
		return err
	}
	s.publish(ctx, quizID, runEnvelope{Op: "delete"})
	return nil
}

func (s *RunStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.fanout.subscribe(runsChannel(quizID), sink)
}

func (s *RunStore) get(ctx context.Context, quizID, studentID string) (domain.QuizRun, error) {
	raw, err := s.client.HGet(ctx, runsKey(quizID), studentID).Bytes()
	if err == redis.Nil {
		return domain.QuizRun{}, domain.ErrRunNotFound
	}
	if err != nil {
		return domain.QuizRun{}, err
	}
	var run domain.QuizRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return domain.QuizRun{}, fmt.Errorf("unmarshal run for %s: %w", studentID, err)
	}
	return run, nil
}

// find resolves the run a patch addresses, preferring the student key and
// falling back to a uid scan.
func (s *RunStore) find(ctx context.Context, quizID string, patch domain.QuizRunPatch) (domain.QuizRun, error) {
	if patch.StudentID != "" {
		return s.get(ctx, quizID, patch.StudentID)
	}
	fields, err := s.client.HGetAll(ctx, runsKey(quizID)).Result()
	if err != nil {
		return domain.QuizRun{}, err
	}
	for studentID, raw := range fields {
		var run domain.QuizRun
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			return domain.QuizRun{}, fmt.Errorf("unmarshal run for %s: %w", studentID, err)
		}
		if run.UID == patch.UID {
			return run, nil
		}
	}
	return domain.QuizRun{}, domain.ErrRunNotFound
}

func (s *RunStore) persist(ctx context.Context, quizID string, run domain.QuizRun) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, runsKey(quizID), run.StudentID, raw).Err()
}

func (s *RunStore) publish(ctx context.Context, quizID string, env runEnvelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	s.fanout.publish(ctx, runsChannel(quizID), raw)
}

func runsKey(quizID string) string {
	return "quiz:" + quizID + ":runs"
}

func runsChannel(quizID string) string {
	return "quiz:" + quizID + ":runs:events"
}
