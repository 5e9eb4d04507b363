package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

// Loader fetches quiz content from a backing store (e.g. Postgres) on cache
// miss.
type Loader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Saver persists quizzes durably alongside the Redis copy. Optional.
type Saver interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// QuizStore keeps quizzes as JSON under quiz:{id} with a TTL and falls back
// to a loader on miss; concurrent misses are collapsed with singleflight.
// Every write is fanned out to subscribers via pub/sub.
type QuizStore struct {
	client *redis.Client
	loader Loader
	saver  Saver
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	fanout *fanout
}

func NewQuizStore(client *redis.Client, loader Loader, saver Saver, ttl time.Duration) *QuizStore {
	return &QuizStore{
		client: client,
		loader: loader,
		saver:  saver,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		fanout: newFanout(client, decodeQuizPush),
	}
}

func (s *QuizStore) Get(ctx context.Context, id string) (domain.Quiz, error) {
	if quiz, err := s.getCached(ctx, id); err == nil {
		return quiz, nil
	}

	result, err, _ := s.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if quiz, err := s.getCached(ctx, id); err == nil {
			return quiz, nil
		}
		if s.loader == nil {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		quiz, err := s.loader.LoadQuiz(ctx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := s.setCached(ctx, quiz); err != nil {
			return domain.Quiz{}, err
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (s *QuizStore) Create(ctx context.Context, quiz domain.Quiz) (string, error) {
	uid := newUID("quiz")
	quiz.UID = uid
	quiz.UniqueLink = "/quiz/" + uid
	now := s.clock()
	if quiz.Created.IsZero() {
		quiz.Created = now
	}
	quiz.Updated = now

	if err := s.persist(ctx, quiz); err != nil {
		return "", err
	}
	s.publishPatch(ctx, quiz.AsPatch())
	return uid, nil
}

func (s *QuizStore) Update(ctx context.Context, patch domain.QuizPatch) error {
	quiz, err := s.Get(ctx, patch.UID)
	if err != nil {
		return err
	}
	now := s.clock()
	patch.Updated = &now
	patch.ApplyTo(&quiz)

	if err := s.persist(ctx, quiz); err != nil {
		return err
	}
	s.publishPatch(ctx, patch)
	return nil
}

func (s *QuizStore) Subscribe(quizID string, sink app.Sink) func() {
	return s.fanout.subscribe(quizChannel(quizID), sink)
}

func (s *QuizStore) getCached(ctx context.Context, id string) (domain.Quiz, error) {
	raw, err := s.client.Get(ctx, quizKey(id)).Bytes()
	if err != nil {
		return domain.Quiz{}, err
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz %s: %w", id, err)
	}
	return quiz, nil
}

func (s *QuizStore) setCached(ctx context.Context, quiz domain.Quiz) error {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, quizKey(quiz.UID), raw, s.ttlWithJitter()).Err()
}

func (s *QuizStore) persist(ctx context.Context, quiz domain.Quiz) error {
	if err := s.setCached(ctx, quiz); err != nil {
		return err
	}
	if s.saver != nil {
		if err := s.saver.SaveQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("save quiz %s: %w", quiz.UID, err)
		}
	}
	return nil
}

func (s *QuizStore) publishPatch(ctx context.Context, patch domain.QuizPatch) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return
	}
	s.fanout.publish(ctx, quizChannel(patch.UID), raw)
}

func (s *QuizStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}

func quizKey(id string) string {
	return "quiz:" + id
}

func quizChannel(id string) string {
	return "quiz:" + id + ":events"
}

func decodeQuizPush(payload []byte) (app.Push, error) {
	var patch domain.QuizPatch
	if err := json.Unmarshal(payload, &patch); err != nil {
		return nil, err
	}
	return app.QuizUpdated{Quiz: patch}, nil
}
