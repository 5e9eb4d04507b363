package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"recapp-sync-service/internal/domain"
)

// Actor is the per-client quiz synchronization actor. It mirrors the
// server-held entities of one quiz at a time and processes exactly one
// inbound message to completion before the next, so its state needs no
// locking. Pushes from store subscriptions and commands from the client
// share the same mailbox.
type Actor struct {
	stores Stores
	clock  func() time.Time
	rnd    *rand.Rand
	inbox  chan envelope

	// owned by the run loop
	state   State
	user    *domain.User
	quizID  string
	cancels []func()

	mu       sync.Mutex
	watchers map[chan State]struct{}
}

type envelope struct {
	msg   message
	reply chan<- result
}

type result struct {
	id      string
	correct bool
	state   State
	err     error
}

func (e envelope) respond(r result) {
	if e.reply != nil {
		e.reply <- r
	}
}

// NewActor builds an actor over the given stores. Run must be called before
// any command is issued.
func NewActor(stores Stores) *Actor {
	return NewActorWithClock(stores, time.Now)
}

// NewActorWithClock is test-only for deterministic timestamps.
func NewActorWithClock(stores Stores, now func() time.Time) *Actor {
	return &Actor{
		stores:   stores,
		clock:    now,
		rnd:      rand.New(rand.NewSource(now().UnixNano())),
		inbox:    make(chan envelope, 256),
		watchers: make(map[chan State]struct{}),
	}
}

// Run drains the mailbox until the context is canceled. Subscriptions are
// released on exit.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.unsubscribeAll()
			return
		case env := <-a.inbox:
			a.dispatch(ctx, env)
			a.broadcast()
		}
	}
}

// dispatch handles a single message. A panicking handler is logged and
// answered with its panic so the actor stays responsive.
func (a *Actor) dispatch(ctx context.Context, env envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("actor: handler panic: %v", r)
			env.respond(result{err: panicError{r}})
		}
	}()

	switch m := env.msg.(type) {
	case pushMsg:
		a.handlePush(ctx, m.push)
		env.respond(result{})
	case cmdCreateQuiz:
		id, err := a.handleCreateQuiz(ctx, m.creatorID)
		env.respond(result{id: id, err: err})
	case cmdSetUser:
		a.handleSetUser(ctx, m.user)
		env.respond(result{})
	case cmdSetQuiz:
		a.handleSetQuiz(ctx, m.id)
		env.respond(result{})
	case cmdActivate:
		env.respond(result{err: a.handleActivate(ctx, m.userID, m.quizID)})
	case cmdUpdate:
		a.handleUpdate(ctx, m.patch)
		env.respond(result{})
	case cmdChangeState:
		a.handleChangeState(ctx, m.state)
		env.respond(result{})
	case cmdStartQuiz:
		a.handleStartQuiz(ctx)
		env.respond(result{})
	case cmdLogAnswer:
		correct, err := a.handleLogAnswer(ctx, m.questionID, m.answer)
		env.respond(result{correct: correct, err: err})
	case cmdAddComment:
		env.respond(result{err: a.handleAddComment(ctx, m.comment)})
	case cmdDeleteComment:
		env.respond(result{err: a.handleDeleteComment(ctx, m.id)})
	case cmdFinishComment:
		a.handleFinishComment(ctx, m.id)
		env.respond(result{})
	case cmdUpvoteComment:
		a.handleUpvoteComment(ctx, m.id)
		env.respond(result{})
	case cmdAddQuestion:
		id, err := a.handleAddQuestion(ctx, m.question, m.group)
		env.respond(result{id: id, err: err})
	case cmdDeleteQuestion:
		env.respond(result{err: a.handleDeleteQuestion(ctx, m.id)})
	case cmdUpdateQuestion:
		a.handleUpdateQuestion(ctx, m.patch, m.group)
		env.respond(result{})
	case cmdSnapshot:
		env.respond(result{state: a.state})
	}
}

// Deliver hands a push notification to the actor. When the mailbox is full
// delivery falls back to a goroutine, which keeps a handler that triggers a
// store publish from deadlocking on its own mailbox.
func (a *Actor) Deliver(p Push) {
	env := envelope{msg: pushMsg{push: p}}
	select {
	case a.inbox <- env:
	default:
		go func() { a.inbox <- env }()
	}
}

func (a *Actor) call(ctx context.Context, m message) (result, error) {
	reply := make(chan result, 1)
	select {
	case a.inbox <- envelope{msg: m, reply: reply}:
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, r.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// CreateQuiz builds a fresh quiz owned by the creator, switches to it and
// returns its id.
func (a *Actor) CreateQuiz(ctx context.Context, creatorID string) (string, error) {
	r, err := a.call(ctx, cmdCreateQuiz{creatorID: creatorID})
	return r.id, err
}

// SetUser records the acting user and refreshes the active quiz under the
// new identity.
func (a *Actor) SetUser(ctx context.Context, user domain.User) error {
	_, err := a.call(ctx, cmdSetUser{user: user})
	return err
}

// SetQuiz switches the actor to another quiz. Switching to the already
// active quiz is a no-op.
func (a *Actor) SetQuiz(ctx context.Context, id string) error {
	_, err := a.call(ctx, cmdSetQuiz{id: id})
	return err
}

// Activate joins a user into a quiz's students when they are not yet a
// member, as used by share links.
func (a *Actor) Activate(ctx context.Context, userID, quizID string) error {
	_, err := a.call(ctx, cmdActivate{userID: userID, quizID: quizID})
	return err
}

// Update forwards a partial quiz update to the quiz store.
func (a *Actor) Update(ctx context.Context, patch domain.QuizPatch) error {
	_, err := a.call(ctx, cmdUpdate{patch: patch})
	return err
}

// ChangeState requests a lifecycle transition. Illegal transitions are
// silently dropped.
func (a *Actor) ChangeState(ctx context.Context, state domain.QuizState) error {
	_, err := a.call(ctx, cmdChangeState{state: state})
	return err
}

// StartQuiz starts or resumes the acting student's run.
func (a *Actor) StartQuiz(ctx context.Context) error {
	_, err := a.call(ctx, cmdStartQuiz{})
	return err
}

// LogAnswer records an answer for the current question of the active run and
// reports whether it was correct.
func (a *Actor) LogAnswer(ctx context.Context, questionID string, answer domain.GivenAnswer) (bool, error) {
	r, err := a.call(ctx, cmdLogAnswer{questionID: questionID, answer: answer})
	return r.correct, err
}

// AddComment creates a comment on the active quiz authored by the acting user.
func (a *Actor) AddComment(ctx context.Context, comment domain.Comment) error {
	_, err := a.call(ctx, cmdAddComment{comment: comment})
	return err
}

// DeleteComment removes a comment, waiting for store confirmation.
func (a *Actor) DeleteComment(ctx context.Context, id string) error {
	_, err := a.call(ctx, cmdDeleteComment{id: id})
	return err
}

// FinishComment marks a comment as answered.
func (a *Actor) FinishComment(ctx context.Context, id string) error {
	_, err := a.call(ctx, cmdFinishComment{id: id})
	return err
}

// UpvoteComment registers the acting user's upvote on a comment.
func (a *Actor) UpvoteComment(ctx context.Context, id string) error {
	_, err := a.call(ctx, cmdUpvoteComment{id: id})
	return err
}

// AddQuestion creates a question in the named group and returns its id.
// Teacher-authored questions are auto-approved.
func (a *Actor) AddQuestion(ctx context.Context, question domain.Question, group string) (string, error) {
	r, err := a.call(ctx, cmdAddQuestion{question: question, group: group})
	return r.id, err
}

// DeleteQuestion removes a question, waiting for store confirmation.
func (a *Actor) DeleteQuestion(ctx context.Context, id string) error {
	_, err := a.call(ctx, cmdDeleteQuestion{id: id})
	return err
}

// UpdateQuestion forwards a partial question update; a non-empty group moves
// the question there as a bundled side effect.
func (a *Actor) UpdateQuestion(ctx context.Context, patch domain.QuestionPatch, group string) error {
	_, err := a.call(ctx, cmdUpdateQuestion{patch: patch, group: group})
	return err
}

// Snapshot returns the current state. Because it goes through the mailbox it
// also acts as a barrier: all previously enqueued messages are folded in.
func (a *Actor) Snapshot(ctx context.Context) (State, error) {
	r, err := a.call(ctx, cmdSnapshot{})
	return r.state, err
}

// Watch returns a channel of state snapshots. Slow consumers never block the
// actor: a stale snapshot is dropped in favor of the newest one. The caller
// must invoke cancel to avoid leaks.
func (a *Actor) Watch() (<-chan State, func()) {
	ch := make(chan State, 8)

	a.mu.Lock()
	a.watchers[ch] = struct{}{}
	a.mu.Unlock()

	// Nudge the loop so the watcher gets an initial snapshot.
	a.nudge()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.watchers[ch]; ok {
			delete(a.watchers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Actor) broadcast() {
	snap := a.state
	a.mu.Lock()
	for ch := range a.watchers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	a.mu.Unlock()
}

func (a *Actor) subscribeAll(quizID string) {
	sink := Sink(a.Deliver)
	a.cancels = append(a.cancels,
		a.stores.Quizzes.Subscribe(quizID, sink),
		a.stores.Comments.Subscribe(quizID, sink),
		a.stores.Questions.Subscribe(quizID, sink),
		a.stores.Runs.Subscribe(quizID, sink),
	)
}

// unsubscribeAll releases the active subscription set. Calling it when
// nothing is subscribed is a no-op.
func (a *Actor) unsubscribeAll() {
	for _, cancel := range a.cancels {
		cancel()
	}
	a.cancels = nil
}

// nudge enqueues a no-op message so the loop broadcasts a fresh snapshot.
func (a *Actor) nudge() {
	env := envelope{msg: cmdSnapshot{}}
	select {
	case a.inbox <- env:
	default:
		go func() { a.inbox <- env }()
	}
}

type panicError struct {
	v any
}

func (e panicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.v)
}
