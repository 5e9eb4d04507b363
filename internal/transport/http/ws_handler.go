package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
)

// WSHandler upgrades clients to websockets and gives each connection its own
// synchronization actor. Inbound messages are actor commands, outbound
// messages are state snapshots plus command replies.
type WSHandler struct {
	stores   app.Stores
	upgrader websocket.Upgrader
}

func NewWSHandler(stores app.Stores) *WSHandler {
	return &WSHandler{
		stores: stores,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type createdPayload struct {
	ID string `json:"id"`
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
}

type quizRefPayload struct {
	QuizID string `json:"quizId"`
}

type changeStatePayload struct {
	State domain.QuizState `json:"state"`
}

type logAnswerPayload struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

type addCommentPayload struct {
	Text string `json:"text"`
}

type idPayload struct {
	ID string `json:"id"`
}

type addQuestionPayload struct {
	Question domain.Question `json:"question"`
	Group    string          `json:"group"`
}

type updateQuestionPayload struct {
	Question domain.QuestionPatch `json:"question"`
	Group    string               `json:"group"`
}

// ServeWS wires one websocket connection to a fresh actor.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" || displayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}
	role := domain.UserRole(r.URL.Query().Get("role"))
	if role == "" {
		role = domain.RoleStudent
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	actor := app.NewActor(h.stores)
	go actor.Run(ctx)

	user := domain.User{UID: userID, Username: displayName, Role: role}
	if err := actor.SetUser(ctx, user); err != nil {
		return
	}
	if quizID := r.URL.Query().Get("quizId"); quizID != "" {
		_ = actor.SetQuiz(ctx, quizID)
	}

	updates, unwatch := actor.Watch()
	defer unwatch()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snapshot}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handleCommand(ctx, actor, user, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleCommand(ctx context.Context, actor *app.Actor, user domain.User, inbound inboundMessage, send chan<- outboundMessage[any]) {
	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "createQuiz":
		id, err := actor.CreateQuiz(ctx, user.UID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "created", Payload: createdPayload{ID: id}}
	case "setQuiz":
		var payload quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.SetQuiz(ctx, payload.QuizID); err != nil {
			fail(err)
		}
	case "activate":
		var payload quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.Activate(ctx, user.UID, payload.QuizID); err != nil {
			fail(err)
		}
	case "update":
		var patch domain.QuizPatch
		if err := json.Unmarshal(inbound.Payload, &patch); err != nil {
			fail(err)
			return
		}
		if err := actor.Update(ctx, patch); err != nil {
			fail(err)
		}
	case "changeState":
		var payload changeStatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.ChangeState(ctx, payload.State); err != nil {
			fail(err)
		}
	case "startQuiz":
		if err := actor.StartQuiz(ctx); err != nil {
			fail(err)
		}
	case "logAnswer":
		var payload logAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		answer, err := parseGivenAnswer(payload.Answer)
		if err != nil {
			fail(err)
			return
		}
		correct, err := actor.LogAnswer(ctx, payload.QuestionID, answer)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
			QuestionID: payload.QuestionID,
			Correct:    correct,
		}}
	case "addComment":
		var payload addCommentPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.AddComment(ctx, domain.Comment{Text: payload.Text}); err != nil {
			fail(err)
		}
	case "deleteComment":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.DeleteComment(ctx, payload.ID); err != nil {
			fail(err)
		}
	case "finishComment":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.FinishComment(ctx, payload.ID); err != nil {
			fail(err)
		}
	case "upvoteComment":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.UpvoteComment(ctx, payload.ID); err != nil {
			fail(err)
		}
	case "addQuestion":
		var payload addQuestionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		id, err := actor.AddQuestion(ctx, payload.Question, payload.Group)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "created", Payload: createdPayload{ID: id}}
	case "deleteQuestion":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.DeleteQuestion(ctx, payload.ID); err != nil {
			fail(err)
		}
	case "updateQuestion":
		var payload updateQuestionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(err)
			return
		}
		if err := actor.UpdateQuestion(ctx, payload.Question, payload.Group); err != nil {
			fail(err)
		}
	default:
		fail(fmt.Errorf("unsupported message type %q", inbound.Type))
	}
}

// parseGivenAnswer accepts either a free-text string or a list of arbitrary
// truthy values coerced to a boolean selection vector.
func parseGivenAnswer(raw json.RawMessage) (domain.GivenAnswer, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return domain.GivenAnswer{Text: text}, nil
	}
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return domain.GivenAnswer{}, fmt.Errorf("answer must be a string or a list")
	}
	choices := make([]bool, len(values))
	for i, v := range values {
		choices[i] = truthy(v)
	}
	return domain.GivenAnswer{Choices: choices}, nil
}

func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		return value != ""
	default:
		return true
	}
}
