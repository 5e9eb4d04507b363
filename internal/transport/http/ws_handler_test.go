package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"recapp-sync-service/internal/app"
	"recapp-sync-service/internal/domain"
	"recapp-sync-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, app.Stores) {
	t.Helper()
	stores := app.Stores{
		Quizzes:   memory.NewQuizStore(),
		Comments:  memory.NewCommentStore(),
		Questions: memory.NewQuestionStore(),
		Runs:      memory.NewRunStore(),
		Names:     memory.NewNameStore(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(stores).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, stores
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

// readUntil drains messages until the predicate accepts one.
func readUntil(conn *websocket.Conn, t *testing.T, accept func(string, map[string]any) bool) {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t)
		if accept(typ, payload) {
			return
		}
	}
	t.Fatalf("expected message never arrived")
}

func TestWebSocketRejectsAnonymousClients(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws?name=Alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", resp.StatusCode)
	}
}

func TestWebSocketStateAndCommentFlow(t *testing.T) {
	server, stores := newTestServer(t)
	stores.Quizzes.(*memory.QuizStore).Put(domain.Quiz{
		UID:      "quiz-1",
		Title:    "Geo",
		State:    domain.QuizEditing,
		Teachers: []string{"t1"},
		Groups:   []domain.Group{{Name: "General", Questions: []string{}}},
		Comments: []string{},
	})

	conn := dial(t, server, "quizId=quiz-1&userId=t1&name=Alice&role=TEACHER")

	readUntil(conn, t, func(typ string, payload map[string]any) bool {
		if typ != "state" {
			return false
		}
		quiz, _ := payload["quiz"].(map[string]any)
		return quiz != nil && quiz["uid"] == "quiz-1"
	})

	if err := conn.WriteJSON(map[string]any{
		"type":    "addComment",
		"payload": map[string]any{"text": "welcome"},
	}); err != nil {
		t.Fatalf("write addComment: %v", err)
	}
	readUntil(conn, t, func(typ string, payload map[string]any) bool {
		if typ != "state" {
			return false
		}
		comments, _ := payload["comments"].([]any)
		return len(comments) == 1
	})

	if err := conn.WriteJSON(map[string]any{
		"type": "addQuestion",
		"payload": map[string]any{
			"question": map[string]any{"text": "Capital of France?", "type": "TEXT"},
			"group":    "General",
		},
	}); err != nil {
		t.Fatalf("write addQuestion: %v", err)
	}
	readUntil(conn, t, func(typ string, payload map[string]any) bool {
		id, ok := payload["id"].(string)
		return typ == "created" && ok && id != ""
	})

	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write bogus: %v", err)
	}
	readUntil(conn, t, func(typ string, payload map[string]any) bool {
		return typ == "error"
	})
}

func TestWebSocketAnswerFlow(t *testing.T) {
	server, stores := newTestServer(t)

	ctx := context.Background()
	questionID, err := stores.Questions.Create(ctx, "quiz-1", domain.Question{
		Text: "Capital of Germany?",
		Type: domain.SingleChoice,
		Answers: []domain.AnswerOption{
			{Text: "Berlin", Correct: true},
			{Text: "Paris", Correct: false},
		},
		Approved: true,
	})
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	stores.Quizzes.(*memory.QuizStore).Put(domain.Quiz{
		UID:    "quiz-1",
		State:  domain.QuizStarted,
		Groups: []domain.Group{{Name: "General", Questions: []string{questionID}}},
	})

	conn := dial(t, server, "quizId=quiz-1&userId=s1&name=Bob")

	// Joining a started quiz opens the student's run.
	readUntil(conn, t, func(typ string, payload map[string]any) bool {
		return typ == "state" && payload["run"] != nil
	})

	// Choice answers arrive as a truthy selection list.
	if err := conn.WriteJSON(map[string]any{
		"type": "logAnswer",
		"payload": map[string]any{
			"questionId": questionID,
			"answer":     []any{true, false},
		},
	}); err != nil {
		t.Fatalf("write logAnswer: %v", err)
	}
	readUntil(conn, t, func(typ string, payload map[string]any) bool {
		return typ == "answerResult" && payload["correct"] == true && payload["questionId"] == questionID
	})

	// A text answer for an unknown question fails.
	if err := conn.WriteJSON(map[string]any{
		"type": "logAnswer",
		"payload": map[string]any{
			"questionId": "missing",
			"answer":     "whatever",
		},
	}); err != nil {
		t.Fatalf("write bad logAnswer: %v", err)
	}
	readUntil(conn, t, func(typ string, payload map[string]any) bool {
		return typ == "error"
	})
}

func TestParseGivenAnswer(t *testing.T) {
	answer, err := parseGivenAnswer([]byte(`"Berlin"`))
	if err != nil {
		t.Fatalf("parse text: %v", err)
	}
	if answer.Text != "Berlin" || answer.Choices != nil {
		t.Fatalf("unexpected text answer: %+v", answer)
	}

	answer, err = parseGivenAnswer([]byte(`[true, 0, "", "x", null, {}]`))
	if err != nil {
		t.Fatalf("parse list: %v", err)
	}
	want := []bool{true, false, false, true, false, true}
	if len(answer.Choices) != len(want) {
		t.Fatalf("expected %v, got %v", want, answer.Choices)
	}
	for i, v := range want {
		if answer.Choices[i] != v {
			t.Fatalf("expected %v, got %v", want, answer.Choices)
		}
	}

	if _, err := parseGivenAnswer([]byte(`42`)); err == nil {
		t.Fatalf("expected error for a bare number")
	}
}
