package domain

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to QuizState
		ok       bool
	}{
		{QuizEditing, QuizStarted, true},
		{QuizStopped, QuizStarted, true},
		{QuizActive, QuizStarted, true},
		{QuizStarted, QuizStarted, false},
		{QuizEditing, QuizStopped, true},
		{QuizStarted, QuizStopped, true},
		{QuizStopped, QuizStopped, false},
		{QuizStarted, QuizEditing, true},
		{QuizStopped, QuizEditing, true},
		{QuizActive, QuizEditing, true},
		{QuizEditing, QuizEditing, false},
		{QuizEditing, QuizActive, false},
		{QuizStarted, QuizActive, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestFlattenQuestions(t *testing.T) {
	quiz := Quiz{Groups: []Group{
		{Name: "A", Questions: []string{"q1", "q2"}},
		{Name: "B", Questions: []string{"q3"}},
		{Name: "empty"},
	}}
	got := quiz.FlattenQuestions()
	want := []string{"q1", "q2", "q3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAppendToGroup(t *testing.T) {
	groups := []Group{
		{Name: "A", Questions: []string{"q1"}},
		{Name: "B", Questions: []string{}},
	}
	groups = AppendToGroup(groups, "B", "q2")
	if !reflect.DeepEqual(groups[1].Questions, []string{"q2"}) {
		t.Fatalf("expected q2 in group B, got %v", groups[1].Questions)
	}

	// Unknown group leaves everything untouched.
	groups = AppendToGroup(groups, "missing", "q3")
	if len(groups[0].Questions) != 1 || len(groups[1].Questions) != 1 {
		t.Fatalf("unexpected change for unknown group: %v", groups)
	}
}

func TestMoveToGroup(t *testing.T) {
	groups := []Group{
		{Name: "A", Questions: []string{"q1", "q2"}},
		{Name: "B", Questions: []string{"q3"}},
	}
	groups = MoveToGroup(groups, "B", "q1")
	if !reflect.DeepEqual(groups[0].Questions, []string{"q2"}) {
		t.Fatalf("expected q1 removed from A, got %v", groups[0].Questions)
	}
	if !reflect.DeepEqual(groups[1].Questions, []string{"q3", "q1"}) {
		t.Fatalf("expected q1 appended to B, got %v", groups[1].Questions)
	}
}

func TestCloneGroupsIsDeep(t *testing.T) {
	original := []Group{{Name: "A", Questions: []string{"q1"}}}
	clone := CloneGroups(original)
	clone[0].Questions[0] = "other"
	if original[0].Questions[0] != "q1" {
		t.Fatalf("clone shares backing array with original")
	}
}

func TestShuffleOrderKeepsElements(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	ids := []string{"q1", "q2", "q3", "q4", "q5"}
	shuffled := ShuffleOrder(rnd, ids)
	if len(shuffled) != len(ids) {
		t.Fatalf("expected %d ids, got %d", len(ids), len(shuffled))
	}
	a := append([]string(nil), ids...)
	b := append([]string(nil), shuffled...)
	sort.Strings(a)
	sort.Strings(b)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("shuffle changed the element set: %v vs %v", ids, shuffled)
	}
	if !reflect.DeepEqual(ids, []string{"q1", "q2", "q3", "q4", "q5"}) {
		t.Fatalf("shuffle mutated its input: %v", ids)
	}
}

func TestQuizPatchApplyTo(t *testing.T) {
	quiz := Quiz{UID: "quiz-1", Title: "Old", Description: "Keep me", State: QuizEditing}
	title := "New"
	state := QuizStarted
	patch := QuizPatch{UID: "quiz-1", Title: &title, State: &state}
	patch.ApplyTo(&quiz)

	if quiz.Title != "New" || quiz.State != QuizStarted {
		t.Fatalf("patch not applied: %+v", quiz)
	}
	if quiz.Description != "Keep me" {
		t.Fatalf("absent field was overwritten: %q", quiz.Description)
	}
}
