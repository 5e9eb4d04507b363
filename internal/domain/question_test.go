package domain

import "testing"

func TestGradeChoices(t *testing.T) {
	options := []AnswerOption{
		{Text: "Berlin", Correct: true},
		{Text: "Paris", Correct: false},
		{Text: "Bern", Correct: true},
	}
	cases := []struct {
		name      string
		submitted []bool
		want      bool
	}{
		{"exact match", []bool{true, false, true}, true},
		{"wrong pick", []bool{false, true, true}, false},
		{"short submission padded with false", []bool{true}, false},
		{"short submission still matching", []bool{true, false, true}, true},
		{"extra positions ignored", []bool{true, false, true, true}, true},
		{"empty submission", nil, false},
		{"all false", []bool{false, false, false}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GradeChoices(tc.submitted, options); got != tc.want {
				t.Fatalf("GradeChoices(%v) = %v, want %v", tc.submitted, got, tc.want)
			}
		})
	}
}

func TestGradeChoicesPaddingMatchesCorrectTail(t *testing.T) {
	// A short submission is padded with false, so it can still be fully
	// correct when the remaining options are all incorrect ones.
	options := []AnswerOption{
		{Text: "a", Correct: true},
		{Text: "b", Correct: false},
	}
	if !GradeChoices([]bool{true}, options) {
		t.Fatalf("expected padded submission to grade correct")
	}
}

func TestGradeTextAlwaysCorrect(t *testing.T) {
	q := Question{Type: TextQuestion}
	if !q.Grade(GivenAnswer{Text: "anything"}) {
		t.Fatalf("text answers are never graded wrong")
	}
	if !q.Grade(GivenAnswer{}) {
		t.Fatalf("even an empty text answer passes")
	}
}

func TestQuestionVisibleTo(t *testing.T) {
	quiz := Quiz{Teachers: []string{"t1"}}
	pending := Question{UID: "q1", AuthorID: "s1", Approved: false}

	if pending.VisibleTo(User{UID: "s2", Role: RoleStudent}, quiz) {
		t.Fatalf("unapproved question leaked to another student")
	}
	if !pending.VisibleTo(User{UID: "s1", Role: RoleStudent}, quiz) {
		t.Fatalf("author cannot see own question")
	}
	if !pending.VisibleTo(User{UID: "t1", Role: RoleTeacher}, quiz) {
		t.Fatalf("teacher cannot see pending question")
	}
	if !pending.VisibleTo(User{UID: "x", Role: RoleAdmin}, quiz) {
		t.Fatalf("admin cannot see pending question")
	}

	approved := Question{UID: "q2", AuthorID: "s1", Approved: true}
	if !approved.VisibleTo(User{UID: "s2", Role: RoleStudent}, quiz) {
		t.Fatalf("approved question hidden from student")
	}
}
