package domain

import (
	"testing"
	"time"
)

func TestSortCommentsForDisplay(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []Comment{
		{UID: "c1", Answered: true, Upvoters: []string{"a", "b", "c"}, Updated: base},
		{UID: "c2", Answered: false, Upvoters: []string{"a"}, Updated: base},
		{UID: "c3", Answered: false, Upvoters: []string{"a", "b"}, Updated: base},
		{UID: "c4", Answered: false, Upvoters: []string{"a"}, Updated: base.Add(time.Minute)},
		{UID: "c5", Answered: true, Upvoters: nil, Updated: base},
	}
	SortCommentsForDisplay(comments)

	want := []string{"c3", "c4", "c2", "c1", "c5"}
	for i, uid := range want {
		if comments[i].UID != uid {
			t.Fatalf("position %d: expected %s, got %s (full order %v)", i, uid, comments[i].UID, uids(comments))
		}
	}
}

func uids(comments []Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.UID
	}
	return out
}

func TestCommentUpvoteHelpers(t *testing.T) {
	c := Comment{Upvoters: []string{"u1", "u2"}}
	if c.Upvotes() != 2 {
		t.Fatalf("expected 2 upvotes, got %d", c.Upvotes())
	}
	if !c.HasUpvoter("u1") || c.HasUpvoter("u3") {
		t.Fatalf("upvoter membership wrong: %v", c.Upvoters)
	}
}

func TestUserNameDisplay(t *testing.T) {
	if got := (UserName{Username: "alice"}).Display(); got != "alice" {
		t.Fatalf("expected plain username, got %q", got)
	}
	if got := (UserName{Username: "alice", Nickname: "Prof"}).Display(); got != "alice (Prof)" {
		t.Fatalf("expected nickname suffix, got %q", got)
	}
}
