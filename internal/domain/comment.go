package domain

import (
	"sort"
	"time"
)

// Comment is a moderated student comment attached to a quiz.
type Comment struct {
	UID         string    `json:"uid"`
	Text        string    `json:"text"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	Upvoters    []string  `json:"upvoters"`
	Answered    bool      `json:"answered"`
	RelatedQuiz string    `json:"relatedQuiz"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// Upvotes returns the number of distinct upvoters.
func (c Comment) Upvotes() int {
	return len(c.Upvoters)
}

// HasUpvoter reports whether the user already upvoted this comment.
func (c Comment) HasUpvoter(userID string) bool {
	return contains(c.Upvoters, userID)
}

// SortCommentsForDisplay orders comments for presentation: unanswered before
// answered, more upvotes first within a tier, ties broken by most recent
// update.
func SortCommentsForDisplay(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if a.Answered != b.Answered {
			return !a.Answered
		}
		if len(a.Upvoters) != len(b.Upvoters) {
			return len(a.Upvoters) > len(b.Upvoters)
		}
		return a.Updated.After(b.Updated)
	})
}

// CommentPatch is a partial comment update.
type CommentPatch struct {
	UID         string     `json:"uid,omitempty"`
	Text        *string    `json:"text,omitempty"`
	AuthorID    *string    `json:"authorId,omitempty"`
	AuthorName  *string    `json:"authorName,omitempty"`
	Upvoters    []string   `json:"upvoters,omitempty"`
	Answered    *bool      `json:"answered,omitempty"`
	RelatedQuiz *string    `json:"relatedQuiz,omitempty"`
	Updated     *time.Time `json:"updated,omitempty"`
}

// ApplyTo shallow-merges the patch into the comment.
func (p CommentPatch) ApplyTo(c *Comment) {
	if p.UID != "" {
		c.UID = p.UID
	}
	if p.Text != nil {
		c.Text = *p.Text
	}
	if p.AuthorID != nil {
		c.AuthorID = *p.AuthorID
	}
	if p.AuthorName != nil {
		c.AuthorName = *p.AuthorName
	}
	if p.Upvoters != nil {
		c.Upvoters = p.Upvoters
	}
	if p.Answered != nil {
		c.Answered = *p.Answered
	}
	if p.RelatedQuiz != nil {
		c.RelatedQuiz = *p.RelatedQuiz
	}
	if p.Updated != nil {
		c.Updated = *p.Updated
	}
}

// AsPatch converts a full comment into a patch carrying every field.
func (c Comment) AsPatch() CommentPatch {
	return CommentPatch{
		UID:         c.UID,
		Text:        &c.Text,
		AuthorID:    &c.AuthorID,
		AuthorName:  &c.AuthorName,
		Upvoters:    c.Upvoters,
		Answered:    &c.Answered,
		RelatedQuiz: &c.RelatedQuiz,
		Updated:     &c.Updated,
	}
}
