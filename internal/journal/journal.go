// Package journal defines the domain types shared across the assistant
// pipeline: the closed two-author set, persisted entries, and the ephemeral
// conversation turns supplied with each assistant request.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// Author identifies one of the two journal owners. The set is closed; any
// other value is rejected at the boundary by ParseAuthor.
type Author string

const (
	AuthorShivam Author = "shivam"
	AuthorShreya Author = "shreya"
)

// Authors returns the full author set in stable order.
func Authors() []Author {
	return []Author{AuthorShivam, AuthorShreya}
}

// ParseAuthor validates a raw identity string against the known author set.
func ParseAuthor(s string) (Author, error) {
	switch Author(strings.ToLower(strings.TrimSpace(s))) {
	case AuthorShivam:
		return AuthorShivam, nil
	case AuthorShreya:
		return AuthorShreya, nil
	default:
		return "", fmt.Errorf("unknown author %q", s)
	}
}

// Other returns the author's partner.
func (a Author) Other() Author {
	if a == AuthorShivam {
		return AuthorShreya
	}
	return AuthorShivam
}

// DisplayName returns the capitalized name used in prompts and context text.
func (a Author) DisplayName() string {
	switch a {
	case AuthorShivam:
		return "Shivam"
	case AuthorShreya:
		return "Shreya"
	default:
		return string(a)
	}
}

// DateLayout is the calendar-day format used for Entry.Date. Dates are
// logical days, independent of Entry.CreatedAt.
const DateLayout = "2006-01-02"

// ParseDate validates a YYYY-MM-DD day string.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Format(DateLayout), nil
}

// Entry is one persisted journal record. Entries are immutable once written;
// the assistant core only ever reads them. Multiple entries may share a Date.
type Entry struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one conversation exchange supplied by the caller. Turns are
// ephemeral and never persisted; the caller sends them most-recent-last.
type Turn struct {
	Speaker string `json:"speaker"` // "user" or "assistant"
	Text    string `json:"text"`
}

const (
	SpeakerUser      = "user"
	SpeakerAssistant = "assistant"
)
