// Package mail renders budget emails and delivers them through Brevo.
package mail

import (
	"context"
	"errors"
	"regexp"
)

// ErrNoRecipient is returned when a message has nobody to go to.
var ErrNoRecipient = errors.New("mail: no recipient")

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Message struct {
	To      []Recipient
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Filter drops recipients that do not match an allow pattern. It is a no-op
// in production.
type Filter struct {
	pattern    *regexp.Regexp
	production bool
}

func NewFilter(pattern string, production bool) (*Filter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Filter{pattern: re, production: production}, nil
}

// Apply returns the recipients allowed to receive mail. A nil Filter allows
// everyone.
func (f *Filter) Apply(to []Recipient) []Recipient {
	if f == nil || f.production {
		return to
	}
	kept := make([]Recipient, 0, len(to))
	for _, r := range to {
		if f.pattern.MatchString(r.Email) {
			kept = append(kept, r)
		}
	}
	return kept
}

func emails(to []Recipient) []string {
	out := make([]string, len(to))
	for i, r := range to {
		out[i] = r.Email
	}
	return out
}
