// internal/app/system/notify/notify.go
package notify

import (
	"context"
	"fmt"
)

// Target selects the recipients of a broadcast.
type Target string

const (
	TargetVolunteers   Target = "volunteers"
	TargetResponsibles Target = "responsibles"
	TargetAll          Target = "all"
)

// ParseTarget validates a broadcast target.
func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case TargetVolunteers, TargetResponsibles, TargetAll:
		return t, nil
	}
	return "", fmt.Errorf("unknown broadcast target %q", s)
}

// Message is the payload delivered to users.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

// Dispatcher delivers messages to users. Callers treat it as fire-and-forget:
// an error means the message was not accepted and should only be logged.
type Dispatcher interface {
	NotifyUsers(ctx context.Context, userIDs []string, msg Message) error
	Broadcast(ctx context.Context, target Target, msg Message) error
}

// Nop discards every message. Used when notifications are disabled.
type Nop struct{}

func (Nop) NotifyUsers(context.Context, []string, Message) error { return nil }
func (Nop) Broadcast(context.Context, Target, Message) error     { return nil }
