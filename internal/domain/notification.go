package domain

import "time"

// Severity of a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Notification is an ephemeral message for the local actor.
type Notification struct {
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ActorID     string    `json:"actorId"`
	Kind        string    `json:"kind"` // event kind that produced it
	At          time.Time `json:"at"`
}
