// Package events emits change notifications for audit log activity. A
// Publisher is optional everywhere it is accepted; when no NATS URL is
// configured the noop implementation is used and nothing leaves the process.
package events

import "context"

// Notification topic constants.
const (
	TopicEventLogged      = "audit.event.logged"
	TopicSubjectTruncated = "audit.subject.truncated"
	TopicSubjectPurged    = "audit.subject.purged"

	// TopicAll matches every trail notification (NATS wildcard).
	TopicAll = "audit.>"
)

// EventLogged is published after a log transaction commits.
type EventLogged struct {
	ID       string   `json:"id"`
	Subjects []string `json:"subjects"`
}

// SubjectTruncated is published after a truncate removes entries. Removed
// lists every ID dropped from the subject index; Deleted lists the subset
// whose blobs were garbage-collected because no other subject held them.
type SubjectTruncated struct {
	Subject string   `json:"subject"`
	Keep    int      `json:"keep"`
	Removed []string `json:"removed"`
	Deleted []string `json:"deleted,omitempty"`
}

// SubjectPurged is published after a purge removes entries through its
// boundary event.
type SubjectPurged struct {
	Subject string   `json:"subject"`
	UpToID  string   `json:"up_to_id"`
	Removed []string `json:"removed"`
	Deleted []string `json:"deleted,omitempty"`
}

// Publisher is the interface for emitting notifications.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
