// Package queue defines message payloads exchanged over the message broker.
package queue

// Document event types.
const (
    EventDocumentSubmitted     = "document.submitted"
    EventDocumentStatusChanged = "document.status_changed"
    EventDocumentDeleted       = "document.deleted"
)

// DocumentEvent is published after a document is created, re-triaged or
// removed.  It carries enough for an audit trail without querying the
// primary database.
type DocumentEvent struct {
    Type       string `json:"type"`
    DocumentID string `json:"document_id"`
    Status     string `json:"status,omitempty"`
    ActorRole  string `json:"actor_role"`
    ActorEmail string `json:"actor_email,omitempty"`
    At         string `json:"at"`
}
