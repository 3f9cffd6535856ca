// Package queue carries complaint lifecycle events: the Publisher fan-out
// used by services, the RabbitMQ publisher, and the notification consumer.
package queue

import (
	"context"
	"time"

	"fixitnow-backend/app/model"
)

// EventType names a lifecycle change.
type EventType string

const (
	EventCreated       EventType = "complaint.created"
	EventStatusChanged EventType = "complaint.status_changed"
	EventAssigned      EventType = "complaint.assigned"
	EventResolved      EventType = "complaint.resolved"
	EventNoteAdded     EventType = "complaint.note_added"
	EventDeleted       EventType = "complaint.deleted"
)

// ComplaintEvent is the message published after every complaint mutation.
type ComplaintEvent struct {
	Type        EventType    `json:"type"`
	ComplaintID string       `json:"complaintId"`
	Title       string       `json:"title"`
	Status      model.Status `json:"status"`
	ActorID     string       `json:"actorId"`
	ReportedBy  string       `json:"reportedBy"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	OccurredAt  time.Time    `json:"occurredAt"`
}

// NewComplaintEvent snapshots c after a change made by actorID.
func NewComplaintEvent(t EventType, c *model.Complaint, actorID string, at time.Time) ComplaintEvent {
	return ComplaintEvent{
		Type:        t,
		ComplaintID: c.ID.Hex(),
		Title:       c.Title,
		Status:      c.Status,
		ActorID:     actorID,
		ReportedBy:  c.ReportedBy,
		AssignedTo:  c.AssignedTo,
		OccurredAt:  at.UTC(),
	}
}

// Publisher delivers lifecycle events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev ComplaintEvent) error
}
