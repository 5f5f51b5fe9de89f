// Package events carries board change notifications from the service to
// connected clients, in process or across instances through Redis.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	BoardCreated     = "board.created"
	BoardRenamed     = "board.renamed"
	BoardDeleted     = "board.deleted"
	ColumnCreated    = "column.created"
	ColumnRenamed    = "column.renamed"
	ColumnDeleted    = "column.deleted"
	ColumnsReordered = "columns.reordered"
	CardCreated      = "card.created"
	CardUpdated      = "card.updated"
	CardDeleted      = "card.deleted"
	CardsReordered   = "cards.reordered"
	CardMoved        = "card.moved"
	MemberAdded      = "member.added"
	MemberUpdated    = "member.updated"
	MemberRemoved    = "member.removed"
)

// Event is a committed change on one board.
type Event struct {
	Type    string          `json:"type"`
	BoardID uuid.UUID       `json:"boardId"`
	ActorID uuid.UUID       `json:"actorId"`
	Data    json.RawMessage `json:"data,omitempty"`
	Time    int64           `json:"time"`
}

// New builds an event with data encoded as JSON. A value that cannot be
// encoded leaves Data empty.
func New(typ string, boardID, actorID uuid.UUID, data any) Event {
	ev := Event{
		Type:    typ,
		BoardID: boardID,
		ActorID: actorID,
		Time:    time.Now().UnixMilli(),
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			ev.Data = raw
		}
	}
	return ev
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })
