// Package sse implements Server-Sent Events for pushing icon and stylesheet changes to admin clients.
package sse

import (
	"time"

	"github.com/boardicon/boardicon-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventStylesheetChanged is sent after every successful regeneration.
	EventStylesheetChanged EventType = "stylesheet.changed"

	// EventIconCreated represents an uploaded icon being saved.
	EventIconCreated EventType = "icon.created"
	// EventIconUpdated represents a title or file change of an uploaded icon.
	EventIconUpdated EventType = "icon.updated"
	// EventIconDeleted represents an uploaded icon being removed.
	EventIconDeleted EventType = "icon.deleted"

	// EventBoardIconsUpdated represents a change of a node's icon assignments.
	EventBoardIconsUpdated EventType = "board.icons_updated"
	// EventDefaultsUpdated represents a change of a global default slot.
	EventDefaultsUpdated EventType = "defaults.updated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// StylesheetEventData is the data payload for stylesheet.changed events.
type StylesheetEventData struct {
	WrittenAt  time.Time `json:"written_at"`
	Generation string    `json:"generation"`
	Hash       string    `json:"hash"`
	URL        string    `json:"url,omitempty"`
	Size       int64     `json:"size"`
	Changed    bool      `json:"changed"`
}

// IconEventData is the data payload for icon.created and icon.updated events.
type IconEventData struct {
	Icon *domain.Icon `json:"icon"`
	URL  string       `json:"url"`
}

// IconDeletedEventData is the data payload for icon.deleted events.
type IconDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	IconID    int64     `json:"icon_id"`
}

// BoardIconsEventData is the data payload for board.icons_updated events.
type BoardIconsEventData struct {
	Icon    domain.Assignment `json:"icon"`
	IconNew domain.Assignment `json:"icon_new"`
	BoardID int64             `json:"board_id"`
}

// DefaultsEventData is the data payload for defaults.updated events.
type DefaultsEventData struct {
	Slot  domain.DefaultSlot `json:"slot"`
	Glyph string             `json:"glyph"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewStylesheetChangedEvent creates a stylesheet.changed event.
func NewStylesheetChangedEvent(data StylesheetEventData) Event {
	return Event{Type: EventStylesheetChanged, Data: data, Timestamp: time.Now()}
}

// NewIconCreatedEvent creates an icon.created event.
func NewIconCreatedEvent(icon *domain.Icon, url string) Event {
	return Event{Type: EventIconCreated, Data: IconEventData{Icon: icon, URL: url}, Timestamp: time.Now()}
}

// NewIconUpdatedEvent creates an icon.updated event.
func NewIconUpdatedEvent(icon *domain.Icon, url string) Event {
	return Event{Type: EventIconUpdated, Data: IconEventData{Icon: icon, URL: url}, Timestamp: time.Now()}
}

// NewIconDeletedEvent creates an icon.deleted event.
func NewIconDeletedEvent(iconID int64) Event {
	now := time.Now()
	return Event{
		Type:      EventIconDeleted,
		Data:      IconDeletedEventData{IconID: iconID, DeletedAt: now},
		Timestamp: now,
	}
}

// NewBoardIconsUpdatedEvent creates a board.icons_updated event.
func NewBoardIconsUpdatedEvent(board *domain.Board) Event {
	return Event{
		Type:      EventBoardIconsUpdated,
		Data:      BoardIconsEventData{BoardID: board.ID, Icon: board.Icon, IconNew: board.IconNew},
		Timestamp: time.Now(),
	}
}

// NewDefaultsUpdatedEvent creates a defaults.updated event.
func NewDefaultsUpdatedEvent(slot domain.DefaultSlot, glyph string) Event {
	return Event{
		Type:      EventDefaultsUpdated,
		Data:      DefaultsEventData{Slot: slot, Glyph: glyph},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Data: HeartbeatEventData{ServerTime: now}, Timestamp: now}
}
