package domain

import "time"

// EventType identifies a registry state change
type EventType string

const (
	EventTypeItemCreated EventType = "item.created"
	EventTypeItemDone    EventType = "item.done"
)

// TopicItemEvents is the topic all item events are published on
const TopicItemEvents = "item.events"

// Event describes a successful change to a registered item
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	ItemID    int64                  `json:"item_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
