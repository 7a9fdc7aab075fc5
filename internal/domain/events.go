package domain

import "time"

// EventType represents the type of run event
type EventType string

const (
	EventStart        EventType = "start"
	EventItemComplete EventType = "item_complete"
	EventItemSkipped  EventType = "item_skipped"
	EventError        EventType = "error"
	EventComplete     EventType = "complete"
)

// RunEvent reports the progress of an extraction run, one event per item plus start and complete.
type RunEvent struct {
	Type      EventType
	Item      string // file name or page file name
	Index     int    // 1-based position of Item
	Total     int
	Err       error
	Timestamp time.Time
}
