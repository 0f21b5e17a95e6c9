package webhookevent

import "time"

// ProcessedEvent is a row of the optional processed-event ledger
type ProcessedEvent struct {
	Provider    string    `db:"provider" json:"provider"`
	EventID     string    `db:"event_id" json:"event_id"`
	EventType   string    `db:"event_type" json:"event_type"`
	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`
}
