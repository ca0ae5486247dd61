package types

import "time"

// Snapshot is the aggregate dashboard view, recomputed on demand. Counts
// exclude administrators.
type Snapshot struct {
	TotalActive       int       `json:"total_active"`
	CamerasOn         int       `json:"cameras_on"`
	CamerasOff        int       `json:"cameras_off"`
	LeftCount         int       `json:"left"`
	NotJoinedCount    int       `json:"not_joined"`
	ThresholdExceeded int       `json:"threshold_exceeded"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SystemLog is a broadcast-only operational event for the dashboard log
// stream.
type SystemLog struct {
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
