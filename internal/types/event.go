package types

import "time"

// EventKind is the closed set of presence transitions parsed from chat
// notifications.
type EventKind string

const (
	EventCameraOn  EventKind = "camera_on"
	EventCameraOff EventKind = "camera_off"
	EventJoin      EventKind = "join"
	EventLeave     EventKind = "leave"
)

// Origin marks whether an event arrived over the live push subscription or
// was replayed from history. Replayed events never trigger live-only side
// effects such as status-change broadcasts.
type Origin int

const (
	OriginLive Origin = iota
	OriginReplay
)

func (o Origin) String() string {
	if o == OriginReplay {
		return "replay"
	}
	return "live"
}

// Event is the normalized form of one chat notification. Ephemeral; never
// persisted.
type Event struct {
	Kind          EventKind
	RawSubject    string
	ParticipantID int64 // zero when unresolved
	Timestamp     time.Time
	Origin        Origin
}

// StatusUpdate is broadcast to dashboard viewers when a live transition is
// applied.
type StatusUpdate struct {
	ParticipantID int64     `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Kind          EventKind `json:"event_type"`
	CameraOn      bool      `json:"camera_on"`
	Timestamp     time.Time `json:"timestamp"`
}

// AlertKind identifies a notification intent emitted by the alert engine.
type AlertKind string

const (
	AlertCameraOff       AlertKind = "camera_off"
	AlertCameraOffAdmin  AlertKind = "camera_off_admin"
	AlertLeftTooLong     AlertKind = "left_too_long"
	AlertAbsenceReminder AlertKind = "absence_reminder"
	AlertReturnRequest   AlertKind = "return_request"
)
