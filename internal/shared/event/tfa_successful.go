package event

import "time"

const TFASuccessfulDestination string = "tfa_successful"
const TFASuccessfulDestinationConsumerLastLogin string = "tfa_successful_last_login"

type TFASuccessfulMessage struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	DeviceID   string    `json:"device_id"`
	SessionID  string    `json:"session_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
