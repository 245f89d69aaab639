package event

import "time"

const TFADisabledDestination string = "tfa_disabled"
const TFADisabledDestinationConsumerNotification string = "tfa_disabled_notification"

type TFADisabledMessage struct {
	EventID     string    `json:"event_id"`
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email"`
	DeviceCount int       `json:"device_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}
