package domain

import "time"

// Channel names. Every adapter reports one of these on the messages it
// produces so the engine and the history store can attribute traffic.
const (
	ChannelChat     = "chat"
	ChannelSMS      = "sms"
	ChannelVoice    = "voice"
	ChannelTelegram = "telegram"
	ChannelCLI      = "cli"
)

// Intent is the routing decision derived from message text.
type Intent string

const (
	IntentAppointment Intent = "appointment"
	IntentGeneral     Intent = "general"
)

// IncomingMessage is the canonical inbound message every channel adapter
// normalizes into. It lives for exactly one request.
type IncomingMessage struct {
	Channel      string
	ChatID       string
	Text         string
	RecordingURL string // set only for voice recordings
	ReceivedAt   time.Time
}

// Reply is the canonical response handed back to the channel adapter,
// which renders it into the channel's wire format.
type Reply struct {
	Text     string
	AudioURL string // set when the reply was synthesized to speech
	Intent   Intent
	EventID  string // calendar event ID when a booking happened
}
