package domain

import (
	"context"
	"io"
)

// Completer answers a general question with a two-message exchange
// (system prompt + user message) against a chat-completion model.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Healthy(ctx context.Context) error
}

// CalendarBooker writes one event per call to an external calendar.
// There is no idempotency guard: booking the same slot twice creates
// two events.
type CalendarBooker interface {
	Book(ctx context.Context, req AppointmentRequest) (*Booking, error)
}

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Synthesizer converts reply text into audio (MP3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}
