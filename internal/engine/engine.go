// Package engine is the receptionist core: classify an incoming message,
// then either book an appointment or answer from the knowledge base via the
// chat-completion model. Channel adapters feed it canonical messages and
// render its canonical replies.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"receptionist/internal/business"
	"receptionist/internal/domain"
	"receptionist/internal/intent"
	"receptionist/internal/knowledge"
	"receptionist/internal/metrics"
	"receptionist/internal/schedule"
)

const confirmTimeLayout = "03:04 PM on January 02, 2006"

// Recorder is the optional history sink. A nil Recorder disables logging
// without changing any reply.
type Recorder interface {
	RecordExchange(ctx context.Context, msg domain.IncomingMessage, reply domain.Reply) error
	RecordBooking(ctx context.Context, booking domain.Booking, rawText string) error
}

// Engine wires the classifier and the two branches together.
type Engine struct {
	classifier *intent.Classifier
	parser     *schedule.Parser
	booker     domain.CalendarBooker
	completer  domain.Completer
	kb         *knowledge.Base
	profile    *business.Profile
	recorder   Recorder
	logger     *slog.Logger

	messages  func(channel string, it domain.Intent) *metrics.Counter
	bookings  *metrics.Counter
	failures  func(service string) *metrics.Counter
	durations *metrics.Histogram
}

type Config struct {
	Classifier *intent.Classifier
	Parser     *schedule.Parser
	Booker     domain.CalendarBooker
	Completer  domain.Completer
	Knowledge  *knowledge.Base
	Profile    *business.Profile
	Recorder   Recorder // optional
	Metrics    *metrics.Collector
	Logger     *slog.Logger
}

func New(cfg Config) *Engine {
	collector := cfg.Metrics
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Engine{
		classifier: cfg.Classifier,
		parser:     cfg.Parser,
		booker:     cfg.Booker,
		completer:  cfg.Completer,
		kb:         cfg.Knowledge,
		profile:    cfg.Profile,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		messages: func(channel string, it domain.Intent) *metrics.Counter {
			name := fmt.Sprintf("receptionist_messages_total{channel=%q,intent=%q}", channel, string(it))
			return collector.Counter(name, "Messages handled, by channel and intent.")
		},
		bookings: collector.Counter("receptionist_bookings_total", "Calendar events created."),
		failures: func(service string) *metrics.Counter {
			name := fmt.Sprintf("receptionist_upstream_errors_total{service=%q}", service)
			return collector.Counter(name, "Upstream API failures, by service.")
		},
		durations: collector.Histogram("receptionist_handle_duration_seconds", "End-to-end message handling time."),
	}
}

// Handle processes one message end to end. Upstream failures come back as
// *domain.UpstreamError; the adapter decides how to present them. A message
// with no recoverable appointment time is not a failure: the reply asks the
// user for a date and nothing is booked.
func (e *Engine) Handle(ctx context.Context, msg domain.IncomingMessage) (domain.Reply, error) {
	start := time.Now()
	defer func() { e.durations.Observe(time.Since(start)) }()

	it := e.classifier.Classify(msg.Text)
	e.messages(msg.Channel, it).Inc()

	e.logger.Info("handling message",
		"channel", msg.Channel,
		"intent", string(it),
		"text_len", len(msg.Text),
	)

	var (
		reply domain.Reply
		err   error
	)
	switch it {
	case domain.IntentAppointment:
		reply, err = e.handleAppointment(ctx, msg)
	default:
		reply, err = e.handleGeneral(ctx, msg)
	}
	if err != nil {
		if upstream, ok := err.(*domain.UpstreamError); ok {
			e.failures(upstream.Service).Inc()
		}
		return domain.Reply{Intent: it}, err
	}

	reply.Intent = it
	e.record(ctx, msg, reply)
	return reply, nil
}

func (e *Engine) handleAppointment(ctx context.Context, msg domain.IncomingMessage) (domain.Reply, error) {
	slot, ok := e.parser.Extract(msg.Text)
	if !ok {
		e.logger.Info("no date in appointment request, asking for one")
		return domain.Reply{Text: e.profile.ClarifyPrompt}, nil
	}

	if e.booker == nil {
		return domain.Reply{}, &domain.UpstreamError{Service: "calendar", Err: errors.New("calendar not configured")}
	}

	booking, err := e.booker.Book(ctx, domain.AppointmentRequest{
		Summary:  e.profile.AppointmentSummary,
		Start:    slot.Start,
		End:      slot.End,
		Timezone: e.profile.Timezone,
		RawText:  msg.Text,
	})
	if err != nil {
		return domain.Reply{}, err
	}

	e.bookings.Inc()
	if e.recorder != nil {
		if rerr := e.recorder.RecordBooking(ctx, *booking, msg.Text); rerr != nil {
			e.logger.Warn("failed to record booking", "error", rerr)
		}
	}

	text := fmt.Sprintf("Appointment booked for %s. Event ID: %s",
		booking.Start.Format(confirmTimeLayout), booking.EventID)
	return domain.Reply{Text: text, EventID: booking.EventID}, nil
}

func (e *Engine) handleGeneral(ctx context.Context, msg domain.IncomingMessage) (domain.Reply, error) {
	system := fmt.Sprintf("Knowledge base: %s\n%s", e.kb.Text(), e.profile.Persona)

	answer, err := e.completer.Complete(ctx, system, msg.Text)
	if err != nil {
		return domain.Reply{}, &domain.UpstreamError{Service: "llm", Err: err}
	}
	return domain.Reply{Text: answer}, nil
}

// record logs the exchange when history is enabled. Failures only warn:
// the log is not part of the reply path.
func (e *Engine) record(ctx context.Context, msg domain.IncomingMessage, reply domain.Reply) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordExchange(ctx, msg, reply); err != nil {
		e.logger.Warn("failed to record exchange", "error", err)
	}
}
