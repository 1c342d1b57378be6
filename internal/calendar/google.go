// Package calendar writes appointment events to Google Calendar using a
// service-account credential.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"receptionist/internal/domain"
)

// GoogleBooker implements domain.CalendarBooker against the Calendar v3 API.
type GoogleBooker struct {
	events     *gcal.EventsService
	calendarID string
	logger     *slog.Logger
}

type GoogleConfig struct {
	CredentialsFile string
	CalendarID      string // defaults to "primary"
	Logger          *slog.Logger
}

// NewGoogleBooker builds the calendar client. The credentials file is read
// once here; an unreadable or malformed file fails startup rather than the
// first booking.
func NewGoogleBooker(ctx context.Context, cfg GoogleConfig) (*GoogleBooker, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("calendar credentials file not configured")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &GoogleBooker{
		events:     svc.Events,
		calendarID: cfg.CalendarID,
		logger:     cfg.Logger,
	}, nil
}

// Book inserts one event and returns its identifier. Every call writes a new
// event; the caller owns any dedup policy.
func (g *GoogleBooker) Book(ctx context.Context, req domain.AppointmentRequest) (*domain.Booking, error) {
	event := &gcal.Event{
		Summary: req.Summary,
		Start: &gcal.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: req.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: req.Timezone,
		},
	}

	created, err := g.events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, &domain.UpstreamError{Service: "calendar", Err: err}
	}

	g.logger.Info("calendar event created",
		"event_id", created.Id,
		"start", req.Start.Format(time.RFC3339),
	)

	return &domain.Booking{
		EventID:  created.Id,
		Start:    req.Start,
		End:      req.End,
		Timezone: req.Timezone,
	}, nil
}
