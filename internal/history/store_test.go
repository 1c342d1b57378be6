package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"receptionist/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListExchanges(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	msgs := []domain.IncomingMessage{
		{Channel: domain.ChannelChat, ChatID: "s1", Text: "What are your hours?"},
		{Channel: domain.ChannelSMS, ChatID: "+15125550100", Text: "schedule me for tomorrow at 10am"},
	}
	replies := []domain.Reply{
		{Text: "We open at 9.", Intent: domain.IntentGeneral},
		{Text: "Appointment booked.", Intent: domain.IntentAppointment, EventID: "evt_1"},
	}
	for i := range msgs {
		if err := s.RecordExchange(ctx, msgs[i], replies[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentExchanges(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Most recent first.
	if got[0].Channel != domain.ChannelSMS || got[0].EventID != "evt_1" {
		t.Errorf("unexpected first exchange: %+v", got[0])
	}
	if got[1].Intent != string(domain.IntentGeneral) {
		t.Errorf("intent = %q", got[1].Intent)
	}
}

func TestRecordAndListBookings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	past := domain.Booking{EventID: "old", Start: time.Now().Add(-48 * time.Hour), End: time.Now().Add(-47 * time.Hour)}
	future := domain.Booking{EventID: "soon", Start: time.Now().Add(24 * time.Hour), End: time.Now().Add(25 * time.Hour)}
	for _, b := range []domain.Booking{past, future} {
		if err := s.RecordBooking(ctx, b, "raw"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.UpcomingBookings(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].EventID != "soon" {
		t.Fatalf("upcoming = %+v, want only the future booking", got)
	}
}
