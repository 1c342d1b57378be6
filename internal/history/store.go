// Package history persists a log of handled exchanges and bookings.
// The log is observational: nothing in the request path reads it, so the
// engine behaves identically with history disabled.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"receptionist/internal/domain"
)

// Exchange is one handled message and its reply.
type Exchange struct {
	ID        int64
	Channel   string
	ChatID    string
	Inbound   string
	Reply     string
	Intent    string
	EventID   string
	CreatedAt time.Time
}

// BookingRecord is one calendar write.
type BookingRecord struct {
	ID        int64
	EventID   string
	StartAt   time.Time
	EndAt     time.Time
	RawText   string
	CreatedAt time.Time
}

// Store implements the exchange/booking log on SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite wants a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		channel     TEXT NOT NULL,
		chat_id     TEXT,
		inbound     TEXT NOT NULL,
		reply       TEXT,
		intent      TEXT,
		event_id    TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_time ON exchanges(created_at);
	CREATE INDEX IF NOT EXISTS idx_exchanges_channel ON exchanges(channel, created_at);

	CREATE TABLE IF NOT EXISTS bookings (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id    TEXT NOT NULL,
		start_at    DATETIME NOT NULL,
		end_at      DATETIME NOT NULL,
		raw_text    TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordExchange appends one handled message to the log.
func (s *Store) RecordExchange(ctx context.Context, msg domain.IncomingMessage, reply domain.Reply) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (channel, chat_id, inbound, reply, intent, event_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.Channel, msg.ChatID, msg.Text, reply.Text, string(reply.Intent), reply.EventID, time.Now(),
	)
	return err
}

// RecordBooking appends one calendar write to the log.
func (s *Store) RecordBooking(ctx context.Context, booking domain.Booking, rawText string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (event_id, start_at, end_at, raw_text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		booking.EventID, booking.Start, booking.End, rawText, time.Now(),
	)
	return err
}

// RecentExchanges returns the newest exchanges, most recent first.
func (s *Store) RecentExchanges(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, chat_id, inbound, reply, intent, event_id, created_at
		 FROM exchanges ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		var chatID, reply, intent, eventID sql.NullString
		if err := rows.Scan(&e.ID, &e.Channel, &chatID, &e.Inbound, &reply, &intent, &eventID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ChatID = chatID.String
		e.Reply = reply.String
		e.Intent = intent.String
		e.EventID = eventID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpcomingBookings returns bookings that start after now, soonest first.
func (s *Store) UpcomingBookings(ctx context.Context, limit int) ([]BookingRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, start_at, end_at, raw_text, created_at
		 FROM bookings WHERE start_at > ? ORDER BY start_at ASC LIMIT ?`,
		time.Now(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookingRecord
	for rows.Next() {
		var b BookingRecord
		var raw sql.NullString
		if err := rows.Scan(&b.ID, &b.EventID, &b.StartAt, &b.EndAt, &raw, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.RawText = raw.String
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
