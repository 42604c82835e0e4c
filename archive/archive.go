// Package archive stores received chat messages in a SQLite database.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Travis-Britz/ircchat"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	channel   TEXT    NOT NULL,
	username  TEXT    NOT NULL,
	message   TEXT    NOT NULL,
	kind      TEXT    NOT NULL,
	color     TEXT    NOT NULL DEFAULT '',
	badges    TEXT    NOT NULL DEFAULT '',
	emotes    TEXT    NOT NULL DEFAULT '',
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_channel ON chat_messages (channel, timestamp);
`

// Record is one archived message.
type Record struct {
	ID        int64
	Channel   string
	Username  string
	Message   string
	Kind      string
	Color     string
	Badges    string // comma separated short status names
	Emotes    string // comma separated emote texts
	Timestamp time.Time
}

// Store is a message archive.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating the schema when needed.
// Use ":memory:" for a private in-memory archive.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite works best with a single connection; an in-memory database only exists on one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRecord flattens m, received in channel, into a Record.
func NewRecord(channel string, m *ircchat.ChatMessage) Record {
	var badges, emotes []string
	for _, st := range m.Author.Status {
		if st != nil {
			badges = append(badges, st.ShortName)
		}
	}
	for _, r := range m.Runs {
		if r.Kind == ircchat.RunImage {
			emotes = append(emotes, r.Text)
		}
	}
	return Record{
		Channel:   ircchat.ChannelName(channel),
		Username:  m.Author.Name.Text,
		Message:   m.Text(),
		Kind:      m.Kind.String(),
		Color:     m.Author.Name.Color,
		Badges:    strings.Join(badges, ","),
		Emotes:    strings.Join(emotes, ","),
		Timestamp: m.Timestamp.UTC(),
	}
}

// Insert archives m as received in channel and returns the new record's id.
func (s *Store) Insert(ctx context.Context, channel string, m *ircchat.ChatMessage) (int64, error) {
	r := NewRecord(channel, m)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (channel, username, message, kind, color, badges, emotes, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Channel, r.Username, r.Message, r.Kind, r.Color, r.Badges, r.Emotes, r.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("insert chat message: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit of the newest messages of channel, oldest first.
func (s *Store) Recent(ctx context.Context, channel string, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel, username, message, kind, color, badges, emotes, timestamp
		FROM (
			SELECT * FROM chat_messages WHERE channel = ? ORDER BY timestamp DESC, id DESC LIMIT ?
		) ORDER BY timestamp ASC, id ASC`,
		ircchat.ChannelName(channel), limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Channel, &r.Username, &r.Message, &r.Kind, &r.Color, &r.Badges, &r.Emotes, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
