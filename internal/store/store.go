// Package store keeps the organization's channels, messages and pinned
// documents in SQLite and serves the read queries the agents ground on.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"huddle/internal/domain"
	"huddle/internal/logging"
)

// timeLayout is fixed width so ORDER BY on the text column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// SQLiteStore implements domain.OrgStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ domain.OrgStore = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqlLimit maps "no limit" (<= 0) onto SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// PublicChannels lists every public channel by name.
func (s *SQLiteStore) PublicChannels(ctx context.Context) ([]domain.ChannelInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(description, ''), is_public
		 FROM channels WHERE is_public = 1 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var out []domain.ChannelInfo
	for rows.Next() {
		var c domain.ChannelInfo
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Public); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentMessages returns messages from the given channels, newest first.
// No channel ids means no messages; the query is skipped.
func (s *SQLiteStore) RecentMessages(ctx context.Context, channelIDs []string, limit int) ([]domain.ContextMessage, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(channelIDs)), ",")
	args := make([]any, 0, len(channelIDs)+1)
	for _, id := range channelIDs {
		args = append(args, id)
	}
	args = append(args, sqlLimit(limit))

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.name, COALESCE(NULLIF(u.display_name, ''), u.username, ''), m.content, m.created_at
		 FROM messages m
		 JOIN channels c ON c.id = m.channel_id
		 LEFT JOIN users u ON u.id = m.user_id
		 WHERE m.channel_id IN (`+placeholders+`)
		 ORDER BY m.created_at DESC, m.rowid DESC
		 LIMIT ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []domain.ContextMessage
	for rows.Next() {
		var (
			m       domain.ContextMessage
			created string
		)
		if err := rows.Scan(&m.ChannelName, &m.AuthorName, &m.Content, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// PinnedDocuments returns pinned documents, newest first.
func (s *SQLiteStore) PinnedDocuments(ctx context.Context, limit int) ([]domain.PinnedDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.title, d.content, COALESCE(c.name, ''),
		        COALESCE(NULLIF(u.display_name, ''), u.username, ''), d.created_at
		 FROM pinned_documents d
		 LEFT JOIN channels c ON c.id = d.channel_id
		 LEFT JOIN users u ON u.id = d.user_id
		 ORDER BY d.created_at DESC, d.rowid DESC
		 LIMIT ?`, sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []domain.PinnedDocument
	for rows.Next() {
		var (
			d       domain.PinnedDocument
			created string
		)
		if err := rows.Scan(&d.Title, &d.Content, &d.ChannelName, &d.AuthorName, &created); err != nil {
			return nil, err
		}
		d.CreatedAt = parseTime(created)
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Writes (seeding and the CLI) ---

type User struct {
	ID          string
	Username    string
	DisplayName string
}

type Channel struct {
	ID          string
	Name        string
	Description string
	Public      bool
}

type Message struct {
	ID        string
	ChannelID string
	UserID    string
	Content   string
	CreatedAt time.Time
}

type Document struct {
	ID        string
	ChannelID string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func upsertUser(ctx context.Context, e execer, u User) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO users (id, username, display_name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET username = excluded.username, display_name = excluded.display_name`,
		newID(u.ID), u.Username, u.DisplayName, formatTime(time.Time{}),
	)
	return err
}

func upsertChannel(ctx context.Context, e execer, c Channel) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO channels (id, name, description, is_public, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description, is_public = excluded.is_public`,
		newID(c.ID), c.Name, c.Description, c.Public, formatTime(time.Time{}),
	)
	return err
}

func insertMessage(ctx context.Context, e execer, m Message) error {
	_, err := e.ExecContext(ctx,
		`INSERT OR REPLACE INTO messages (id, channel_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		newID(m.ID), m.ChannelID, nullable(m.UserID), m.Content, formatTime(m.CreatedAt),
	)
	return err
}

func insertDocument(ctx context.Context, e execer, d Document) error {
	_, err := e.ExecContext(ctx,
		`INSERT OR REPLACE INTO pinned_documents (id, channel_id, user_id, title, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		newID(d.ID), nullable(d.ChannelID), nullable(d.UserID), d.Title, d.Content, formatTime(d.CreatedAt),
	)
	return err
}

func (s *SQLiteStore) UpsertUser(ctx context.Context, u User) error {
	return upsertUser(ctx, s.db, u)
}

func (s *SQLiteStore) UpsertChannel(ctx context.Context, c Channel) error {
	return upsertChannel(ctx, s.db, c)
}

func (s *SQLiteStore) AddMessage(ctx context.Context, m Message) error {
	return insertMessage(ctx, s.db, m)
}

func (s *SQLiteStore) AddDocument(ctx context.Context, d Document) error {
	return insertDocument(ctx, s.db, d)
}

// Counts reports row totals, for the status command.
type Counts struct {
	Users     int
	Channels  int
	Messages  int
	Documents int
}

func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM users), (SELECT COUNT(*) FROM channels),
		        (SELECT COUNT(*) FROM messages), (SELECT COUNT(*) FROM pinned_documents)`,
	).Scan(&c.Users, &c.Channels, &c.Messages, &c.Documents)
	return c, err
}

// Ping verifies the database is reachable, for health checks.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
