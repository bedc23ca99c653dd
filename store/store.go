// Package store provides the SQLite library for vidcat: channel
// subscriptions and named dataset snapshots.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/robertmeta/vidcat/migrations"
	"github.com/robertmeta/vidcat/model"
)

const timeLayout = time.RFC3339

var (
	// ErrNotFound is returned when a channel or dataset does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrExists is returned when a channel with the same feed URL is
	// already subscribed.
	ErrExists = errors.New("store: already exists")
)

// Store manages the SQLite database.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (int64, error) {
	return migrations.Version(s.db)
}

// SaveChannel saves a channel subscription.
// If the channel has an ID of 0, it will be inserted. Otherwise, it will be updated.
func (s *Store) SaveChannel(ctx context.Context, c *model.Channel) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.ID == 0 {
		result, err := s.db.ExecContext(ctx,
			`INSERT INTO channels (channel_id, title, feed_url, category, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ChannelID, c.Title, c.FeedURL, c.Category, time.Now().UTC().Format(timeLayout),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrExists, c.FeedURL)
			}
			return fmt.Errorf("failed to insert channel: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
		c.ID = id
		return nil
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE channels SET channel_id = ?, title = ?, feed_url = ?, category = ? WHERE id = ?",
		c.ChannelID, c.Title, c.FeedURL, c.Category, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	return expectOne(result)
}

// ImportChannels subscribes to every channel whose feed URL is not yet
// present and returns how many were added.
func (s *Store) ImportChannels(ctx context.Context, channels []*model.Channel) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	added := 0
	for _, c := range channels {
		if err := c.Validate(); err != nil {
			return 0, err
		}
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO channels (channel_id, title, feed_url, category, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ChannelID, c.Title, c.FeedURL, c.Category, now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to import channel %s: %w", c.FeedURL, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// GetChannel retrieves a channel by ID.
func (s *Store) GetChannel(ctx context.Context, id int64) (*model.Channel, error) {
	c := &model.Channel{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, channel_id, title, feed_url, category FROM channels WHERE id = ?",
		id,
	).Scan(&c.ID, &c.ChannelID, &c.Title, &c.FeedURL, &c.Category)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return c, nil
}

// GetAllChannels retrieves all channels in subscription order.
func (s *Store) GetAllChannels(ctx context.Context) ([]*model.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, channel_id, title, feed_url, category FROM channels ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	channels := []*model.Channel{}
	for rows.Next() {
		c := &model.Channel{}
		if err := rows.Scan(&c.ID, &c.ChannelID, &c.Title, &c.FeedURL, &c.Category); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, c)
	}

	return channels, rows.Err()
}

// FeedURLs returns the feed URLs of all subscriptions in subscription order.
func (s *Store) FeedURLs(ctx context.Context) ([]string, error) {
	channels, err := s.GetAllChannels(ctx)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(channels))
	for _, c := range channels {
		urls = append(urls, c.FeedURL)
	}
	return urls, nil
}

// DeleteChannel removes a subscription.
func (s *Store) DeleteChannel(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM channels WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if err := expectOne(result); err != nil {
		return fmt.Errorf("channel %d: %w", id, err)
	}
	return nil
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
