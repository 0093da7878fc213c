// Package store provides storage backends for PAU.
//
// This file implements an SQLite-backed store for profiles, channel
// identities, message records and delivery receipts.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pauhq/pau/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	slog.Debug("SQLite database opened")

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	slog.Debug("SQLite ping successful")

	// Run migrations to ensure tables exist
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// FindProfileByChannel resolves a (channel, identifier) pair to its profile.
func (s *SQLiteStore) FindProfileByChannel(channel models.ChannelKind, channelID string) (*models.Profile, error) {
	var id string
	err := s.db.QueryRow(`SELECT profile_id FROM channel_identities WHERE channel = ? AND channel_id = ?`, channel, channelID).Scan(&id)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore.FindProfileByChannel: identity unknown", "channel", channel, "channelID", channelID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.FindProfileByChannel: lookup failed", "error", err, "channel", channel)
		return nil, fmt.Errorf("failed to resolve channel identity: %w", err)
	}
	return s.GetProfile(id)
}

// GetProfile reads a full profile by its stable ID, including channel identities.
func (s *SQLiteStore) GetProfile(id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRow(`SELECT id, first_name, last_name, email, language_code, state, onboarding_step, introduction_done, created_at, updated_at FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.LanguageCode, &p.State, &p.Step, &p.IntroductionDone, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetProfile: query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT channel, channel_id FROM channel_identities WHERE profile_id = ?`, id)
	if err != nil {
		slog.Error("SQLiteStore.GetProfile: identities query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query channel identities for %s: %w", id, err)
	}
	defer rows.Close()
	p.ChannelIdentities = make(map[models.ChannelKind]string)
	for rows.Next() {
		var channel models.ChannelKind
		var channelID string
		if err := rows.Scan(&channel, &channelID); err != nil {
			slog.Error("SQLiteStore.GetProfile: identity scan failed", "error", err, "id", id)
			return nil, fmt.Errorf("failed to scan channel identity row: %w", err)
		}
		p.ChannelIdentities[channel] = channelID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channel identity rows: %w", err)
	}
	slog.Debug("SQLiteStore.GetProfile: succeeded", "id", id, "identities", len(p.ChannelIdentities))
	return &p, nil
}

// CreateProfile persists a new profile together with its channel identities.
func (s *SQLiteStore) CreateProfile(p *models.Profile) error {
	_, err := s.db.Exec(`INSERT INTO profiles (id, first_name, last_name, email, language_code, state, onboarding_step, introduction_done, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.LanguageCode, p.State, p.Step, p.IntroductionDone, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore.CreateProfile: insert failed", "error", err, "id", p.ID)
		return fmt.Errorf("failed to insert profile %s: %w", p.ID, err)
	}
	for channel, channelID := range p.ChannelIdentities {
		if err := s.BindChannelIdentity(p.ID, channel, channelID); err != nil {
			return err
		}
	}
	slog.Debug("SQLiteStore.CreateProfile: succeeded", "id", p.ID)
	return nil
}

// UpdateProfileField writes one directly writable field.
func (s *SQLiteStore) UpdateProfileField(id string, field models.ProfileField, value string) error {
	col, ok := profileColumns[field]
	if !ok {
		slog.Error("SQLiteStore.UpdateProfileField: unknown field", "id", id, "field", field)
		return fmt.Errorf("unknown profile field %q", field)
	}
	res, err := s.db.Exec(`UPDATE profiles SET `+col+` = ?, updated_at = ? WHERE id = ?`, value, time.Now().UTC(), id)
	if err != nil {
		slog.Error("SQLiteStore.UpdateProfileField: update failed", "error", err, "id", id, "field", field)
		return fmt.Errorf("failed to update field %s for profile %s: %w", field, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	slog.Debug("SQLiteStore.UpdateProfileField: succeeded", "id", id, "field", field)
	return nil
}

// BindChannelIdentity records that a (channel, identifier) pair belongs to
// the profile. A pair already bound elsewhere is left untouched.
func (s *SQLiteStore) BindChannelIdentity(id string, channel models.ChannelKind, channelID string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO channel_identities (channel, channel_id, profile_id) VALUES (?, ?, ?)`,
		channel, channelID, id)
	if err != nil {
		slog.Error("SQLiteStore.BindChannelIdentity: insert failed", "error", err, "id", id, "channel", channel)
		return fmt.Errorf("failed to bind %s identity for profile %s: %w", channel, id, err)
	}
	slog.Debug("SQLiteStore.BindChannelIdentity: succeeded", "id", id, "channel", channel)
	return nil
}

// SaveConversationState persists the state machine outcome of one turn.
func (s *SQLiteStore) SaveConversationState(id string, state models.State, step models.Step, introductionDone bool) error {
	res, err := s.db.Exec(`UPDATE profiles SET state = ?, onboarding_step = ?, introduction_done = ?, updated_at = ? WHERE id = ?`,
		state, step, introductionDone, time.Now().UTC(), id)
	if err != nil {
		slog.Error("SQLiteStore.SaveConversationState: update failed", "error", err, "id", id)
		return fmt.Errorf("failed to save conversation state for profile %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	slog.Debug("SQLiteStore.SaveConversationState: succeeded", "id", id, "state", state, "step", step)
	return nil
}

// AddMessageRecord appends an audit entry for a processed message.
func (s *SQLiteStore) AddMessageRecord(rec models.MessageRecord) error {
	_, err := s.db.Exec(`INSERT INTO messages (profile_id, channel, direction, body, time) VALUES (?, ?, ?, ?, ?)`,
		rec.ProfileID, rec.Channel, rec.Direction, rec.Body, rec.Time)
	if err != nil {
		slog.Error("SQLiteStore.AddMessageRecord: insert failed", "error", err, "profileID", rec.ProfileID)
		return fmt.Errorf("failed to insert message record for %s: %w", rec.ProfileID, err)
	}
	return nil
}

// AddReceipt records the outcome of one delivery attempt.
func (s *SQLiteStore) AddReceipt(r models.Receipt) error {
	_, err := s.db.Exec(`INSERT INTO receipts (profile_id, channel, status, time) VALUES (?, ?, ?, ?)`,
		r.ProfileID, r.Channel, r.Status, r.Time)
	if err != nil {
		slog.Error("SQLiteStore.AddReceipt: insert failed", "error", err, "profileID", r.ProfileID)
		return fmt.Errorf("failed to insert receipt for %s: %w", r.ProfileID, err)
	}
	slog.Debug("SQLiteStore.AddReceipt: succeeded", "profileID", r.ProfileID, "status", r.Status)
	return nil
}

// Schema reports the full profile surface; the SQLite schema stores every
// known field and channel.
func (s *SQLiteStore) Schema() ProfileSchema {
	return DefaultProfileSchema()
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	} else {
		slog.Debug("SQLite database connection closed successfully")
	}
	return err
}
