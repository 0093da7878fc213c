// Package store provides storage backends for PAU.
//
// This file implements a PostgreSQL-backed store for profiles, channel
// identities, message records and delivery receipts.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
	"github.com/pauhq/pau/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// profileColumns maps directly writable profile fields to their columns.
// Only whitelisted fields ever reach an UPDATE statement.
var profileColumns = map[models.ProfileField]string{
	models.FieldFirstName:    "first_name",
	models.FieldLastName:     "last_name",
	models.FieldEmail:        "email",
	models.FieldLanguageCode: "language_code",
}

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	slog.Debug("Postgres database opened")

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Postgres ping successful")
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// FindProfileByChannel resolves a (channel, identifier) pair to its profile.
func (s *PostgresStore) FindProfileByChannel(channel models.ChannelKind, channelID string) (*models.Profile, error) {
	var id string
	err := s.db.QueryRow(`SELECT profile_id FROM channel_identities WHERE channel = $1 AND channel_id = $2`, channel, channelID).Scan(&id)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore.FindProfileByChannel: identity unknown", "channel", channel, "channelID", channelID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.FindProfileByChannel: lookup failed", "error", err, "channel", channel)
		return nil, fmt.Errorf("failed to resolve channel identity: %w", err)
	}
	return s.GetProfile(id)
}

// GetProfile reads a full profile by its stable ID, including channel identities.
func (s *PostgresStore) GetProfile(id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRow(`SELECT id, first_name, last_name, email, language_code, state, onboarding_step, introduction_done, created_at, updated_at FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.LanguageCode, &p.State, &p.Step, &p.IntroductionDone, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetProfile: query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT channel, channel_id FROM channel_identities WHERE profile_id = $1`, id)
	if err != nil {
		slog.Error("PostgresStore.GetProfile: identities query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query channel identities for %s: %w", id, err)
	}
	defer rows.Close()
	p.ChannelIdentities = make(map[models.ChannelKind]string)
	for rows.Next() {
		var channel models.ChannelKind
		var channelID string
		if err := rows.Scan(&channel, &channelID); err != nil {
			slog.Error("PostgresStore.GetProfile: identity scan failed", "error", err, "id", id)
			return nil, fmt.Errorf("failed to scan channel identity row: %w", err)
		}
		p.ChannelIdentities[channel] = channelID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channel identity rows: %w", err)
	}
	slog.Debug("PostgresStore.GetProfile: succeeded", "id", id, "identities", len(p.ChannelIdentities))
	return &p, nil
}

// CreateProfile persists a new profile together with its channel identities.
func (s *PostgresStore) CreateProfile(p *models.Profile) error {
	_, err := s.db.Exec(`INSERT INTO profiles (id, first_name, last_name, email, language_code, state, onboarding_step, introduction_done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.LanguageCode, p.State, p.Step, p.IntroductionDone, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore.CreateProfile: insert failed", "error", err, "id", p.ID)
		return fmt.Errorf("failed to insert profile %s: %w", p.ID, err)
	}
	for channel, channelID := range p.ChannelIdentities {
		if err := s.BindChannelIdentity(p.ID, channel, channelID); err != nil {
			return err
		}
	}
	slog.Debug("PostgresStore.CreateProfile: succeeded", "id", p.ID)
	return nil
}

// UpdateProfileField writes one directly writable field.
func (s *PostgresStore) UpdateProfileField(id string, field models.ProfileField, value string) error {
	col, ok := profileColumns[field]
	if !ok {
		slog.Error("PostgresStore.UpdateProfileField: unknown field", "id", id, "field", field)
		return fmt.Errorf("unknown profile field %q", field)
	}
	res, err := s.db.Exec(`UPDATE profiles SET `+col+` = $1, updated_at = $2 WHERE id = $3`, value, time.Now().UTC(), id)
	if err != nil {
		slog.Error("PostgresStore.UpdateProfileField: update failed", "error", err, "id", id, "field", field)
		return fmt.Errorf("failed to update field %s for profile %s: %w", field, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	slog.Debug("PostgresStore.UpdateProfileField: succeeded", "id", id, "field", field)
	return nil
}

// BindChannelIdentity records that a (channel, identifier) pair belongs to
// the profile. A pair already bound elsewhere is left untouched.
func (s *PostgresStore) BindChannelIdentity(id string, channel models.ChannelKind, channelID string) error {
	_, err := s.db.Exec(`INSERT INTO channel_identities (channel, channel_id, profile_id) VALUES ($1, $2, $3)
		ON CONFLICT (channel, channel_id) DO NOTHING`, channel, channelID, id)
	if err != nil {
		slog.Error("PostgresStore.BindChannelIdentity: insert failed", "error", err, "id", id, "channel", channel)
		return fmt.Errorf("failed to bind %s identity for profile %s: %w", channel, id, err)
	}
	slog.Debug("PostgresStore.BindChannelIdentity: succeeded", "id", id, "channel", channel)
	return nil
}

// SaveConversationState persists the state machine outcome of one turn.
func (s *PostgresStore) SaveConversationState(id string, state models.State, step models.Step, introductionDone bool) error {
	res, err := s.db.Exec(`UPDATE profiles SET state = $1, onboarding_step = $2, introduction_done = $3, updated_at = $4 WHERE id = $5`,
		state, step, introductionDone, time.Now().UTC(), id)
	if err != nil {
		slog.Error("PostgresStore.SaveConversationState: update failed", "error", err, "id", id)
		return fmt.Errorf("failed to save conversation state for profile %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	slog.Debug("PostgresStore.SaveConversationState: succeeded", "id", id, "state", state, "step", step)
	return nil
}

// AddMessageRecord appends an audit entry for a processed message.
func (s *PostgresStore) AddMessageRecord(rec models.MessageRecord) error {
	_, err := s.db.Exec(`INSERT INTO messages (profile_id, channel, direction, body, time) VALUES ($1, $2, $3, $4, $5)`,
		rec.ProfileID, rec.Channel, rec.Direction, rec.Body, rec.Time)
	if err != nil {
		slog.Error("PostgresStore.AddMessageRecord: insert failed", "error", err, "profileID", rec.ProfileID)
		return fmt.Errorf("failed to insert message record for %s: %w", rec.ProfileID, err)
	}
	return nil
}

// AddReceipt records the outcome of one delivery attempt.
func (s *PostgresStore) AddReceipt(r models.Receipt) error {
	_, err := s.db.Exec(`INSERT INTO receipts (profile_id, channel, status, time) VALUES ($1, $2, $3, $4)`,
		r.ProfileID, r.Channel, r.Status, r.Time)
	if err != nil {
		slog.Error("PostgresStore.AddReceipt: insert failed", "error", err, "profileID", r.ProfileID)
		return fmt.Errorf("failed to insert receipt for %s: %w", r.ProfileID, err)
	}
	slog.Debug("PostgresStore.AddReceipt: succeeded", "profileID", r.ProfileID, "status", r.Status)
	return nil
}

// Schema reports the full profile surface; the Postgres schema stores every
// known field and channel.
func (s *PostgresStore) Schema() ProfileSchema {
	return DefaultProfileSchema()
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	} else {
		slog.Debug("PostgreSQL database connection closed successfully")
	}
	return err
}
