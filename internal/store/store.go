// Package store provides storage backends for PAU profiles.
//
// It includes PostgreSQL and SQLite backed stores plus an in-memory store
// used by tests and local development.
package store

import "github.com/pauhq/pau/internal/models"

// Store is the persistence abstraction for profiles, keyed by channel
// identity. All writes are per-field: a turn applies each extracted field
// independently so one failing field never aborts its siblings.
type Store interface {
	// FindProfileByChannel resolves a (channel, identifier) pair to its
	// profile. Returns (nil, nil) when the identity is unknown.
	FindProfileByChannel(channel models.ChannelKind, channelID string) (*models.Profile, error)

	// GetProfile reads a full profile by its stable ID, including channel
	// identities. Returns (nil, nil) when absent.
	GetProfile(id string) (*models.Profile, error)

	// CreateProfile persists a new profile together with any channel
	// identities already present on it.
	CreateProfile(p *models.Profile) error

	// UpdateProfileField writes one directly writable field.
	UpdateProfileField(id string, field models.ProfileField, value string) error

	// BindChannelIdentity records that a (channel, identifier) pair belongs
	// to the profile. An identifier already bound elsewhere is left untouched.
	BindChannelIdentity(id string, channel models.ChannelKind, channelID string) error

	// SaveConversationState persists the state machine outcome of one turn.
	SaveConversationState(id string, state models.State, step models.Step, introductionDone bool) error

	// AddMessageRecord appends an audit entry for a processed message.
	AddMessageRecord(rec models.MessageRecord) error

	// AddReceipt records the outcome of one delivery attempt.
	AddReceipt(r models.Receipt) error

	// Schema describes which optional fields and channels this backend
	// supports, so the merger can skip unsupported writes up front.
	Schema() ProfileSchema

	// Close releases the underlying resources.
	Close() error
}

// ProfileSchema declares the profile surface a backend supports. The merger
// consults it before writing instead of probing columns.
type ProfileSchema struct {
	Fields   map[models.ProfileField]bool
	Channels map[models.ChannelKind]bool
}

// DefaultProfileSchema returns a schema supporting every known field and channel.
func DefaultProfileSchema() ProfileSchema {
	return ProfileSchema{
		Fields: map[models.ProfileField]bool{
			models.FieldFirstName:    true,
			models.FieldLastName:     true,
			models.FieldEmail:        true,
			models.FieldLanguageCode: true,
		},
		Channels: map[models.ChannelKind]bool{
			models.ChannelWhatsApp:  true,
			models.ChannelInstagram: true,
			models.ChannelEmail:     true,
			models.ChannelFacebook:  true,
			models.ChannelTikTok:    true,
		},
	}
}

// SupportsField reports whether the backend can store the given field.
func (s ProfileSchema) SupportsField(f models.ProfileField) bool {
	return s.Fields[f]
}

// SupportsChannel reports whether the backend can store a handle for the
// given channel.
func (s ProfileSchema) SupportsChannel(c models.ChannelKind) bool {
	return s.Channels[c]
}
