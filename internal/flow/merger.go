package flow

import (
	"fmt"
	"log/slog"

	"github.com/pauhq/pau/internal/models"
	"github.com/pauhq/pau/internal/store"
)

// mergeFieldOrder fixes the order in which extracted fields are applied.
var mergeFieldOrder = []models.ProfileField{
	models.FieldFirstName,
	models.FieldLastName,
	models.FieldEmail,
	models.FieldLanguageCode,
}

// ProfileMerger applies a sparse extraction to a profile with per-field,
// non-destructive writes. A failing field never aborts its siblings.
type ProfileMerger struct {
	store store.Store
}

// NewProfileMerger creates a merger backed by the given store.
func NewProfileMerger(st store.Store) *ProfileMerger {
	return &ProfileMerger{store: st}
}

// Apply writes every non-empty extracted field and channel handle, then
// re-reads the profile so the caller sees all changes from this turn.
// Single-field failures are logged and skipped; handles for the inbound
// channel itself or for an already bound channel are never overwritten.
func (m *ProfileMerger) Apply(p *models.Profile, ex models.Extraction, inbound models.ChannelKind) (*models.Profile, error) {
	if ex.IsEmpty() {
		return p, nil
	}
	schema := m.store.Schema()

	fields := ex.Fields()
	for _, field := range mergeFieldOrder {
		value, ok := fields[field]
		if !ok {
			continue
		}
		if !schema.SupportsField(field) {
			slog.Debug("ProfileMerger.Apply: field unsupported by schema, skipping", "profileID", p.ID, "field", field)
			continue
		}
		if err := m.store.UpdateProfileField(p.ID, field, value); err != nil {
			slog.Warn("ProfileMerger.Apply: field write failed, skipping", "profileID", p.ID, "field", field, "error", err)
		}
	}

	for channel, handle := range ex.ChannelHandles() {
		if channel == inbound {
			slog.Debug("ProfileMerger.Apply: extracted handle matches inbound channel, skipping", "profileID", p.ID, "channel", channel)
			continue
		}
		if p.ChannelIdentities[channel] != "" {
			slog.Debug("ProfileMerger.Apply: channel already bound, skipping", "profileID", p.ID, "channel", channel)
			continue
		}
		if !schema.SupportsChannel(channel) {
			slog.Debug("ProfileMerger.Apply: channel unsupported by schema, skipping", "profileID", p.ID, "channel", channel)
			continue
		}
		if err := m.store.BindChannelIdentity(p.ID, channel, handle); err != nil {
			slog.Warn("ProfileMerger.Apply: handle bind failed, skipping", "profileID", p.ID, "channel", channel, "error", err)
		}
	}

	refreshed, err := m.store.GetProfile(p.ID)
	if err != nil {
		slog.Error("ProfileMerger.Apply: profile reload failed", "profileID", p.ID, "error", err)
		return nil, fmt.Errorf("failed to reload profile %s after merge: %w", p.ID, err)
	}
	if refreshed == nil {
		return nil, fmt.Errorf("profile %s vanished during merge", p.ID)
	}
	return refreshed, nil
}
