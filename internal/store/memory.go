package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/pauhq/pau/internal/models"
)

// InMemoryStore is a Store kept entirely in memory, used by tests and local
// development. It hands out profile clones so callers never share state.
type InMemoryStore struct {
	mu         sync.RWMutex
	profiles   map[string]*models.Profile
	identities map[string]string // "channel|channelID" -> profile ID
	messages   []models.MessageRecord
	receipts   []models.Receipt
	schema     ProfileSchema
}

// NewInMemoryStore creates an in-memory store with the default schema.
func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithSchema(DefaultProfileSchema())
}

// NewInMemoryStoreWithSchema creates an in-memory store with a custom schema,
// letting tests simulate backends that lack optional fields or channels.
func NewInMemoryStoreWithSchema(schema ProfileSchema) *InMemoryStore {
	return &InMemoryStore{
		profiles:   make(map[string]*models.Profile),
		identities: make(map[string]string),
		schema:     schema,
	}
}

func identityKey(channel models.ChannelKind, channelID string) string {
	return string(channel) + "|" + channelID
}

// FindProfileByChannel resolves a channel identity to its profile.
func (s *InMemoryStore) FindProfileByChannel(channel models.ChannelKind, channelID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[identityKey(channel, channelID)]
	if !ok {
		return nil, nil
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("identity %s bound to missing profile %s", channelID, id)
	}
	return p.Clone(), nil
}

// GetProfile reads a profile by ID.
func (s *InMemoryStore) GetProfile(id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

// CreateProfile persists a new profile with its channel identities.
func (s *InMemoryStore) CreateProfile(p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.ID]; exists {
		return fmt.Errorf("profile %s already exists", p.ID)
	}
	s.profiles[p.ID] = p.Clone()
	for channel, channelID := range p.ChannelIdentities {
		key := identityKey(channel, channelID)
		if _, bound := s.identities[key]; !bound {
			s.identities[key] = p.ID
		}
	}
	return nil
}

// UpdateProfileField writes one field.
func (s *InMemoryStore) UpdateProfileField(id string, field models.ProfileField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	if !s.schema.SupportsField(field) {
		return fmt.Errorf("field %s not supported by schema", field)
	}
	p.SetFieldValue(field, value)
	p.UpdatedAt = time.Now()
	return nil
}

// BindChannelIdentity records a (channel, identifier) pair for the profile.
// A pair already bound to another profile is left untouched.
func (s *InMemoryStore) BindChannelIdentity(id string, channel models.ChannelKind, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	key := identityKey(channel, channelID)
	if _, bound := s.identities[key]; bound {
		return nil
	}
	s.identities[key] = id
	p.ChannelIdentities[channel] = channelID
	p.UpdatedAt = time.Now()
	return nil
}

// SaveConversationState persists the state machine outcome of one turn.
func (s *InMemoryStore) SaveConversationState(id string, state models.State, step models.Step, introductionDone bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	p.State = state
	p.Step = step
	p.IntroductionDone = introductionDone
	p.UpdatedAt = time.Now()
	return nil
}

// AddMessageRecord appends an audit entry.
func (s *InMemoryStore) AddMessageRecord(rec models.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, rec)
	return nil
}

// AddReceipt records a delivery outcome.
func (s *InMemoryStore) AddReceipt(r models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
	return nil
}

// GetMessageRecords returns all audit entries (for tests).
func (s *InMemoryStore) GetMessageRecords() []models.MessageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MessageRecord, len(s.messages))
	copy(out, s.messages)
	return out
}

// GetReceipts returns all recorded receipts (for tests).
func (s *InMemoryStore) GetReceipts() []models.Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out
}

// Schema returns the schema this store was created with.
func (s *InMemoryStore) Schema() ProfileSchema {
	return s.schema
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
