package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pauhq/pau/internal/models"
	"github.com/pauhq/pau/internal/store"
)

// Dispatcher sends a reply back over one channel kind. Implementations live
// in the messaging package.
type Dispatcher interface {
	Deliver(ctx context.Context, msg models.InboundMessage, text string) error
}

// identityLocks serializes turns per channel identity so two near
// simultaneous messages from one user cannot interleave their
// read-merge-write cycles.
type identityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *identityLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// Processor runs the full pipeline for one inbound message: profile load or
// create, extraction, merge, state decision, persistence and delivery.
type Processor struct {
	store       store.Store
	extractor   *SlotExtractor
	merger      *ProfileMerger
	engine      *ConversationEngine
	dispatchers map[models.ChannelKind]Dispatcher
	locks       *identityLocks
}

// NewProcessor creates a processor from its collaborators. Dispatchers are
// registered per channel kind via RegisterDispatcher.
func NewProcessor(st store.Store, extractor *SlotExtractor, merger *ProfileMerger, engine *ConversationEngine) *Processor {
	return &Processor{
		store:       st,
		extractor:   extractor,
		merger:      merger,
		engine:      engine,
		dispatchers: make(map[models.ChannelKind]Dispatcher),
		locks:       newIdentityLocks(),
	}
}

// RegisterDispatcher registers the outbound transport for one channel kind.
func (p *Processor) RegisterDispatcher(channel models.ChannelKind, d Dispatcher) {
	p.dispatchers[channel] = d
}

// Process handles one inbound message end-to-end. A returned error means the
// turn was aborted with no reply delivered; the transport reports non-success
// upstream so the provider can redeliver.
func (p *Processor) Process(ctx context.Context, msg models.InboundMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	dispatcher, ok := p.dispatchers[msg.Channel]
	if !ok {
		return fmt.Errorf("no dispatcher registered for channel %s", msg.Channel)
	}

	lock := p.locks.get(string(msg.Channel) + "|" + msg.SenderID)
	lock.Lock()
	defer lock.Unlock()

	profile, err := p.loadOrCreateProfile(msg)
	if err != nil {
		return err
	}

	extraction, err := p.extractor.Extract(ctx, msg.Text)
	if err != nil {
		return err
	}

	profile, err = p.merger.Apply(profile, extraction, msg.Channel)
	if err != nil {
		return err
	}

	decision, err := p.engine.Decide(ctx, profile, msg.Text)
	if err != nil {
		return err
	}

	if err := p.store.SaveConversationState(profile.ID, decision.State, decision.Step, decision.IntroductionDone); err != nil {
		return err
	}

	p.recordMessage(profile.ID, msg.Channel, models.DirectionInbound, msg.Text)
	p.recordMessage(profile.ID, msg.Channel, models.DirectionOutbound, decision.Reply)

	if err := dispatcher.Deliver(ctx, msg, decision.Reply); err != nil {
		slog.Error("Processor.Process: delivery failed", "profileID", profile.ID, "channel", msg.Channel, "error", err)
		p.recordReceipt(profile.ID, msg.Channel, models.StatusFailed)
		return fmt.Errorf("delivery on %s failed: %w", msg.Channel, err)
	}
	p.recordReceipt(profile.ID, msg.Channel, models.StatusSent)

	slog.Info("Processor.Process: turn completed",
		"profileID", profile.ID, "channel", msg.Channel,
		"state", decision.State, "step", decision.Step)
	return nil
}

// loadOrCreateProfile resolves the sender to a profile, creating one on
// first contact from an unseen channel identity.
func (p *Processor) loadOrCreateProfile(msg models.InboundMessage) (*models.Profile, error) {
	profile, err := p.store.FindProfileByChannel(msg.Channel, msg.SenderID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	now := time.Now().UTC()
	profile = &models.Profile{
		ID:                uuid.NewString(),
		ChannelIdentities: map[models.ChannelKind]string{msg.Channel: msg.SenderID},
		State:             models.StateHomeboarding,
		Step:              models.StepNone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := p.store.CreateProfile(profile); err != nil {
		return nil, err
	}
	slog.Info("Processor.loadOrCreateProfile: profile created", "profileID", profile.ID, "channel", msg.Channel)
	return profile, nil
}

// recordMessage appends an audit entry; audit failures never abort a turn.
func (p *Processor) recordMessage(profileID string, channel models.ChannelKind, dir models.MessageDirection, body string) {
	rec := models.MessageRecord{
		ProfileID: profileID,
		Channel:   channel,
		Direction: dir,
		Body:      body,
		Time:      time.Now().Unix(),
	}
	if err := p.store.AddMessageRecord(rec); err != nil {
		slog.Warn("Processor.recordMessage: audit write failed", "profileID", profileID, "error", err)
	}
}

// recordReceipt records a delivery outcome; receipt failures never abort a turn.
func (p *Processor) recordReceipt(profileID string, channel models.ChannelKind, status models.DeliveryStatus) {
	r := models.Receipt{
		ProfileID: profileID,
		Channel:   channel,
		Status:    status,
		Time:      time.Now().Unix(),
	}
	if err := p.store.AddReceipt(r); err != nil {
		slog.Warn("Processor.recordReceipt: receipt write failed", "profileID", profileID, "error", err)
	}
}
