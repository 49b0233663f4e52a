package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/standin-bot/standin/pkg/catalog"
	"github.com/standin-bot/standin/pkg/classify"
	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/errorsx"
	"github.com/standin-bot/standin/pkg/genai"
	"github.com/standin-bot/standin/pkg/history"
	"github.com/standin-bot/standin/pkg/logging"
	"github.com/standin-bot/standin/pkg/metrics"
	"github.com/standin-bot/standin/pkg/prompt"
	"github.com/standin-bot/standin/pkg/redact"
	"github.com/standin-bot/standin/pkg/transcribe"
	"github.com/standin-bot/standin/pkg/transports"
)

// placeholder recorded when an inbound turn carries no usable text.
const (
	voicePlaceholder = "[voice message]"
	mediaPlaceholder = "[media]"
)

// Sender delivers one outbound reply. Satisfied by any transport.
type Sender interface {
	Send(ctx context.Context, event transports.OutboundEvent) error
}

// Config carries the reply gates.
type Config struct {
	// AutoRespond disables all reply generation when false. Inbound
	// turns are still recorded.
	AutoRespond bool
	// RespondToGroups enables replies in group chats.
	RespondToGroups bool
	// ResponseDelay is the minimum gap after an outbound turn before
	// the next reply in the same conversation.
	ResponseDelay time.Duration
}

// Deps are the coordinator's collaborators. Transcriber and Observer
// are optional.
type Deps struct {
	History     *history.Buffer
	Classifier  *classify.Classifier
	Matcher     *catalog.Matcher
	Builder     *prompt.Builder
	Generator   *genai.Generator
	Transcriber transcribe.Transcriber
	Sender      Sender
	Observer    metrics.Observer
}

// Coordinator drives one inbound event through the turn pipeline:
// transcribe, classify, match, generate, deliver. Events for the same
// conversation are strictly serialized; distinct conversations proceed
// concurrently. No failure on the reply path ever surfaces to the
// sender: failed turns end silently with the inbound turn recorded.
type Coordinator struct {
	cfg    Config
	deps   Deps
	obs    metrics.Observer
	logger *slog.Logger

	mu        sync.Mutex
	keyLocks  map[string]*sync.Mutex
	machines  map[string]*stateMachine
	convs     map[string]*convo.Conversation
	listeners []StateListener
}

func New(cfg Config, deps Deps) *Coordinator {
	obs := deps.Observer
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	return &Coordinator{
		cfg:      cfg,
		deps:     deps,
		obs:      obs,
		logger:   logging.NewComponentLogger(slog.Default(), "coordinator"),
		keyLocks: make(map[string]*sync.Mutex),
		machines: make(map[string]*stateMachine),
		convs:    make(map[string]*convo.Conversation),
	}
}

// AddListener registers a listener for state change events. Register
// before the first inbound event; later machines pick it up, existing
// ones do not.
func (c *Coordinator) AddListener(listener StateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// State returns the current state of one conversation.
func (c *Coordinator) State(key convo.Key) State {
	c.mu.Lock()
	sm, ok := c.machines[key.String()]
	c.mu.Unlock()
	if !ok {
		return StateIdle
	}
	return sm.State()
}

// Conversation returns a snapshot of the conversation record, creating
// nothing.
func (c *Coordinator) Conversation(key convo.Key) (convo.Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.convs[key.String()]
	if !ok {
		return convo.Conversation{}, false
	}
	return *conv, true
}

// HandleInbound processes one inbound event to completion. It blocks
// while an earlier event for the same conversation is in flight.
func (c *Coordinator) HandleInbound(ctx context.Context, event transports.InboundEvent) {
	key := event.Key()
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	logger := c.logger.With("peer", key.PeerID, "kind", key.Kind.String(), "trace", uuid.NewString())

	conv := c.touchConversation(key, event.SenderName)

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	text, transcribed, aborted := c.resolveText(ctx, event, logger)

	prior, err := c.deps.History.Read(ctx, key)
	if err != nil {
		logger.Warn("history_read_failed", "reason", string(errorsx.Reason(err)), "error", err)
		prior = nil
	}

	var turn convo.Turn
	if transcribed {
		turn = convo.NewTranscribedTurn(text, ts)
	} else {
		turn = convo.NewTurn(convo.RoleInbound, text, ts)
	}
	if err := c.deps.History.Append(ctx, key, turn); err != nil {
		logger.Warn("history_append_failed", "reason", string(errorsx.Reason(err)), "error", err)
	}

	// A failed transcription or bare media turn is recorded but never
	// answered.
	if aborted {
		return
	}

	if reason := c.gateReason(ctx, key); reason != "" {
		logger.Info("gate_skip", "gate", reason, "text", redact.Preview(text, 80))
		c.obs.RecordEvent(metrics.Event{
			Name: "gate_skip",
			Time: time.Now(),
			Tags: map[string]string{"gate": reason},
		})
		return
	}

	sm := c.machine(key)
	start := time.Now()
	if err := sm.Transition(StateClassifying, "inbound message"); err != nil {
		logger.Error("state_error", "error", err)
		return
	}

	cls := c.deps.Classifier.Classify(ctx, key, text, prior, conv.LastClassify)
	if cls.Degraded && cls.Label == convo.ContextUnknown && classify.LooksCommercial(text) {
		// Degraded classification still gets product context when the
		// wording is plainly commercial.
		cls.Label = convo.ContextCustomer
		logger.Info("commerce_signal_applied")
	}
	c.setClassification(key, cls)

	if err := sm.Transition(StateMatching, "classified "+cls.Label.String()); err != nil {
		logger.Error("state_error", "error", err)
		return
	}
	products := c.deps.Matcher.Match(text, cls)

	if err := sm.Transition(StateGenerating, "matched products"); err != nil {
		logger.Error("state_error", "error", err)
		return
	}
	full := append(append([]convo.Turn{}, prior...), turn)
	req := c.deps.Builder.Build(full, cls, products, conv.DisplayName)
	resp, err := c.deps.Generator.Generate(ctx, req)
	if err != nil {
		logger.Warn("turn_failed", "reason", string(errorsx.Reason(err)), "error", err)
		c.obs.RecordEvent(metrics.Event{
			Name: "turn_failed",
			Time: time.Now(),
			Tags: map[string]string{"reason": string(errorsx.Reason(err))},
		})
		_ = sm.Transition(StateIdle, "generation failed")
		return
	}

	if err := sm.Transition(StateDelivering, "response ready"); err != nil {
		logger.Error("state_error", "error", err)
		return
	}

	// The outbound turn is recorded before delivery so the rate gate
	// sees it even when the transport later fails.
	out := convo.NewTurn(convo.RoleOutbound, resp.Text, time.Now())
	if err := c.deps.History.Append(ctx, key, out); err != nil {
		logger.Warn("history_append_failed", "reason", string(errorsx.Reason(err)), "error", err)
	}

	endReason := "delivered"
	if err := c.deps.Sender.Send(ctx, transports.OutboundEvent{
		PeerID: key.PeerID,
		Kind:   key.Kind,
		Text:   resp.Text,
	}); err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonDeliveryFailed)
		logger.Warn("delivery_failed", "reason", string(errorsx.Reason(err)), "error", err)
		endReason = "delivery failed"
	}
	_ = sm.Transition(StateIdle, endReason)

	c.obs.RecordEvent(metrics.Event{
		Name:  "turn_completed",
		Time:  time.Now(),
		Value: time.Since(start).Seconds(),
		Tags: map[string]string{
			"label":    cls.Label.String(),
			"language": cls.Language,
		},
	})
	logger.Info("turn_completed",
		"label", cls.Label.String(),
		"language", cls.Language,
		"degraded", cls.Degraded,
		"products", len(products),
		"tokens", resp.TokensUsed,
		"reply", redact.Preview(resp.Text, 80))
}

// resolveText extracts the textual content of the event, transcribing
// voice input when possible. aborted means the turn ends after the
// inbound record.
func (c *Coordinator) resolveText(ctx context.Context, event transports.InboundEvent, logger *slog.Logger) (text string, transcribed, aborted bool) {
	if event.Text != "" {
		return event.Text, false, false
	}
	if event.AudioRef == "" {
		return mediaPlaceholder, false, true
	}
	if c.deps.Transcriber == nil {
		logger.Info("transcription_skipped", "cause", "no transcriber configured")
		return voicePlaceholder, false, true
	}
	out, err := c.deps.Transcriber.Transcribe(ctx, event.AudioRef)
	if err != nil {
		err = errorsx.Wrap(err, errorsx.ReasonTranscribeFailed)
		logger.Warn("transcription_failed", "reason", string(errorsx.Reason(err)), "error", err)
		return voicePlaceholder, false, true
	}
	return out, true, false
}

// gateReason returns a non-empty skip reason when no reply should be
// generated for this turn.
func (c *Coordinator) gateReason(ctx context.Context, key convo.Key) string {
	if !c.cfg.AutoRespond {
		return "auto_respond_disabled"
	}
	if key.Kind == convo.ChatGroup && !c.cfg.RespondToGroups {
		return "group_muted"
	}
	if c.cfg.ResponseDelay > 0 {
		last, ok, err := c.deps.History.LastOutbound(ctx, key)
		if err == nil && ok && time.Since(last.Timestamp) < c.cfg.ResponseDelay {
			return "rate_limited"
		}
	}
	return ""
}

func (c *Coordinator) keyLock(key convo.Key) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.keyLocks[key.String()]
	if !ok {
		lock = &sync.Mutex{}
		c.keyLocks[key.String()] = lock
	}
	return lock
}

func (c *Coordinator) machine(key convo.Key) *stateMachine {
	c.mu.Lock()
	defer c.mu.Unlock()
	sm, ok := c.machines[key.String()]
	if !ok {
		sm = newStateMachine(key.String(), c.listeners)
		c.machines[key.String()] = sm
	}
	return sm
}

// touchConversation creates the record on first contact and refreshes
// activity metadata, returning a snapshot.
func (c *Coordinator) touchConversation(key convo.Key, senderName string) convo.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.convs[key.String()]
	if !ok {
		conv = &convo.Conversation{Key: key}
		c.convs[key.String()] = conv
	}
	if senderName != "" {
		conv.DisplayName = senderName
	}
	conv.LastActivity = time.Now()
	return *conv
}

func (c *Coordinator) setClassification(key convo.Key, cls convo.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.convs[key.String()]; ok {
		conv.LastClassify = cls
	}
}
