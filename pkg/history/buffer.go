package history

import (
	"context"
	"sync"

	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/errorsx"
)

// entry is the per-conversation state. All access to turns and loaded
// goes through the entry's own lock, so conversations never contend.
type entry struct {
	mu     sync.Mutex
	turns  []convo.Turn
	loaded bool
}

// Buffer is the bounded per-conversation record of prior turns. Eviction
// is pure FIFO and happens on append, so every read observes at most
// MaxLength turns, oldest first.
//
// Appends to the same key never interleave; each key has its own lock.
// Different keys proceed concurrently.
type Buffer struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxLen  int
	backing Store
}

// New creates a buffer holding at most maxLen turns per conversation.
// store may be nil for memory-only operation.
func New(maxLen int, store Store) *Buffer {
	if maxLen < 1 {
		maxLen = 1
	}
	return &Buffer{
		entries: make(map[string]*entry),
		maxLen:  maxLen,
		backing: store,
	}
}

// MaxLength returns the configured per-conversation bound.
func (b *Buffer) MaxLength() int { return b.maxLen }

// Append adds a turn and evicts oldest turns past the bound. When a
// backing store is configured the trimmed sequence is written through;
// a store failure leaves the in-memory state updated and is returned
// wrapped so the caller can log it without losing the turn.
func (b *Buffer) Append(ctx context.Context, key convo.Key, turn convo.Turn) error {
	e := b.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := b.ensureLoaded(ctx, key, e); err != nil {
		return err
	}

	seq := append(e.turns, turn)
	if len(seq) > b.maxLen {
		seq = seq[len(seq)-b.maxLen:]
	}
	e.turns = seq

	if b.backing != nil {
		if err := b.backing.Save(ctx, key, seq); err != nil {
			return errorsx.Wrap(err, errorsx.ReasonStoreWrite)
		}
	}
	return nil
}

// Read returns the current contents, oldest first. The returned slice is
// a copy; callers cannot corrupt the buffer through it.
func (b *Buffer) Read(ctx context.Context, key convo.Key) ([]convo.Turn, error) {
	e := b.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := b.ensureLoaded(ctx, key, e); err != nil {
		return nil, err
	}
	out := make([]convo.Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

// LastOutbound returns the most recent outbound turn, if any. The
// response-delay gate measures from its timestamp.
func (b *Buffer) LastOutbound(ctx context.Context, key convo.Key) (convo.Turn, bool, error) {
	seq, err := b.Read(ctx, key)
	if err != nil {
		return convo.Turn{}, false, err
	}
	for i := len(seq) - 1; i >= 0; i-- {
		if seq[i].Role == convo.RoleOutbound {
			return seq[i], true, nil
		}
	}
	return convo.Turn{}, false, nil
}

// ensureLoaded pulls the persisted sequence into memory on first touch.
// Must be called with the entry lock held.
func (b *Buffer) ensureLoaded(ctx context.Context, key convo.Key, e *entry) error {
	if e.loaded || b.backing == nil {
		e.loaded = true
		return nil
	}
	seq, err := b.backing.Load(ctx, key)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreRead)
	}
	if len(seq) > b.maxLen {
		seq = seq[len(seq)-b.maxLen:]
	}
	e.turns = seq
	e.loaded = true
	return nil
}

func (b *Buffer) entry(key convo.Key) *entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key.String()]
	if !ok {
		e = &entry{}
		b.entries[key.String()] = e
	}
	return e
}
