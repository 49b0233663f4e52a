package mock

import (
	"context"
	"sync"

	"github.com/standin-bot/standin/pkg/transcribe"
)

// Transcriber is a scripted transcription collaborator for tests.
type Transcriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []string
}

func (t *Transcriber) Name() string { return "mock_transcriber" }

func (t *Transcriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, audioRef)
	t.mu.Unlock()
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// Calls returns the audio references seen so far.
func (t *Transcriber) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.calls))
	copy(out, t.calls)
	return out
}

var _ transcribe.Transcriber = (*Transcriber)(nil)
