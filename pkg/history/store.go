package history

import (
	"context"

	"github.com/standin-bot/standin/pkg/convo"
)

// Store is the durable persistence boundary for conversation turns. The
// in-memory Buffer can sit in front of one as a write-through cache;
// running without a store keeps history for the process lifetime only.
type Store interface {
	Load(ctx context.Context, key convo.Key) ([]convo.Turn, error)
	Save(ctx context.Context, key convo.Key, turns []convo.Turn) error
}
