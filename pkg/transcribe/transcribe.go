package transcribe

import "context"

// Transcriber converts an audio reference (a local file path or URL
// provided by the transport) into text. The engine never touches binary
// audio itself; a failure here aborts the turn before classification.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioRef string) (string, error)
}
