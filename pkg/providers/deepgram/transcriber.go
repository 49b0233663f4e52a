package deepgram

import (
	"context"
	"errors"
	"strings"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	restinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/standin-bot/standin/pkg/errorsx"
	"github.com/standin-bot/standin/pkg/transcribe"
)

// Config holds Deepgram pre-recorded transcription settings.
type Config struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

// Transcriber converts voice-note audio into text through Deepgram's
// pre-recorded endpoint. Audio references may be URLs (transport media
// links) or local file paths.
type Transcriber struct {
	cfg Config
	dg  *listenv1rest.Client
}

func New(cfg Config) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	c := client.NewREST(cfg.APIKey, &interfaces.ClientOptions{})
	return &Transcriber{cfg: cfg, dg: listenv1rest.New(c)}
}

func (t *Transcriber) Name() string { return "deepgram" }

func (t *Transcriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	if strings.TrimSpace(audioRef) == "" {
		return "", errorsx.Wrap(errors.New("empty audio reference"), errorsx.ReasonTranscribeFailed)
	}
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		SmartFormat: true,
	}

	if strings.HasPrefix(audioRef, "http://") || strings.HasPrefix(audioRef, "https://") {
		resp, err := t.dg.FromURL(ctx, audioRef, options)
		if err != nil {
			return "", errorsx.Wrap(err, errorsx.ReasonTranscribeFailed)
		}
		return extractTranscript(resp)
	}

	resp, err := t.dg.FromFile(ctx, audioRef, options)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTranscribeFailed)
	}
	return extractTranscript(resp)
}

func extractTranscript(resp *restinterfaces.PreRecordedResponse) (string, error) {
	if resp == nil || len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return "", errorsx.Wrap(errors.New("no transcript in response"), errorsx.ReasonTranscribeFailed)
	}
	text := strings.TrimSpace(resp.Results.Channels[0].Alternatives[0].Transcript)
	if text == "" {
		return "", errorsx.Wrap(errors.New("empty transcript"), errorsx.ReasonTranscribeFailed)
	}
	return text, nil
}

var _ transcribe.Transcriber = (*Transcriber)(nil)
