package standin

import (
	"fmt"
	"strings"

	"github.com/standin-bot/standin/pkg/configutil"
	"github.com/standin-bot/standin/pkg/genai"
	"github.com/standin-bot/standin/pkg/providers/deepgram"
	"github.com/standin-bot/standin/pkg/providers/mock"
	"github.com/standin-bot/standin/pkg/providers/openai"
	"github.com/standin-bot/standin/pkg/transcribe"
	"github.com/standin-bot/standin/pkg/transports"
	mocktransport "github.com/standin-bot/standin/pkg/transports/mock"
	twiliotransport "github.com/standin-bot/standin/pkg/transports/twilio"
	wstransport "github.com/standin-bot/standin/pkg/transports/ws"
)

type BackendFactory func(settings map[string]any) (genai.Backend, error)
type TranscriberFactory func(settings map[string]any) (transcribe.Transcriber, error)
type TransportFactory func(settings map[string]any) (transports.Transport, error)

// ProviderRegistry maps provider names onto constructors. Applications
// may register their own vendors next to the built-in ones.
type ProviderRegistry struct {
	backends     map[string]BackendFactory
	transcribers map[string]TranscriberFactory
	transports   map[string]TransportFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		backends:     make(map[string]BackendFactory),
		transcribers: make(map[string]TranscriberFactory),
		transports:   make(map[string]TransportFactory),
	}
}

// DefaultRegistry returns a registry with every built-in provider.
func DefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	r.RegisterBackend("openai", buildOpenAIBackend)
	r.RegisterBackend("mock", buildMockBackend)
	r.RegisterTranscriber("deepgram", buildDeepgramTranscriber)
	r.RegisterTranscriber("mock", buildMockTranscriber)
	r.RegisterTransport("twilio", buildTwilioTransport)
	r.RegisterTransport("ws", buildWSTransport)
	r.RegisterTransport("mock", buildMockTransport)
	return r
}

func (r *ProviderRegistry) RegisterBackend(name string, factory BackendFactory) {
	r.backends[normalizeName(name)] = factory
}

func (r *ProviderRegistry) RegisterTranscriber(name string, factory TranscriberFactory) {
	r.transcribers[normalizeName(name)] = factory
}

func (r *ProviderRegistry) RegisterTransport(name string, factory TransportFactory) {
	r.transports[normalizeName(name)] = factory
}

func (r *ProviderRegistry) BuildBackend(cfg VendorConfig) (genai.Backend, error) {
	fn := r.backends[normalizeName(cfg.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("llm provider not registered: %s", cfg.Provider)
	}
	return fn(cfg.Settings)
}

func (r *ProviderRegistry) BuildTranscriber(cfg VendorConfig) (transcribe.Transcriber, error) {
	fn := r.transcribers[normalizeName(cfg.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("transcription provider not registered: %s", cfg.Provider)
	}
	return fn(cfg.Settings)
}

func (r *ProviderRegistry) BuildTransport(cfg TransportsConfig) (transports.Transport, error) {
	fn := r.transports[normalizeName(cfg.Provider)]
	if fn == nil {
		return nil, fmt.Errorf("transport provider not registered: %s", cfg.Provider)
	}
	return fn(cfg.Settings)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func buildOpenAIBackend(settings map[string]any) (genai.Backend, error) {
	schema := configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model", "base_url", "api_version", "temperature", "top_p"},
	}
	if err := configutil.ValidateSettings(settings, schema); err != nil {
		return nil, fmt.Errorf("openai settings: %w", err)
	}
	var cfg openai.Config
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("openai settings: %w", err)
	}
	return openai.NewBackend(cfg), nil
}

func buildMockBackend(settings map[string]any) (genai.Backend, error) {
	var cfg struct {
		Responses  []string `mapstructure:"responses"`
		TokensUsed int      `mapstructure:"tokens_used"`
	}
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("mock llm settings: %w", err)
	}
	return mock.NewBackend(mock.BackendConfig{Responses: cfg.Responses, TokensUsed: cfg.TokensUsed}), nil
}

func buildDeepgramTranscriber(settings map[string]any) (transcribe.Transcriber, error) {
	schema := configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model", "language"},
	}
	if err := configutil.ValidateSettings(settings, schema); err != nil {
		return nil, fmt.Errorf("deepgram settings: %w", err)
	}
	var cfg deepgram.Config
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("deepgram settings: %w", err)
	}
	return deepgram.New(cfg), nil
}

func buildMockTranscriber(settings map[string]any) (transcribe.Transcriber, error) {
	var cfg struct {
		Text string `mapstructure:"text"`
	}
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("mock transcriber settings: %w", err)
	}
	return &mock.Transcriber{Text: cfg.Text}, nil
}

func buildTwilioTransport(settings map[string]any) (transports.Transport, error) {
	schema := configutil.Schema{
		Required: []string{"account_sid", "auth_token", "from"},
		Optional: []string{"listen_addr", "webhook_path"},
	}
	if err := configutil.ValidateSettings(settings, schema); err != nil {
		return nil, fmt.Errorf("twilio settings: %w", err)
	}
	var cfg twiliotransport.Config
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("twilio settings: %w", err)
	}
	return twiliotransport.NewTransport(cfg), nil
}

func buildWSTransport(settings map[string]any) (transports.Transport, error) {
	var cfg wstransport.Config
	if err := configutil.DecodeSettings(settings, &cfg); err != nil {
		return nil, fmt.Errorf("ws settings: %w", err)
	}
	return wstransport.NewTransport(cfg), nil
}

func buildMockTransport(settings map[string]any) (transports.Transport, error) {
	return mocktransport.NewTransport(), nil
}
