package twilio

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/logging"
	"github.com/standin-bot/standin/pkg/transports"
)

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// Config holds Twilio messaging credentials and the inbound webhook
// listener settings.
type Config struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	From        string `mapstructure:"from"`
	ListenAddr  string `mapstructure:"listen_addr"`
	WebhookPath string `mapstructure:"webhook_path"`
}

func (c Config) withDefaults() Config {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8085"
	}
	if c.WebhookPath == "" {
		c.WebhookPath = "/inbound"
	}
	return c
}

// Transport bridges Twilio messaging (SMS/WhatsApp) to the engine:
// inbound messages arrive on the webhook listener, outbound replies go
// through the REST API.
type Transport struct {
	cfg    Config
	client messageCreator
	in       chan transports.InboundEvent
	server   *http.Server
	logger   *slog.Logger
	stopOnce sync.Once
}

func NewTransport(cfg Config) *Transport {
	return &Transport{
		cfg:    cfg.withDefaults(),
		in:     make(chan transports.InboundEvent, 64),
		logger: logging.NewComponentLogger(slog.Default(), "twilio_transport"),
	}
}

func (t *Transport) Name() string { return "twilio" }

func (t *Transport) Start(ctx context.Context) error {
	if t.cfg.AccountSID == "" || t.cfg.AuthToken == "" {
		return errors.New("missing twilio credentials")
	}
	if t.client == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: t.cfg.AccountSID,
			Password: t.cfg.AuthToken,
		})
		t.client = rest.Api
	}
	mux := http.NewServeMux()
	mux.HandleFunc(t.cfg.WebhookPath, t.handleInbound)
	t.server = &http.Server{Addr: t.cfg.ListenAddr, Handler: mux}
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("webhook_listener_failed", "error", err)
		}
	}()
	t.logger.Info("twilio_transport_started", "addr", t.cfg.ListenAddr, "path", t.cfg.WebhookPath)
	return nil
}

func (t *Transport) Stop() error {
	t.stopOnce.Do(func() {
		if t.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			// Shutdown waits for in-flight webhook handlers, so no
			// handler can touch the channel after this returns.
			_ = t.server.Shutdown(ctx)
		}
		close(t.in)
	})
	return nil
}

func (t *Transport) Recv() <-chan transports.InboundEvent { return t.in }

func (t *Transport) Send(ctx context.Context, event transports.OutboundEvent) error {
	_ = ctx
	client := t.client
	if client == nil {
		return errors.New("transport not started")
	}
	params := &api.CreateMessageParams{}
	params.SetTo(event.PeerID)
	params.SetFrom(t.cfg.From)
	params.SetBody(event.Text)
	resp, err := client.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.Sid == nil {
		return errors.New("missing message sid")
	}
	return nil
}

// handleInbound parses a Twilio inbound-message webhook. Voice notes
// arrive as media attachments; the first audio media URL becomes the
// event's audio reference.
func (t *Transport) handleInbound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	from := r.PostFormValue("From")
	if from == "" {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}
	event := transports.InboundEvent{
		PeerID:     from,
		Kind:       convo.ChatPrivate,
		Text:       r.PostFormValue("Body"),
		SenderName: r.PostFormValue("ProfileName"),
		Timestamp:  time.Now(),
	}
	if mediaType := r.PostFormValue("MediaContentType0"); strings.HasPrefix(mediaType, "audio/") {
		event.AudioRef = r.PostFormValue("MediaUrl0")
	}
	select {
	case t.in <- event:
		w.WriteHeader(http.StatusNoContent)
	default:
		t.logger.Warn("inbound_queue_full", "peer", from)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}
}

var _ transports.Transport = (*Transport)(nil)
