package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/standin-bot/standin/pkg/convo"
	"github.com/standin-bot/standin/pkg/logging"
	"github.com/standin-bot/standin/pkg/transports"
)

// wireMessage is the JSON frame exchanged with websocket clients. Each
// connected client acts as a bridge for one peer.
type wireMessage struct {
	Type     string `json:"type"`
	PeerID   string `json:"peer_id,omitempty"`
	Group    bool   `json:"group,omitempty"`
	Text     string `json:"text,omitempty"`
	AudioRef string `json:"audio_ref,omitempty"`
	Sender   string `json:"sender,omitempty"`
}

// Config holds listener settings for the websocket bridge transport.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Path       string `mapstructure:"path"`
}

func (c Config) withDefaults() Config {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8086"
	}
	if c.Path == "" {
		c.Path = "/bridge"
	}
	return c
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Transport exposes the engine over a websocket: bridge clients push
// inbound messages as JSON frames and receive replies addressed to
// their peer ID. Used for local runs and integration harnesses.
type Transport struct {
	cfg    Config
	in     chan transports.InboundEvent
	server *http.Server
	logger *slog.Logger

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	closed bool
}

func NewTransport(cfg Config) *Transport {
	return &Transport{
		cfg:    cfg.withDefaults(),
		in:     make(chan transports.InboundEvent, 64),
		conns:  make(map[string]*websocket.Conn),
		logger: logging.NewComponentLogger(slog.Default(), "ws_transport"),
	}
}

func (t *Transport) Name() string { return "ws" }

func (t *Transport) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(t.cfg.Path, t.handleBridge)
	t.server = &http.Server{Addr: t.cfg.ListenAddr, Handler: mux}
	go func() {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("bridge_listener_failed", "error", err)
		}
	}()
	t.logger.Info("ws_transport_started", "addr", t.cfg.ListenAddr, "path", t.cfg.Path)
	return nil
}

func (t *Transport) Stop() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(ctx)
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	for _, conn := range t.conns {
		_ = conn.Close()
	}
	t.conns = make(map[string]*websocket.Conn)
	t.mu.Unlock()
	close(t.in)
	return nil
}

func (t *Transport) Recv() <-chan transports.InboundEvent { return t.in }

// Send delivers a reply to the bridge client registered for the peer.
func (t *Transport) Send(ctx context.Context, event transports.OutboundEvent) error {
	_ = ctx
	t.mu.Lock()
	conn := t.conns[event.PeerID]
	t.mu.Unlock()
	if conn == nil {
		return errors.New("no bridge connection for peer")
	}
	return conn.WriteJSON(wireMessage{Type: "reply", PeerID: event.PeerID, Text: event.Text})
}

func (t *Transport) handleBridge(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("upgrade_failed", "error", err)
		return
	}
	var registered string
	defer func() {
		if registered != "" {
			t.mu.Lock()
			if t.conns[registered] == conn {
				delete(t.conns, registered)
			}
			t.mu.Unlock()
		}
		_ = conn.Close()
	}()

	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "message" || msg.PeerID == "" {
			continue
		}
		if registered == "" {
			registered = msg.PeerID
			t.mu.Lock()
			t.conns[registered] = conn
			t.mu.Unlock()
		}
		kind := convo.ChatPrivate
		if msg.Group {
			kind = convo.ChatGroup
		}
		event := transports.InboundEvent{
			PeerID:     msg.PeerID,
			Kind:       kind,
			Text:       msg.Text,
			AudioRef:   msg.AudioRef,
			SenderName: msg.Sender,
			Timestamp:  time.Now(),
		}
		t.deliver(event)
	}
}

// deliver enqueues without blocking the read loop; events arriving
// after Stop are dropped.
func (t *Transport) deliver(event transports.InboundEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.in <- event:
	default:
		t.logger.Warn("inbound_queue_full", "peer", event.PeerID)
	}
}

var _ transports.Transport = (*Transport)(nil)
