package infra

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"

	"github.com/gorilla/websocket"
)

// Liveness receives the transport's view of whether the mirror is current.
type Liveness interface {
	SetStale(stale bool)
}

// VenueOptions configures a VenueClient.
type VenueOptions struct {
	URL          string
	Token        string
	ActAs        string
	ReadTimeout  time.Duration
	PingInterval time.Duration
	UserAgent    string
}

// VenueOptionsFromConfig maps the venue config section to client options.
func VenueOptionsFromConfig(cfg *Config) VenueOptions {
	return VenueOptions{
		URL:          cfg.Venue.WSURL,
		Token:        cfg.Venue.AuthToken,
		ActAs:        cfg.Venue.ActAs,
		ReadTimeout:  time.Duration(cfg.Venue.ReadTimeoutSec) * time.Second,
		PingInterval: time.Duration(cfg.Venue.PingIntervalSec) * time.Second,
		UserAgent:    fmt.Sprintf("%s/%s", cfg.App.Name, cfg.App.Version),
	}
}

// VenueClient decodes the venue's event stream into the sequencer inbox
// and sends client requests. Delivery into the inbox keeps arrival order.
type VenueClient struct {
	opts     VenueOptions
	worker   *BaseWSWorker
	inbox    chan<- event.ServerEvent
	liveness Liveness
	metrics  *Metrics
	logger   *slog.Logger

	seq       atomic.Uint64
	connected atomic.Bool
}

// NewVenueClient creates a client. liveness and metrics may be nil.
func NewVenueClient(opts VenueOptions, inbox chan<- event.ServerEvent, liveness Liveness, metrics *Metrics) *VenueClient {
	if metrics == nil {
		metrics = GlobalMetrics
	}
	c := &VenueClient{
		opts:     opts,
		inbox:    inbox,
		liveness: liveness,
		metrics:  metrics,
		logger:   slog.Default().With("module", "venue_client"),
	}
	c.worker = NewBaseWSWorker(c)
	if opts.ReadTimeout > 0 {
		c.worker.ReadTimeout = opts.ReadTimeout
	}
	if opts.PingInterval > 0 {
		c.worker.PingInterval = opts.PingInterval
	}
	if opts.UserAgent != "" {
		c.worker.UserAgent = opts.UserAgent
	}
	return c
}

// Connect starts the reconnect loop. The mirror is stale until the first connection succeeds.
func (c *VenueClient) Connect(ctx context.Context) error {
	if c.opts.URL == "" {
		return &domain.ConfigError{Field: "venue.ws_url", Err: fmt.Errorf("empty URL")}
	}
	c.setStale(true)
	c.worker.Start(ctx)
	return nil
}

// Disconnect stops the worker and marks the mirror stale.
func (c *VenueClient) Disconnect() {
	c.worker.Stop()
	c.connected.Store(false)
	c.metrics.SetConnected(false)
	c.setStale(true)
}

// IsConnected reports whether the session on the current connection is set up.
func (c *VenueClient) IsConnected() bool {
	return c.connected.Load() && c.worker.Connected()
}

// Send writes one request. There is no response correlation; failures arrive later as requestFailed.
func (c *VenueClient) Send(req event.ClientRequest) error {
	data, err := event.EncodeRequest(req)
	if err != nil {
		return err
	}
	if err := c.worker.Write(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", req.Kind(), err)
	}
	c.metrics.RecordRequestSent()
	c.logger.Debug("Request sent", slog.String("kind", req.Kind()))
	return nil
}

func (c *VenueClient) GetURL() string { return c.opts.URL }
func (c *VenueClient) ID() string     { return "VENUE" }

// OnConnect queues a SessionReset before anything from the new connection is read,
// so the snapshot the venue sends next is applied to an empty mirror.
func (c *VenueClient) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	if err := c.enqueue(ctx, &event.SessionReset{}); err != nil {
		return err
	}
	if c.opts.Token != "" || c.opts.ActAs != "" {
		auth := event.ClientRequest{Authenticate: &event.Authenticate{Token: c.opts.Token, ActAs: c.opts.ActAs}}
		if err := c.Send(auth); err != nil {
			return err
		}
	}
	c.connected.Store(true)
	c.metrics.SetConnected(true)
	c.setStale(false)
	return nil
}

func (c *VenueClient) OnMessage(ctx context.Context, msg []byte) {
	ev, err := event.Decode(msg)
	if err != nil {
		c.metrics.RecordDecodeError()
		c.logger.Warn("Dropping undecodable frame", slog.Any("error", err), slog.Int("bytes", len(msg)))
		return
	}
	c.enqueue(ctx, ev)
}

func (c *VenueClient) enqueue(ctx context.Context, ev event.ServerEvent) error {
	ev.Stamp(c.seq.Add(1), time.Now().UnixMicro())
	select {
	case c.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *VenueClient) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (c *VenueClient) OnDisconnect(err error) {
	c.connected.Store(false)
	c.metrics.SetConnected(false)
	c.metrics.RecordReconnect()
	c.setStale(true)
	c.logger.Info("Disconnected from venue", slog.Any("reason", err))
}

func (c *VenueClient) setStale(stale bool) {
	c.metrics.SetStale(stale)
	if c.liveness != nil {
		c.liveness.SetStale(stale)
	}
}
