package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tradedesk/internal/domain"
	"tradedesk/internal/engine"
	"tradedesk/internal/infra"
	"tradedesk/internal/infra/storage"
	"tradedesk/internal/mirror"
	"tradedesk/internal/service"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	ConfigPath string

	Config    *infra.Config
	Journal   *storage.Journal
	Store     *mirror.Store
	Sequencer *engine.Sequencer
	Venue     domain.VenueWorker
	Service   *service.MarketService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap(configPath string) *Bootstrap {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return &Bootstrap{ConfigPath: configPath}
}

// Initialize loads config, installs the logger and opens the journal.
func (b *Bootstrap) Initialize() error {
	cfg, err := infra.LoadConfig(b.ConfigPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping tradedesk", slog.String("version", cfg.App.Version))

	if cfg.Storage.Enabled {
		j, err := storage.Open(cfg.Storage.JournalPath)
		if err != nil {
			return err
		}
		b.Journal = j
		slog.Info("Journal opened", slog.String("path", cfg.Storage.JournalPath))
	}

	return nil
}

// Start wires a fresh session and connects to the venue.
// The mirror lives only as long as this session.
func (b *Bootstrap) Start(ctx context.Context, sink domain.NotificationSink) error {
	if b.Config == nil {
		return errors.New("bootstrap not initialized")
	}
	cfg := b.Config

	b.Store = mirror.NewStore()
	if cfg.Venue.ActAs != "" {
		b.Store.SetActingAs(cfg.Venue.ActAs)
	}

	opts := []engine.Option{engine.WithDumpPath("panic_dump.json")}
	if b.Journal != nil {
		opts = append(opts, engine.WithJournal(b.Journal))
	}
	b.Sequencer = engine.NewSequencer(cfg.Venue.InboxSize, b.Store, sink, opts...)
	go b.Sequencer.Run(ctx)

	client := infra.NewVenueClient(infra.VenueOptionsFromConfig(cfg), b.Sequencer.Inbox(), b.Store, infra.GlobalMetrics)
	b.Venue = client
	b.Service = service.NewMarketService(b.Store, client, cfg.UI.ImproveTick)

	if err := b.Venue.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect venue: %w", err)
	}
	slog.Info("Session started", slog.String("session_id", b.Store.SessionID()))
	return nil
}

// WaitForMarket blocks until the market is in the mirror or the timeout passes.
func (b *Bootstrap) WaitForMarket(ctx context.Context, marketID int64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	changes := b.Service.Changes(ctx)
	for {
		if _, ok := b.Store.Market(marketID); ok && b.Venue.IsConnected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("market %d not available: %w", marketID, ctx.Err())
		case <-changes:
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Close disconnects and releases resources.
func (b *Bootstrap) Close() {
	if b.Venue != nil {
		b.Venue.Disconnect()
	}
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Warn("Failed to close journal", slog.Any("error", err))
		}
	}
	snap := infra.GlobalMetrics.Snapshot()
	slog.Info("Session closed",
		slog.Uint64("events_applied", snap.EventsApplied),
		slog.Uint64("notifications", snap.Notifications),
		slog.Uint64("decode_errors", snap.DecodeErrors),
		slog.Uint64("reducer_panics", snap.ReducerPanics))
}

// LogSink writes notifications to the structured log.
func LogSink() domain.NotificationSink {
	return domain.NotificationSinkFunc(func(n domain.Notification) {
		level := slog.LevelInfo
		if n.Severity == domain.SeverityError {
			level = slog.LevelError
		}
		slog.Log(context.Background(), level, n.Title,
			slog.String("severity", string(n.Severity)),
			slog.String("description", n.Description),
			slog.String("actor_id", n.ActorID),
			slog.String("kind", n.Kind))
	})
}
