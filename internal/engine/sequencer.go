package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"
	"tradedesk/internal/infra"
	"tradedesk/internal/mirror"
	"tradedesk/internal/notify"
)

// Journal records what the sequencer saw. Failures are logged and never stop the loop.
type Journal interface {
	RecordEvent(ctx context.Context, sessionID string, ev event.ServerEvent) error
	RecordNotification(ctx context.Context, sessionID string, n domain.Notification) error
}

// Sequencer is the only writer of the mirror. Each event is classified against
// the state before it, reduced, and then handed to observers and the sink.
type Sequencer struct {
	inbox   chan event.ServerEvent
	store   *mirror.Store
	sink    domain.NotificationSink
	journal Journal
	metrics *infra.Metrics

	nextSeq  uint64
	dumpPath string
}

// Option customizes a Sequencer.
type Option func(*Sequencer)

// WithJournal records every event and notification.
func WithJournal(j Journal) Option {
	return func(s *Sequencer) { s.journal = j }
}

// WithMetrics overrides the metrics instance (GlobalMetrics by default).
func WithMetrics(m *infra.Metrics) Option {
	return func(s *Sequencer) { s.metrics = m }
}

// WithDumpPath writes a state dump there whenever an event panics.
func WithDumpPath(path string) Option {
	return func(s *Sequencer) { s.dumpPath = path }
}

// NewSequencer creates a new sequencer instance. sink may be nil.
func NewSequencer(inboxSize int, store *mirror.Store, sink domain.NotificationSink, opts ...Option) *Sequencer {
	s := &Sequencer{
		inbox:   make(chan event.ServerEvent, inboxSize),
		store:   store,
		sink:    sink,
		metrics: infra.GlobalMetrics,
		nextSeq: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Inbox returns the event channel. The transport sends events here.
func (s *Sequencer) Inbox() chan<- event.ServerEvent {
	return s.inbox
}

// Store returns the mirror this sequencer writes.
func (s *Sequencer) Store() *mirror.Store {
	return s.store
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started", slog.String("session_id", s.store.SessionID()))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ctx, ev)
		}
	}
}

func (s *Sequencer) processEvent(ctx context.Context, ev event.ServerEvent) {
	// A bad event is isolated and skipped; the fold goes on.
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordReducerPanic()
			slog.Error("Event processing panicked",
				slog.String("type", ev.GetType().String()),
				slog.Uint64("seq", ev.GetSeq()),
				slog.Any("panic", r))
			if s.dumpPath != "" {
				s.DumpState(s.dumpPath)
			}
		}
	}()

	start := time.Now()

	// Sequence numbers are assigned locally by the transport, so a gap means frames were lost in between.
	if seq := ev.GetSeq(); seq != 0 {
		if seq != s.nextSeq {
			slog.Warn("Sequence gap", slog.Uint64("expected", s.nextSeq), slog.Uint64("got", seq))
		}
		s.nextSeq = seq + 1
	}

	if s.journal != nil {
		if err := s.journal.RecordEvent(ctx, s.store.SessionID(), ev); err != nil {
			s.metrics.RecordJournalError()
			slog.Warn("Journal write failed", slog.Any("error", err))
		}
	}

	if ev.GetType() == event.EvUnknown {
		s.metrics.RecordUnknownEvent()
		slog.Debug("Ignoring unknown event", slog.Any("event", ev))
	}

	// Classify first: the cancel rule needs the order the reducer is about to remove.
	actor := s.store.ActingAs()
	var (
		note         domain.Notification
		shouldNotify bool
	)
	s.store.Read(func(st *mirror.State) {
		note, shouldNotify = classify(ev, actor, st)
	})

	out := s.store.Apply(ev)
	s.metrics.RecordEvent(out.Changed, time.Since(start).Nanoseconds())

	if shouldNotify {
		s.emit(ctx, note)
	}
}

var classify = notify.Classify

func (s *Sequencer) emit(ctx context.Context, n domain.Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	s.metrics.RecordNotification()
	if s.sink != nil {
		s.sink.Notify(n)
	}
	if s.journal != nil {
		if err := s.journal.RecordNotification(ctx, s.store.SessionID(), n); err != nil {
			s.metrics.RecordJournalError()
			slog.Warn("Journal write failed", slog.Any("error", err))
		}
	}
}

// DumpState writes the current mirror to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	snap := s.store.Snapshot()
	data := struct {
		SessionID string        `json:"session_id"`
		NextSeq   uint64        `json:"next_seq"`
		State     *mirror.State `json:"state"`
	}{
		SessionID: s.store.SessionID(),
		NextSeq:   s.nextSeq,
		State:     snap,
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
