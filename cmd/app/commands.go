package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"tradedesk/internal/app"
	"tradedesk/internal/infra/storage"
	"tradedesk/internal/notify"

	"github.com/spf13/cobra"
)

var (
	marketID    int64
	orderSize   string
	orderPrice  string
	orderSide   string
	waitTimeout time.Duration
	journalKind string
	journalMax  int
	showNotes   bool
	depthOut    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the venue and log notifications until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runSession,
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place one order and exit",
	Args:  cobra.NoArgs,
	RunE:  placeOrder,
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Cancel all of your orders in a market",
	Args:  cobra.NoArgs,
	RunE:  cancelAll,
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print recent journal entries",
	Args:  cobra.NoArgs,
	RunE:  printJournal,
}

var depthCmd = &cobra.Command{
	Use:   "depth",
	Short: "Render a depth chart PNG for a market",
	Args:  cobra.NoArgs,
	RunE:  renderDepth,
}

func init() {
	for _, c := range []*cobra.Command{orderCmd, outCmd, depthCmd} {
		c.Flags().Int64Var(&marketID, "market", 0, "Market id")
		c.Flags().DurationVar(&waitTimeout, "wait", 10*time.Second, "How long to wait for the market to sync")
		_ = c.MarkFlagRequired("market")
	}

	orderCmd.Flags().StringVar(&orderSize, "size", "", "Order size")
	orderCmd.Flags().StringVar(&orderPrice, "price", "", "Limit price")
	orderCmd.Flags().StringVar(&orderSide, "side", "bid", "bid or offer")

	journalCmd.Flags().StringVar(&journalKind, "kind", "", "Only show this event kind")
	journalCmd.Flags().IntVar(&journalMax, "limit", 20, "Number of rows")
	journalCmd.Flags().BoolVar(&showNotes, "notifications", false, "Show notifications instead of events")

	depthCmd.Flags().StringVar(&depthOut, "out", "depth.png", "Output PNG path")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func startSession(ctx context.Context) (*app.Bootstrap, error) {
	b := app.NewBootstrap(configPath)
	if err := b.Initialize(); err != nil {
		return nil, err
	}
	if err := b.Start(ctx, app.LogSink()); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	b, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	slog.InfoContext(ctx, "Running. Press Ctrl+C to exit.")
	<-ctx.Done()
	slog.Info("Shutting down gracefully...")
	return nil
}

func placeOrder(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	b, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.WaitForMarket(ctx, marketID, waitTimeout); err != nil {
		return err
	}
	if err := b.Service.PlaceOrder(marketID, orderSize, orderPrice, orderSide); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "order sent to market %d\n", marketID)
	return nil
}

func cancelAll(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	b, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.WaitForMarket(ctx, marketID, waitTimeout); err != nil {
		return err
	}
	if err := b.Service.CancelAll(marketID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cancel-all sent to market %d\n", marketID)
	return nil
}

func renderDepth(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	b, err := startSession(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.WaitForMarket(ctx, marketID, waitTimeout); err != nil {
		return err
	}
	detail, err := b.Service.Market(marketID)
	if err != nil {
		return err
	}
	cfg := b.Config.UI
	if err := b.Service.RenderDepth(marketID, depthOut, cfg.DepthWidth, cfg.DepthHeight); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: bid %s / offer %s / mid %s -> %s\n",
		detail.Market.Name,
		notify.FormatNumber(detail.Book.BestBid),
		notify.FormatNumber(detail.Book.BestOffer),
		notify.FormatNumber(detail.Book.Mid),
		depthOut)
	return nil
}

func printJournal(cmd *cobra.Command, args []string) error {
	b := app.NewBootstrap(configPath)
	if err := b.Initialize(); err != nil {
		return err
	}
	defer b.Close()
	if b.Journal == nil {
		return fmt.Errorf("journal is disabled in %s", configPath)
	}

	ctx := cmd.Context()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if showNotes {
		recs, err := b.Journal.RecentNotifications(ctx, journalMax)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "AT\tACTOR\tSEVERITY\tTITLE\tDESCRIPTION")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.At.Format(time.RFC3339), r.ActorID, r.Severity, r.Title, r.Description)
		}
		return nil
	}

	entries, err := b.Journal.RecentEvents(ctx, journalKind, journalMax)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "SEQ\tRECEIVED\tKIND\tSESSION\tPAYLOAD")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.ReceivedAt.Format(time.RFC3339), e.Kind, shortID(e), e.Payload)
	}
	return nil
}

func shortID(e storage.JournalEntry) string {
	if len(e.SessionID) > 8 {
		return e.SessionID[:8]
	}
	return e.SessionID
}
