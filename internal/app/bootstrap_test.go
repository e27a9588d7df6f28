package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tradedesk/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func venueServer(t *testing.T, frames ...string) *httptest.Server {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// authenticate
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		for _, f := range frames {
			conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestBootstrap_EndToEnd(t *testing.T) {
	server := venueServer(t,
		`{"users":{"users":[{"id":"A","name":"alice"}]}}`,
		`{"marketCreated":{"id":1,"name":"Rain","ownerId":"A"}}`,
		`{"orderCreated":{"marketId":1,"userId":"A","order":{"id":7,"ownerId":"A","side":"BID","price":"10","size":"5"}}}`,
	)
	defer server.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "app:\n  name: tradedesk\n  version: test\n" +
		"venue:\n  ws_url: " + strings.Replace(server.URL, "http://", "ws://", 1) + "\n  auth_token: tok\n  act_as: A\n" +
		"storage:\n  enabled: true\n  journal_path: " + filepath.Join(dir, "journal.db") + "\n" +
		"logging:\n  dir: " + filepath.Join(dir, "logs") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0644))

	var mu sync.Mutex
	var titles []string
	sink := domain.NotificationSinkFunc(func(n domain.Notification) {
		mu.Lock()
		titles = append(titles, n.Title)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBootstrap(cfgPath)
	require.NoError(t, b.Initialize())
	require.NoError(t, b.Start(ctx, sink))
	defer b.Close()

	require.NoError(t, b.WaitForMarket(ctx, 1, 2*time.Second))
	require.Eventually(t, func() bool {
		d, err := b.Service.Market(1)
		return err == nil && len(d.Bids) == 1
	}, 2*time.Second, 10*time.Millisecond)

	detail, err := b.Service.Market(1)
	require.NoError(t, err)
	assert.True(t, detail.Book.BestBid.Equal(decimal.NewFromInt(10)))
	assert.True(t, detail.Bids[0].Mine)

	require.NoError(t, b.Service.CancelAll(1))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(titles) == 2
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"Market created", "Order created"}, titles)
	mu.Unlock()

	require.Eventually(t, func() bool {
		recs, err := b.Journal.RecentNotifications(ctx, 10)
		return err == nil && len(recs) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBootstrap_StartRequiresInitialize(t *testing.T) {
	b := NewBootstrap("")
	assert.Equal(t, DefaultConfigPath, b.ConfigPath)
	assert.Error(t, b.Start(context.Background(), nil))
}
