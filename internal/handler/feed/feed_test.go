package feed_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/nightcity/redsheet/internal/events"
	"github.com/nightcity/redsheet/internal/handler/feed"
)

type counter struct{ n atomic.Int64 }

func (c *counter) Inc() { c.n.Add(1) }
func (c *counter) Dec() { c.n.Add(-1) }

func allowToken(ctx context.Context, token, campaignID string) (string, error) {
	if token != "good" {
		return "", errors.New("bad token")
	}
	return "user-1", nil
}

func TestFeedStreamsCampaignEvents(t *testing.T) {
	broker := events.NewBroker()
	open := &counter{}
	h := feed.NewHandler(slog.Default(), broker, allowToken, open)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/campaigns/k1?token=good"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for broker.Subscribers("k1") == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := open.n.Load(); got != 1 {
		t.Errorf("open connections = %d, want 1", got)
	}

	broker.Publish(events.Event{Type: events.JournalEntryAdded, CampaignID: "k1", EntryID: "e1"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e events.Event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Type != events.JournalEntryAdded || e.EntryID != "e1" {
		t.Errorf("event = %+v", e)
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestFeedRejectsBadToken(t *testing.T) {
	h := feed.NewHandler(slog.Default(), events.NewBroker(), allowToken, &counter{})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"missing token", "/campaigns/k1", http.StatusUnauthorized},
		{"rejected token", "/campaigns/k1?token=bad", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
