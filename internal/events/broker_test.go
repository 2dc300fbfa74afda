package events

import (
	"encoding/json"
	"testing"
)

func TestPublishReachesCampaignSubscribersOnly(t *testing.T) {
	b := NewBroker()
	mine := b.Subscribe("k1")
	other := b.Subscribe("k2")
	defer b.Unsubscribe("k1", mine)
	defer b.Unsubscribe("k2", other)

	b.Publish(Event{Type: PlayerJoined, CampaignID: "k1", UserID: "u1"})

	select {
	case data := <-mine:
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.Type != PlayerJoined || e.UserID != "u1" {
			t.Errorf("event = %+v", e)
		}
	default:
		t.Fatal("subscriber of k1 got nothing")
	}

	select {
	case data := <-other:
		t.Errorf("subscriber of k2 got %s", data)
	default:
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("k1")

	for range 20 {
		b.Publish(Event{Type: JournalEntryAdded, CampaignID: "k1"})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want %d", len(ch), cap(ch))
	}
}

func TestUnsubscribeCleansUp(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("k1")
	if n := b.Subscribers("k1"); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}
	b.Unsubscribe("k1", ch)
	if n := b.Subscribers("k1"); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
	b.Publish(Event{Type: CampaignDeleted, CampaignID: "k1"})
}
