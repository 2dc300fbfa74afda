// Package events fans campaign changes out to live subscribers.
package events

import (
	"encoding/json"
	"sync"
)

type Type string

const (
	PlayerJoined        Type = "PLAYER_JOINED"
	PlayerRemoved       Type = "PLAYER_REMOVED"
	CharacterLinked     Type = "CHARACTER_LINKED"
	CharacterUnlinked   Type = "CHARACTER_UNLINKED"
	JournalEntryAdded   Type = "JOURNAL_ENTRY_ADDED"
	JournalEntryUpdated Type = "JOURNAL_ENTRY_UPDATED"
	JournalEntryDeleted Type = "JOURNAL_ENTRY_DELETED"
	CampaignUpdated     Type = "CAMPAIGN_UPDATED"
	CampaignDeleted     Type = "CAMPAIGN_DELETED"
)

// Event is the payload published to campaign subscribers.
type Event struct {
	Type        Type   `json:"type"`
	CampaignID  string `json:"campaignId"`
	UserID      string `json:"userId,omitempty"`
	CharacterID string `json:"characterId,omitempty"`
	EntryID     string `json:"entryId,omitempty"`
}

// Broker is an in-process pub/sub keyed by campaign ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel receiving JSON-encoded events for campaignID.
func (b *Broker) Subscribe(campaignID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[campaignID] == nil {
		b.subs[campaignID] = make(map[chan []byte]struct{})
	}
	b.subs[campaignID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(campaignID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[campaignID], ch)
	if len(b.subs[campaignID]) == 0 {
		delete(b.subs, campaignID)
	}
	b.mu.Unlock()
}

// Publish delivers e to every subscriber of its campaign without blocking.
func (b *Broker) Publish(e Event) {
	data, _ := json.Marshal(e)
	b.mu.RLock()
	for ch := range b.subs[e.CampaignID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports how many channels listen on campaignID.
func (b *Broker) Subscribers(campaignID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[campaignID])
}
