package redsheet

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nightcity/redsheet/internal/apperr"
)

// InviteTTL is how long a freshly generated invite code stays valid.
const InviteTTL = 24 * time.Hour

// Campaign is a game master's table: its players, linked characters, journal
// and the optional outstanding invite code.
type Campaign struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	GameMasterID     string         `json:"gameMasterId"`
	PlayerIDs        []string       `json:"playerIds"`
	CharacterIDs     []string       `json:"characterIds"`
	JournalEntries   []JournalEntry `json:"journalEntries"`
	CurrentSession   int            `json:"currentSession"`
	ImageURL         string         `json:"imageUrl,omitempty"`
	IsActive         bool           `json:"isActive"`
	InviteCode       *string        `json:"inviteCode,omitempty"`
	InviteCodeExpiry *time.Time     `json:"inviteCodeExpiry,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type CampaignInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// CampaignPatch holds the details a game master may edit. Membership is
// changed only through the invite and link operations.
type CampaignPatch struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	ImageURL       *string `json:"imageUrl,omitempty"`
	CurrentSession *int    `json:"currentSession,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

func NewCampaign(id, gameMasterID string, in CampaignInput, now time.Time) (Campaign, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Campaign{}, apperr.Invalid("campaign name is required")
	}
	c := Campaign{
		ID:           id,
		Name:         name,
		Description:  in.Description,
		GameMasterID: gameMasterID,
		ImageURL:     in.ImageURL,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.Normalize()
	return c, nil
}

// Normalize replaces nil lists with empty ones so stored documents always
// carry arrays the store can append to.
func (c *Campaign) Normalize() {
	if c.PlayerIDs == nil {
		c.PlayerIDs = []string{}
	}
	if c.CharacterIDs == nil {
		c.CharacterIDs = []string{}
	}
	if c.JournalEntries == nil {
		c.JournalEntries = []JournalEntry{}
	}
	for i := range c.JournalEntries {
		if c.JournalEntries[i].Tags == nil {
			c.JournalEntries[i].Tags = []string{}
		}
	}
}

func (c Campaign) IsGameMaster(userID string) bool {
	return c.GameMasterID == userID
}

// IsParticipant reports whether userID is the game master or a player.
func (c Campaign) IsParticipant(userID string) bool {
	return c.IsGameMaster(userID) || slices.Contains(c.PlayerIDs, userID)
}

func (c Campaign) HasCharacter(characterID string) bool {
	return slices.Contains(c.CharacterIDs, characterID)
}

// InviteActive reports whether the stored code can still be redeemed.
func (c Campaign) InviteActive(now time.Time) bool {
	return c.InviteCode != nil && c.InviteCodeExpiry != nil && now.Before(*c.InviteCodeExpiry)
}

// ViewFor returns the campaign as userID should see it: the invite code is
// shown only to the game master and only while it is still redeemable.
func (c Campaign) ViewFor(userID string, now time.Time) Campaign {
	if !c.IsGameMaster(userID) || !c.InviteActive(now) {
		c.InviteCode = nil
		c.InviteCodeExpiry = nil
	}
	return c
}

// Validate checks a patch before it is written.
func (p CampaignPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.Invalid("campaign name must not be blank")
	}
	if p.CurrentSession != nil && *p.CurrentSession < 0 {
		return apperr.Invalid("currentSession must not be negative")
	}
	return nil
}

// Fields flattens the patch into top-level document keys.
func (p CampaignPatch) Fields() map[string]any {
	f := make(map[string]any)
	if p.Name != nil {
		f["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.ImageURL != nil {
		f["imageUrl"] = *p.ImageURL
	}
	if p.CurrentSession != nil {
		f["currentSession"] = *p.CurrentSession
	}
	if p.IsActive != nil {
		f["isActive"] = *p.IsActive
	}
	return f
}

// NewInviteCode returns a 6-character upper-case hex code drawn from 3
// cryptographically random bytes.
func NewInviteCode() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// NormalizeInviteCode prepares user input for lookup.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
