package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nightcity/redsheet/internal/apperr"
	"github.com/nightcity/redsheet/internal/events"
	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/store"
)

// inviteAttempts bounds the retries when a fresh code collides with another
// campaign's unexpired code.
const inviteAttempts = 5

type CampaignStore interface {
	CreateCampaign(ctx context.Context, c redsheet.Campaign) error
	GetCampaign(ctx context.Context, id string) (redsheet.Campaign, error)
	ListCampaignsForUser(ctx context.Context, userID string) ([]redsheet.Campaign, error)
	CampaignByInvite(ctx context.Context, code string, now time.Time) (redsheet.Campaign, error)
	PatchCampaign(ctx context.Context, id string, fields map[string]any, now time.Time) (redsheet.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
	SetInviteCode(ctx context.Context, id, code string, expiry, now time.Time) (redsheet.Campaign, error)
	ConsumeInvite(ctx context.Context, id, code, userID string, now time.Time) (redsheet.Campaign, error)
	RemovePlayer(ctx context.Context, id, userID string, now time.Time) (redsheet.Campaign, error)
	LinkCharacter(ctx context.Context, id, characterID, userID string, now time.Time) (redsheet.Campaign, error)
	UnlinkCharacter(ctx context.Context, id, characterID string, now time.Time) (redsheet.Campaign, error)
	AddJournalEntry(ctx context.Context, id string, e redsheet.JournalEntry, now time.Time) (redsheet.Campaign, error)
	UpdateJournalEntry(ctx context.Context, id, entryID string, fields map[string]any, now time.Time) (redsheet.Campaign, error)
	DeleteJournalEntry(ctx context.Context, id, entryID string, now time.Time) (redsheet.Campaign, error)

	CharacterOwner(ctx context.Context, id string) (string, error)
	ListCharactersByIDs(ctx context.Context, ids []string) ([]redsheet.Character, error)
}

// Campaigns runs membership, invites and the journal. Every returned
// campaign is already projected for the caller with ViewFor.
type Campaigns struct {
	store     CampaignStore
	events    Publisher
	inviteTTL time.Duration
	newCode   func() (string, error)
	env
}

func NewCampaigns(s CampaignStore, p Publisher, inviteTTL time.Duration) *Campaigns {
	if p == nil {
		p = nopPublisher{}
	}
	if inviteTTL <= 0 {
		inviteTTL = redsheet.InviteTTL
	}
	return &Campaigns{
		store:     s,
		events:    p,
		inviteTTL: inviteTTL,
		newCode:   redsheet.NewInviteCode,
		env:       defaultEnv(),
	}
}

func (s *Campaigns) Create(ctx context.Context, userID string, in redsheet.CampaignInput) (redsheet.Campaign, error) {
	now := s.now()
	c, err := redsheet.NewCampaign(s.newID(), userID, in, now)
	if err != nil {
		return redsheet.Campaign{}, err
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	return c.ViewFor(userID, now), nil
}

func (s *Campaigns) List(ctx context.Context, userID string) ([]redsheet.Campaign, error) {
	list, err := s.store.ListCampaignsForUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "campaigns")
	}
	now := s.now()
	for i := range list {
		list[i] = list[i].ViewFor(userID, now)
	}
	return list, nil
}

// Get returns the campaign if userID takes part in it.
func (s *Campaigns) Get(ctx context.Context, id, userID string) (redsheet.Campaign, error) {
	c, err := s.participant(ctx, id, userID)
	if err != nil {
		return redsheet.Campaign{}, err
	}
	return c.ViewFor(userID, s.now()), nil
}

// Authorize reports whether userID may follow the campaign's live feed.
func (s *Campaigns) Authorize(ctx context.Context, id, userID string) error {
	_, err := s.participant(ctx, id, userID)
	return err
}

func (s *Campaigns) Update(ctx context.Context, id, userID string, p redsheet.CampaignPatch) (redsheet.Campaign, error) {
	if _, err := s.gameMaster(ctx, id, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	if err := p.Validate(); err != nil {
		return redsheet.Campaign{}, err
	}
	now := s.now()
	c, err := s.store.PatchCampaign(ctx, id, p.Fields(), now)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.CampaignUpdated, CampaignID: id, UserID: userID})
	return c.ViewFor(userID, now), nil
}

func (s *Campaigns) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.gameMaster(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.DeleteCampaign(ctx, id); err != nil {
		return translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.CampaignDeleted, CampaignID: id, UserID: userID})
	return nil
}

// GenerateInvite replaces the campaign's invite with a fresh code valid for
// the configured TTL.
func (s *Campaigns) GenerateInvite(ctx context.Context, id, userID string) (redsheet.Campaign, error) {
	if _, err := s.gameMaster(ctx, id, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	now := s.now()
	for range inviteAttempts {
		code, err := s.newCode()
		if err != nil {
			return redsheet.Campaign{}, err
		}
		holder, err := s.store.CampaignByInvite(ctx, code, now)
		switch {
		case err == nil && holder.ID != id:
			continue
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return redsheet.Campaign{}, translate(err, "campaign")
		}
		c, err := s.store.SetInviteCode(ctx, id, code, now.Add(s.inviteTTL), now)
		if err != nil {
			return redsheet.Campaign{}, translate(err, "campaign")
		}
		return c.ViewFor(userID, now), nil
	}
	return redsheet.Campaign{}, fmt.Errorf("no free invite code after %d attempts", inviteAttempts)
}

// Join redeems an invite code for userID. Unknown and expired codes are
// indistinguishable.
func (s *Campaigns) Join(ctx context.Context, code, userID string) (redsheet.Campaign, error) {
	code = redsheet.NormalizeInviteCode(code)
	if code == "" {
		return redsheet.Campaign{}, apperr.ErrInviteInvalid
	}
	now := s.now()
	c, err := s.store.CampaignByInvite(ctx, code, now)
	if errors.Is(err, store.ErrNotFound) {
		return redsheet.Campaign{}, apperr.ErrInviteInvalid
	}
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	if c.IsGameMaster(userID) {
		return redsheet.Campaign{}, apperr.ErrIsGameMaster
	}
	if c.IsParticipant(userID) {
		return redsheet.Campaign{}, apperr.ErrAlreadyMember
	}

	c, err = s.store.ConsumeInvite(ctx, c.ID, code, userID, now)
	if errors.Is(err, store.ErrConditionFailed) || errors.Is(err, store.ErrNotFound) {
		return redsheet.Campaign{}, apperr.ErrInviteInvalid
	}
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.PlayerJoined, CampaignID: c.ID, UserID: userID})
	return c.ViewFor(userID, now), nil
}

// RemovePlayer drops a player and unlinks every character they own.
func (s *Campaigns) RemovePlayer(ctx context.Context, id, playerID, userID string) (redsheet.Campaign, error) {
	if _, err := s.gameMaster(ctx, id, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	now := s.now()
	c, err := s.store.RemovePlayer(ctx, id, playerID, now)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.PlayerRemoved, CampaignID: id, UserID: playerID})
	return c.ViewFor(userID, now), nil
}

func (s *Campaigns) LinkCharacter(ctx context.Context, id, characterID, userID string) (redsheet.Campaign, error) {
	c, err := s.participant(ctx, id, userID)
	if err != nil {
		return redsheet.Campaign{}, err
	}
	if err := s.owns(ctx, characterID, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	if c.HasCharacter(characterID) {
		return redsheet.Campaign{}, apperr.ErrAlreadyLinked
	}

	now := s.now()
	c, err = s.store.LinkCharacter(ctx, id, characterID, userID, now)
	if errors.Is(err, store.ErrConditionFailed) {
		return redsheet.Campaign{}, s.linkFailure(ctx, id, characterID, userID)
	}
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.CharacterLinked, CampaignID: id, UserID: userID, CharacterID: characterID})
	return c.ViewFor(userID, now), nil
}

// linkFailure reloads the campaign to tell which guard of a link rejected it.
func (s *Campaigns) linkFailure(ctx context.Context, id, characterID, userID string) error {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return translate(err, "campaign")
	}
	if !c.IsParticipant(userID) {
		return apperr.Forbidden("you are not part of this campaign")
	}
	if c.HasCharacter(characterID) {
		return apperr.ErrAlreadyLinked
	}
	return apperr.New(apperr.CodeConcurrentModification, "campaign was modified concurrently")
}

// UnlinkCharacter removes a character its owner linked. Unlinking a
// character that is not linked is a no-op.
func (s *Campaigns) UnlinkCharacter(ctx context.Context, id, characterID, userID string) (redsheet.Campaign, error) {
	if err := s.owns(ctx, characterID, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	now := s.now()
	c, err := s.store.UnlinkCharacter(ctx, id, characterID, now)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.CharacterUnlinked, CampaignID: id, UserID: userID, CharacterID: characterID})
	return c.ViewFor(userID, now), nil
}

// Characters lists the linked characters for the game master.
func (s *Campaigns) Characters(ctx context.Context, id, userID string) ([]redsheet.Character, error) {
	c, err := s.gameMaster(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if len(c.CharacterIDs) == 0 {
		return []redsheet.Character{}, nil
	}
	list, err := s.store.ListCharactersByIDs(ctx, c.CharacterIDs)
	return list, translate(err, "characters")
}

func (s *Campaigns) AddJournalEntry(ctx context.Context, id, userID string, in redsheet.JournalEntryInput) (redsheet.Campaign, error) {
	if _, err := s.participant(ctx, id, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	now := s.now()
	e, err := redsheet.NewJournalEntry(s.newID(), in, now)
	if err != nil {
		return redsheet.Campaign{}, err
	}
	c, err := s.store.AddJournalEntry(ctx, id, e, now)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.JournalEntryAdded, CampaignID: id, UserID: userID, EntryID: e.ID})
	return c.ViewFor(userID, now), nil
}

func (s *Campaigns) UpdateJournalEntry(ctx context.Context, id, entryID, userID string, p redsheet.JournalPatch) (redsheet.Campaign, error) {
	if _, err := s.participant(ctx, id, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	if err := p.Validate(); err != nil {
		return redsheet.Campaign{}, err
	}
	now := s.now()
	c, err := s.store.UpdateJournalEntry(ctx, id, entryID, p.Fields(now), now)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "journal entry")
	}
	s.events.Publish(events.Event{Type: events.JournalEntryUpdated, CampaignID: id, UserID: userID, EntryID: entryID})
	return c.ViewFor(userID, now), nil
}

func (s *Campaigns) DeleteJournalEntry(ctx context.Context, id, entryID, userID string) (redsheet.Campaign, error) {
	if _, err := s.participant(ctx, id, userID); err != nil {
		return redsheet.Campaign{}, err
	}
	now := s.now()
	c, err := s.store.DeleteJournalEntry(ctx, id, entryID, now)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	s.events.Publish(events.Event{Type: events.JournalEntryDeleted, CampaignID: id, UserID: userID, EntryID: entryID})
	return c.ViewFor(userID, now), nil
}

// JournalEntries lists the journal, narrowed by type and then by a search
// query when either is given.
func (s *Campaigns) JournalEntries(ctx context.Context, id, userID string, typ redsheet.JournalEntryType, query string) ([]redsheet.JournalEntry, error) {
	c, err := s.participant(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	entries := c.JournalEntries
	if typ != "" {
		if !typ.Valid() {
			return nil, apperr.Invalid(fmt.Sprintf("unknown journal entry type %q", typ))
		}
		entries = redsheet.EntriesByType(entries, typ)
	}
	if query != "" {
		entries = redsheet.SearchEntries(entries, query)
	}
	if entries == nil {
		entries = []redsheet.JournalEntry{}
	}
	return entries, nil
}

func (s *Campaigns) participant(ctx context.Context, id, userID string) (redsheet.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	if !c.IsParticipant(userID) {
		return redsheet.Campaign{}, apperr.Forbidden("you are not part of this campaign")
	}
	return c, nil
}

func (s *Campaigns) gameMaster(ctx context.Context, id, userID string) (redsheet.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return redsheet.Campaign{}, translate(err, "campaign")
	}
	if !c.IsGameMaster(userID) {
		return redsheet.Campaign{}, apperr.Forbidden("only the game master can do this")
	}
	return c, nil
}

func (s *Campaigns) owns(ctx context.Context, characterID, userID string) error {
	owner, err := s.store.CharacterOwner(ctx, characterID)
	if err != nil {
		return translate(err, "character")
	}
	if owner != userID {
		return apperr.ErrNotCharacterOwner
	}
	return nil
}
