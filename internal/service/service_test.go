package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nightcity/redsheet/internal/apperr"
	"github.com/nightcity/redsheet/internal/auth"
	"github.com/nightcity/redsheet/internal/database"
	"github.com/nightcity/redsheet/internal/events"
	"github.com/nightcity/redsheet/internal/migrations"
	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/store"
)

var testStart = time.Date(2045, 3, 3, 21, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	clock      *fakeClock
	events     *recorder
	characters *Characters
	campaigns  *Campaigns
	accounts   *Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(ctx, db))

	st := store.New(db)
	clock := &fakeClock{now: testStart}
	seq := 0
	e := env{
		now: clock.Now,
		newID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}

	rec := &recorder{}
	f := &fixture{
		clock:      clock,
		events:     rec,
		characters: NewCharacters(st),
		campaigns:  NewCampaigns(st, rec, 0),
		accounts: NewAccounts(st,
			auth.NewTokens("access", "refresh", 15*time.Minute, time.Hour),
			auth.NewPasswords(bcrypt.MinCost)),
	}
	f.characters.env = e
	f.campaigns.env = e
	f.accounts.env = e
	return f
}

func characterInput(handle string) redsheet.CharacterInput {
	return redsheet.CharacterInput{
		Handle: handle,
		Role:   redsheet.RoleNetrunner,
		Stats: redsheet.Stats{
			Intelligence: 7, Reflexes: 6, Dexterity: 5, Technology: 6, Cool: 5,
			Willpower: 4, Luck: 5, Move: 5, Body: 5, Empathy: 6,
		},
		RoleAbility: redsheet.RoleAbility{Name: "Interface", Rank: 4},
	}
}

func (f *fixture) character(t *testing.T, userID, handle string) redsheet.Character {
	t.Helper()
	c, err := f.characters.Create(context.Background(), userID, characterInput(handle))
	require.NoError(t, err)
	return c
}

func (f *fixture) campaign(t *testing.T, gm string) redsheet.Campaign {
	t.Helper()
	c, err := f.campaigns.Create(context.Background(), gm, redsheet.CampaignInput{Name: "Watson Blues"})
	require.NoError(t, err)
	return c
}

// join makes userID a player of the campaign through a fresh invite.
func (f *fixture) join(t *testing.T, c redsheet.Campaign, userID string) {
	t.Helper()
	ctx := context.Background()
	inv, err := f.campaigns.GenerateInvite(ctx, c.ID, c.GameMasterID)
	require.NoError(t, err)
	_, err = f.campaigns.Join(ctx, *inv.InviteCode, userID)
	require.NoError(t, err)
}

func assertCode(t *testing.T, err error, want apperr.Code) {
	t.Helper()
	require.Error(t, err)
	code, ok := apperr.CodeOf(err)
	require.True(t, ok, "error %v carries no code", err)
	assert.Equal(t, want, code)
}

func TestCharacterLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.character(t, "alice", "Spider")
	assert.Equal(t, 35, c.MaxHitPoints)
	assert.Equal(t, 35, c.CurrentHitPoints)
	assert.Equal(t, 5, c.CurrentLuck)

	_, err := f.characters.Get(ctx, c.ID, "bob")
	assertCode(t, err, apperr.CodeForbidden)

	_, err = f.characters.Get(ctx, "ghost", "alice")
	assertCode(t, err, apperr.CodeNotFound)

	f.clock.Advance(time.Minute)
	body := 8
	stats := c.Stats
	stats.Body = body
	got, err := f.characters.Update(ctx, c.ID, "alice", redsheet.CharacterPatch{Stats: &stats})
	require.NoError(t, err)
	assert.Equal(t, 40, got.MaxHitPoints)
	assert.Equal(t, 35, got.CurrentHitPoints)
	assert.Equal(t, 8, got.DeathSave)
	assert.True(t, got.UpdatedAt.After(c.UpdatedAt))

	handle := "Stolen"
	_, err = f.characters.Update(ctx, c.ID, "bob", redsheet.CharacterPatch{Handle: &handle})
	assertCode(t, err, apperr.CodeForbidden)

	list, err := f.characters.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Spider", list[0].Handle)

	assertCode(t, f.characters.Delete(ctx, c.ID, "bob"), apperr.CodeForbidden)
	require.NoError(t, f.characters.Delete(ctx, c.ID, "alice"))
	_, err = f.characters.Get(ctx, c.ID, "alice")
	assertCode(t, err, apperr.CodeNotFound)
}

func TestDamageFloorsAndHealCaps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.character(t, "alice", "Spider")

	got, err := f.characters.Damage(ctx, c.ID, "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentHitPoints)

	got, err = f.characters.Heal(ctx, c.ID, "alice", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentHitPoints)

	got, err = f.characters.Heal(ctx, c.ID, "alice", 999)
	require.NoError(t, err)
	assert.Equal(t, got.MaxHitPoints, got.CurrentHitPoints)

	_, err = f.characters.Damage(ctx, c.ID, "alice", -1)
	assertCode(t, err, apperr.CodeInvalidInput)

	_, err = f.characters.Damage(ctx, c.ID, "bob", 5)
	assertCode(t, err, apperr.CodeForbidden)
	again, err := f.characters.Get(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, got.MaxHitPoints, again.CurrentHitPoints, "forbidden damage must not write")
}

func TestLuck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.character(t, "alice", "Spider")

	got, err := f.characters.SpendLuck(ctx, c.ID, "alice", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentLuck)

	_, err = f.characters.SpendLuck(ctx, c.ID, "alice", 2)
	assertCode(t, err, apperr.CodeInsufficientLuck)

	for range 2 {
		got, err = f.characters.RestoreLuck(ctx, c.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, got.Stats.Luck, got.CurrentLuck)
	}
}

func TestConcurrentLuckSpendNeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.character(t, "alice", "Spider")

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.characters.SpendLuck(ctx, c.ID, "alice", 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assertCode(t, err, apperr.CodeInsufficientLuck)
	}
	assert.Equal(t, 5, ok)

	got, err := f.characters.Get(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentLuck)
}

func TestInviteLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := f.campaign(t, "gm")

	_, err := f.campaigns.GenerateInvite(ctx, k.ID, "alice")
	assertCode(t, err, apperr.CodeForbidden)

	inv, err := f.campaigns.GenerateInvite(ctx, k.ID, "gm")
	require.NoError(t, err)
	require.NotNil(t, inv.InviteCode)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{6}$`), *inv.InviteCode)
	require.NotNil(t, inv.InviteCodeExpiry)
	assert.WithinDuration(t, testStart.Add(24*time.Hour), *inv.InviteCodeExpiry, time.Second)

	_, err = f.campaigns.Join(ctx, *inv.InviteCode, "gm")
	assertCode(t, err, apperr.CodeIsGameMaster)

	joined, err := f.campaigns.Join(ctx, " "+strings.ToLower(*inv.InviteCode)+" ", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, joined.PlayerIDs)
	assert.Nil(t, joined.InviteCode)

	gmView, err := f.campaigns.Get(ctx, k.ID, "gm")
	require.NoError(t, err)
	assert.Nil(t, gmView.InviteCode)
	assert.Nil(t, gmView.InviteCodeExpiry)

	_, err = f.campaigns.Join(ctx, *inv.InviteCode, "bob")
	assertCode(t, err, apperr.CodeInviteInvalid)

	assert.Contains(t, f.events.types(), events.PlayerJoined)
}

func TestJoinAlreadyMemberAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := f.campaign(t, "gm")
	f.join(t, k, "alice")

	inv, err := f.campaigns.GenerateInvite(ctx, k.ID, "gm")
	require.NoError(t, err)
	_, err = f.campaigns.Join(ctx, *inv.InviteCode, "alice")
	assertCode(t, err, apperr.CodeAlreadyMember)

	f.clock.Advance(24*time.Hour + time.Second)
	_, err = f.campaigns.Join(ctx, *inv.InviteCode, "bob")
	assertCode(t, err, apperr.CodeInviteInvalid)

	gmView, err := f.campaigns.Get(ctx, k.ID, "gm")
	require.NoError(t, err)
	assert.Nil(t, gmView.InviteCode, "expired code is hidden")

	_, err = f.campaigns.Join(ctx, "", "bob")
	assertCode(t, err, apperr.CodeInviteInvalid)
}

func TestInviteVisibleOnlyToGameMaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := f.campaign(t, "gm")
	f.join(t, k, "alice")

	_, err := f.campaigns.GenerateInvite(ctx, k.ID, "gm")
	require.NoError(t, err)

	asPlayer, err := f.campaigns.Get(ctx, k.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, asPlayer.InviteCode)

	asGM, err := f.campaigns.Get(ctx, k.ID, "gm")
	require.NoError(t, err)
	assert.NotNil(t, asGM.InviteCode)
}

func TestGenerateInviteRetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.campaign(t, "gm")
	second := f.campaign(t, "gm")

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	f.campaigns.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	a, err := f.campaigns.GenerateInvite(ctx, first.ID, "gm")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", *a.InviteCode)

	b, err := f.campaigns.GenerateInvite(ctx, second.ID, "gm")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", *b.InviteCode)
}

func TestRemovePlayerUnlinksTheirCharacters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := f.campaign(t, "gm")
	f.join(t, k, "alice")
	f.join(t, k, "bob")

	a := f.character(t, "alice", "Spider")
	b := f.character(t, "bob", "Rook")
	_, err := f.campaigns.LinkCharacter(ctx, k.ID, a.ID, "alice")
	require.NoError(t, err)
	_, err = f.campaigns.LinkCharacter(ctx, k.ID, b.ID, "bob")
	require.NoError(t, err)

	_, err = f.campaigns.RemovePlayer(ctx, k.ID, "alice", "bob")
	assertCode(t, err, apperr.CodeForbidden)

	got, err := f.campaigns.RemovePlayer(ctx, k.ID, "alice", "gm")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, got.PlayerIDs)
	assert.Equal(t, []string{b.ID}, got.CharacterIDs)

	_, err = f.campaigns.Get(ctx, k.ID, "alice")
	assertCode(t, err, apperr.CodeForbidden)
}

func TestLinkCharacterRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := f.campaign(t, "gm")
	f.join(t, k, "alice")

	mine := f.character(t, "alice", "Spider")
	theirs := f.character(t, "bob", "Rook")

	_, err := f.campaigns.LinkCharacter(ctx, k.ID, theirs.ID, "alice")
	assertCode(t, err, apperr.CodeNotCharacterOwner)
	unchanged, err := f.campaigns.Get(ctx, k.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, unchanged.CharacterIDs)

	_, err = f.campaigns.LinkCharacter(ctx, k.ID, theirs.ID, "bob")
	assertCode(t, err, apperr.CodeForbidden)

	_, err = f.campaigns.LinkCharacter(ctx, k.ID, mine.ID, "alice")
	require.NoError(t, err)
	_, err = f.campaigns.LinkCharacter(ctx, k.ID, mine.ID, "alice")
	assertCode(t, err, apperr.CodeAlreadyLinked)

	_, err = f.campaigns.UnlinkCharacter(ctx, k.ID, mine.ID, "gm")
	assertCode(t, err, apperr.CodeNotCharacterOwner)

	got, err := f.campaigns.UnlinkCharacter(ctx, k.ID, mine.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, got.CharacterIDs)

	got, err = f.campaigns.UnlinkCharacter(ctx, k.ID, mine.ID, "alice")
	require.NoError(t, err, "unlinking twice is a no-op")
	assert.Empty(t, got.CharacterIDs)
}

func TestCampaignCharactersForGameMaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := f.campaign(t, "gm")
	f.join(t, k, "alice")

	empty, err := f.campaigns.Characters(ctx, k.ID, "gm")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	c := f.character(t, "alice", "Spider")
	_, err = f.campaigns.LinkCharacter(ctx, k.ID, c.ID, "alice")
	require.NoError(t, err)

	list, err := f.campaigns.Characters(ctx, k.ID, "gm")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Spider", list[0].Handle)

	_, err = f.campaigns.Characters(ctx, k.ID, "alice")
	assertCode(t, err, apperr.CodeForbidden)
}

func TestCampaignCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.campaigns.Create(ctx, "gm", redsheet.CampaignInput{Name: "  "})
	assertCode(t, err, apperr.CodeInvalidInput)

	k := f.campaign(t, "gm")
	assert.True(t, k.IsActive)
	assert.Equal(t, "gm", k.GameMasterID)

	f.clock.Advance(time.Minute)
	other := f.campaign(t, "someone")
	f.join(t, other, "gm")

	list, err := f.campaigns.List(ctx, "gm")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, other.ID, list[0].ID)

	name := "Heywood Nights"
	session := 3
	_, err = f.campaigns.Update(ctx, k.ID, "someone", redsheet.CampaignPatch{Name: &name})
	assertCode(t, err, apperr.CodeForbidden)

	got, err := f.campaigns.Update(ctx, k.ID, "gm", redsheet.CampaignPatch{Name: &name, CurrentSession: &session})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, 3, got.CurrentSession)

	_, err = f.campaigns.Get(ctx, k.ID, "stranger")
	assertCode(t, err, apperr.CodeForbidden)

	assertCode(t, f.campaigns.Delete(ctx, k.ID, "someone"), apperr.CodeForbidden)
	require.NoError(t, f.campaigns.Delete(ctx, k.ID, "gm"))
	_, err = f.campaigns.Get(ctx, k.ID, "gm")
	assertCode(t, err, apperr.CodeNotFound)
}

func TestJournal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	k := f.campaign(t, "gm")
	f.join(t, k, "alice")

	add := func(in redsheet.JournalEntryInput) redsheet.Campaign {
		c, err := f.campaigns.AddJournalEntry(ctx, k.ID, "alice", in)
		require.NoError(t, err)
		return c
	}
	add(redsheet.JournalEntryInput{Title: "Night Market run", Type: redsheet.JournalSession, Tags: []string{"heist"}})
	add(redsheet.JournalEntryInput{Title: "Rogue", Content: "Afterlife fixer", Type: redsheet.JournalNPC})
	c := add(redsheet.JournalEntryInput{Title: "Loot crate", Type: redsheet.JournalLoot})
	require.Len(t, c.JournalEntries, 3)
	assert.Equal(t, []string{}, c.JournalEntries[1].Tags)

	_, err := f.campaigns.AddJournalEntry(ctx, k.ID, "stranger", redsheet.JournalEntryInput{Title: "x", Type: redsheet.JournalNote})
	assertCode(t, err, apperr.CodeForbidden)

	byTag, err := f.campaigns.JournalEntries(ctx, k.ID, "gm", "", "heist")
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	byTitle, err := f.campaigns.JournalEntries(ctx, k.ID, "gm", "", "NIGHT")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)

	none, err := f.campaigns.JournalEntries(ctx, k.ID, "gm", "", "zzz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	npcs, err := f.campaigns.JournalEntries(ctx, k.ID, "gm", redsheet.JournalNPC, "")
	require.NoError(t, err)
	require.Len(t, npcs, 1)
	assert.Equal(t, "Rogue", npcs[0].Title)

	_, err = f.campaigns.JournalEntries(ctx, k.ID, "gm", "GOSSIP", "")
	assertCode(t, err, apperr.CodeInvalidInput)

	entryID := c.JournalEntries[1].ID
	f.clock.Advance(time.Hour)
	title := "Rogue Amendiares"
	updated, err := f.campaigns.UpdateJournalEntry(ctx, k.ID, entryID, "gm", redsheet.JournalPatch{Title: &title})
	require.NoError(t, err)
	e, _, ok := updated.FindJournalEntry(entryID)
	require.True(t, ok)
	assert.Equal(t, title, e.Title)
	assert.Equal(t, "Afterlife fixer", e.Content)
	assert.True(t, e.UpdatedAt.Equal(testStart.Add(time.Hour)))

	_, err = f.campaigns.UpdateJournalEntry(ctx, k.ID, "ghost", "gm", redsheet.JournalPatch{Title: &title})
	assertCode(t, err, apperr.CodeNotFound)

	deleted, err := f.campaigns.DeleteJournalEntry(ctx, k.ID, entryID, "alice")
	require.NoError(t, err)
	assert.Len(t, deleted.JournalEntries, 2)

	again, err := f.campaigns.DeleteJournalEntry(ctx, k.ID, entryID, "alice")
	require.NoError(t, err)
	assert.Len(t, again.JournalEntries, 2)
}

func TestAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg := redsheet.Registration{Email: "V@Afterlife.nc", Username: "vee", Password: "choombatta"}
	s, err := f.accounts.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, "v@afterlife.nc", s.User.Email)
	assert.NotEmpty(t, s.AccessToken)

	_, err = f.accounts.Register(ctx, reg)
	assertCode(t, err, apperr.CodeEmailTaken)

	_, err = f.accounts.Register(ctx, redsheet.Registration{Email: "nope", Username: "vee", Password: "choombatta"})
	assertCode(t, err, apperr.CodeInvalidInput)

	_, err = f.accounts.Login(ctx, "v@afterlife.nc", "wrong-password")
	assertCode(t, err, apperr.CodeInvalidCredentials)
	_, err = f.accounts.Login(ctx, "ghost@afterlife.nc", "choombatta")
	assertCode(t, err, apperr.CodeInvalidCredentials)

	login, err := f.accounts.Login(ctx, "v@afterlife.nc", "choombatta")
	require.NoError(t, err)

	uid, err := f.accounts.Authenticate(login.AccessToken)
	require.NoError(t, err)
	me, err := f.accounts.Me(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "vee", me.Username)

	_, err = f.accounts.Refresh(ctx, s.RefreshToken)
	assertCode(t, err, apperr.CodeUnauthenticated)

	rotated, err := f.accounts.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	_, err = f.accounts.Refresh(ctx, login.RefreshToken)
	assertCode(t, err, apperr.CodeUnauthenticated)

	require.NoError(t, f.accounts.Logout(ctx, uid))
	_, err = f.accounts.Refresh(ctx, rotated.RefreshToken)
	assertCode(t, err, apperr.CodeUnauthenticated)

	_, err = f.accounts.Authenticate("garbage")
	assertCode(t, err, apperr.CodeUnauthenticated)
}
