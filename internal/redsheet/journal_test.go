package redsheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightcity/redsheet/internal/redsheet"
)

func journalFixture(t *testing.T) []redsheet.JournalEntry {
	t.Helper()
	inputs := []redsheet.JournalEntryInput{
		{Title: "Night Market Run", Content: "Picked up the package.", Type: redsheet.JournalSession, Tags: []string{"corpo", "heist"}},
		{Title: "Rogue", Content: "Fixer at the Afterlife.", Type: redsheet.JournalNPC, NPCRole: "Fixer"},
		{Title: "Watson", Content: "Kabuki market district.", Type: redsheet.JournalLocation},
	}
	var entries []redsheet.JournalEntry
	for i, in := range inputs {
		e, err := redsheet.NewJournalEntry(string(rune('a'+i)), in, testNow)
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}

func TestNewJournalEntryDefaultsTags(t *testing.T) {
	e, err := redsheet.NewJournalEntry("e1", redsheet.JournalEntryInput{Title: "Loot", Type: redsheet.JournalLoot}, testNow)
	require.NoError(t, err)
	assert.NotNil(t, e.Tags)
	assert.Empty(t, e.Tags)
	assert.Equal(t, testNow, e.CreatedAt)
	assert.Equal(t, testNow, e.UpdatedAt)
}

func TestNewJournalEntryValidation(t *testing.T) {
	_, err := redsheet.NewJournalEntry("e1", redsheet.JournalEntryInput{Title: "", Type: redsheet.JournalNote}, testNow)
	assert.Error(t, err)

	_, err = redsheet.NewJournalEntry("e1", redsheet.JournalEntryInput{Title: "x", Type: "RUMOR"}, testNow)
	assert.Error(t, err)
}

func TestSearchEntries(t *testing.T) {
	entries := journalFixture(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"heist", []string{"Night Market Run"}},
		{"NIGHT", []string{"Night Market Run"}},
		{"market", []string{"Night Market Run", "Watson"}},
		{"afterlife", []string{"Rogue"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, e := range redsheet.SearchEntries(entries, tt.query) {
				got = append(got, e.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntriesByType(t *testing.T) {
	entries := journalFixture(t)
	npcs := redsheet.EntriesByType(entries, redsheet.JournalNPC)
	require.Len(t, npcs, 1)
	assert.Equal(t, "Rogue", npcs[0].Title)

	assert.Empty(t, redsheet.EntriesByType(entries, redsheet.JournalQuest))
}

func TestJournalPatchFields(t *testing.T) {
	title := "Updated"
	status := "DONE"
	f := redsheet.JournalPatch{Title: &title, QuestStatus: &status}.Fields(testNow)

	assert.Equal(t, "Updated", f["title"])
	assert.Equal(t, "DONE", f["questStatus"])
	assert.Equal(t, testNow, f["updatedAt"])
	assert.NotContains(t, f, "content")
}
