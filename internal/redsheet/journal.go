package redsheet

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nightcity/redsheet/internal/apperr"
)

type JournalEntryType string

const (
	JournalSession  JournalEntryType = "SESSION"
	JournalQuest    JournalEntryType = "QUEST"
	JournalNPC      JournalEntryType = "NPC"
	JournalLocation JournalEntryType = "LOCATION"
	JournalNote     JournalEntryType = "NOTE"
	JournalLoot     JournalEntryType = "LOOT"
)

var JournalEntryTypes = []JournalEntryType{
	JournalSession, JournalQuest, JournalNPC, JournalLocation, JournalNote, JournalLoot,
}

func (t JournalEntryType) Valid() bool {
	return slices.Contains(JournalEntryTypes, t)
}

// JournalEntry is a campaign note. The type-specific fields are optional on
// every entry regardless of its type.
type JournalEntry struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Type     JournalEntryType `json:"type"`
	Tags     []string         `json:"tags"`
	ImageURL string           `json:"imageUrl,omitempty"`

	SessionNumber *int       `json:"sessionNumber,omitempty"`
	SessionDate   *time.Time `json:"sessionDate,omitempty"`

	NPCRole     string `json:"npcRole,omitempty"`
	NPCLocation string `json:"npcLocation,omitempty"`
	NPCAttitude string `json:"npcAttitude,omitempty"`

	QuestStatus string `json:"questStatus,omitempty"`
	QuestGiver  string `json:"questGiver,omitempty"`
	QuestReward *int   `json:"questReward,omitempty"`

	District     string `json:"district,omitempty"`
	LocationType string `json:"locationType,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type JournalEntryInput struct {
	Title         string           `json:"title"`
	Content       string           `json:"content"`
	Type          JournalEntryType `json:"type"`
	Tags          []string         `json:"tags,omitempty"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	SessionNumber *int             `json:"sessionNumber,omitempty"`
	SessionDate   *time.Time       `json:"sessionDate,omitempty"`
	NPCRole       string           `json:"npcRole,omitempty"`
	NPCLocation   string           `json:"npcLocation,omitempty"`
	NPCAttitude   string           `json:"npcAttitude,omitempty"`
	QuestStatus   string           `json:"questStatus,omitempty"`
	QuestGiver    string           `json:"questGiver,omitempty"`
	QuestReward   *int             `json:"questReward,omitempty"`
	District      string           `json:"district,omitempty"`
	LocationType  string           `json:"locationType,omitempty"`
}

// JournalPatch lists the entry fields to overwrite. Nil means untouched.
type JournalPatch struct {
	Title         *string           `json:"title,omitempty"`
	Content       *string           `json:"content,omitempty"`
	Type          *JournalEntryType `json:"type,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	ImageURL      *string           `json:"imageUrl,omitempty"`
	SessionNumber *int              `json:"sessionNumber,omitempty"`
	SessionDate   *time.Time        `json:"sessionDate,omitempty"`
	NPCRole       *string           `json:"npcRole,omitempty"`
	NPCLocation   *string           `json:"npcLocation,omitempty"`
	NPCAttitude   *string           `json:"npcAttitude,omitempty"`
	QuestStatus   *string           `json:"questStatus,omitempty"`
	QuestGiver    *string           `json:"questGiver,omitempty"`
	QuestReward   *int              `json:"questReward,omitempty"`
	District      *string           `json:"district,omitempty"`
	LocationType  *string           `json:"locationType,omitempty"`
}

func (in JournalEntryInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Invalid("journal entry title is required")
	}
	if !in.Type.Valid() {
		return apperr.Invalid(fmt.Sprintf("unknown journal entry type %q", in.Type))
	}
	if in.SessionNumber != nil && *in.SessionNumber < 1 {
		return apperr.Invalid("sessionNumber must be at least 1")
	}
	return nil
}

func NewJournalEntry(id string, in JournalEntryInput, now time.Time) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return JournalEntry{
		ID:            id,
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		Type:          in.Type,
		Tags:          tags,
		ImageURL:      in.ImageURL,
		SessionNumber: in.SessionNumber,
		SessionDate:   in.SessionDate,
		NPCRole:       in.NPCRole,
		NPCLocation:   in.NPCLocation,
		NPCAttitude:   in.NPCAttitude,
		QuestStatus:   in.QuestStatus,
		QuestGiver:    in.QuestGiver,
		QuestReward:   in.QuestReward,
		District:      in.District,
		LocationType:  in.LocationType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (p JournalPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperr.Invalid("journal entry title must not be blank")
	}
	if p.Type != nil && !p.Type.Valid() {
		return apperr.Invalid(fmt.Sprintf("unknown journal entry type %q", *p.Type))
	}
	if p.SessionNumber != nil && *p.SessionNumber < 1 {
		return apperr.Invalid("sessionNumber must be at least 1")
	}
	return nil
}

// Fields flattens the patch into entry keys, always stamping updatedAt.
func (p JournalPatch) Fields(now time.Time) map[string]any {
	f := map[string]any{"updatedAt": now}
	set := func(key string, v *string) {
		if v != nil {
			f[key] = *v
		}
	}
	if p.Title != nil {
		f["title"] = strings.TrimSpace(*p.Title)
	}
	set("content", p.Content)
	if p.Type != nil {
		f["type"] = *p.Type
	}
	if p.Tags != nil {
		f["tags"] = p.Tags
	}
	set("imageUrl", p.ImageURL)
	if p.SessionNumber != nil {
		f["sessionNumber"] = *p.SessionNumber
	}
	if p.SessionDate != nil {
		f["sessionDate"] = *p.SessionDate
	}
	set("npcRole", p.NPCRole)
	set("npcLocation", p.NPCLocation)
	set("npcAttitude", p.NPCAttitude)
	set("questStatus", p.QuestStatus)
	set("questGiver", p.QuestGiver)
	if p.QuestReward != nil {
		f["questReward"] = *p.QuestReward
	}
	set("district", p.District)
	set("locationType", p.LocationType)
	return f
}

// FindJournalEntry returns the entry with id and its position.
func (c Campaign) FindJournalEntry(id string) (JournalEntry, int, bool) {
	for i, e := range c.JournalEntries {
		if e.ID == id {
			return e, i, true
		}
	}
	return JournalEntry{}, -1, false
}

// EntriesByType keeps entries whose type equals t.
func EntriesByType(entries []JournalEntry, t JournalEntryType) []JournalEntry {
	out := []JournalEntry{}
	for _, e := range entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// SearchEntries keeps entries whose title, content or any tag contains query,
// ignoring case.
func SearchEntries(entries []JournalEntry, query string) []JournalEntry {
	q := strings.ToLower(query)
	out := []JournalEntry{}
	for _, e := range entries {
		if e.matches(q) {
			out = append(out, e)
		}
	}
	return out
}

func (e JournalEntry) matches(lowerQuery string) bool {
	if strings.Contains(strings.ToLower(e.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(e.Content), lowerQuery) {
		return true
	}
	return slices.ContainsFunc(e.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), lowerQuery)
	})
}
