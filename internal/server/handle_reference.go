package server

import (
	"net/http"

	"github.com/nightcity/redsheet/internal/redsheet"
)

type ReferenceResponse struct {
	SkillGroups           []redsheet.SkillGroup       `json:"skillGroups"`
	RoleAbilities         []redsheet.RoleAbilityInfo  `json:"roleAbilities"`
	FoundationalCyberware []redsheet.Cyberware        `json:"foundationalCyberware"`
	JournalEntryTypes     []redsheet.JournalEntryType `json:"journalEntryTypes"`
	Limits                redsheet.Limits             `json:"limits"`
}

func handleReference() http.HandlerFunc {
	ref := ReferenceResponse{
		SkillGroups:           redsheet.SkillGroups(),
		RoleAbilities:         redsheet.RoleAbilities(),
		FoundationalCyberware: redsheet.FoundationalCyberware(),
		JournalEntryTypes:     redsheet.JournalEntryTypes,
		Limits:                redsheet.RuleLimits(),
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, ref)
	}
}
