package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/service"
)

// handleJournalEntries lists a campaign's journal, optionally narrowed by
// ?type= and a free-text ?q=.
func handleJournalEntries(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		entries, err := campaigns.JournalEntries(r.Context(), chi.URLParam(r, "id"), mustUser(r),
			redsheet.JournalEntryType(q.Get("type")), q.Get("q"))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleAddJournalEntry(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redsheet.JournalEntryInput
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := campaigns.AddJournalEntry(r.Context(), chi.URLParam(r, "id"), mustUser(r), req)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleUpdateJournalEntry(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redsheet.JournalPatch
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := campaigns.UpdateJournalEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"), mustUser(r), req)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleDeleteJournalEntry(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := campaigns.DeleteJournalEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
