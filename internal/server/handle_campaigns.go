package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/service"
)

type JoinRequest struct {
	InviteCode string `json:"inviteCode"`
}

type LinkRequest struct {
	CharacterID string `json:"characterId"`
}

func handleCreateCampaign(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redsheet.CampaignInput
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := campaigns.Create(r.Context(), mustUser(r), req)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleListCampaigns(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := campaigns.List(r.Context(), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetCampaign(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := campaigns.Get(r.Context(), chi.URLParam(r, "id"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleUpdateCampaign(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redsheet.CampaignPatch
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := campaigns.Update(r.Context(), chi.URLParam(r, "id"), mustUser(r), req)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleDeleteCampaign(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := campaigns.Delete(r.Context(), chi.URLParam(r, "id"), mustUser(r)); err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGenerateInvite(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := campaigns.GenerateInvite(r.Context(), chi.URLParam(r, "id"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleJoinCampaign(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := campaigns.Join(r.Context(), req.InviteCode, mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleRemovePlayer(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := campaigns.RemovePlayer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleLinkCharacter(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LinkRequest
		if err := readJSON(r, &req); err != nil || req.CharacterID == "" {
			writeBadBody(w)
			return
		}
		c, err := campaigns.LinkCharacter(r.Context(), chi.URLParam(r, "id"), req.CharacterID, mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleUnlinkCharacter(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := campaigns.UnlinkCharacter(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "characterID"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleCampaignCharacters(logger *slog.Logger, campaigns *service.Campaigns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := campaigns.Characters(r.Context(), chi.URLParam(r, "id"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
