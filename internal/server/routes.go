package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	limited := rateLimit(deps.Limiter, deps.Metrics, logger)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Redsheet API", "/openapi.json", "/docs"))
	r.Get("/api/reference", handleReference())

	r.Route("/api/auth", func(r chi.Router) {
		r.With(limited).Post("/register", handleRegister(logger, deps.Accounts))
		r.With(limited).Post("/login", handleLogin(logger, deps.Accounts))
		r.Post("/refresh", handleRefresh(logger, deps.Accounts))

		r.Group(func(r chi.Router) {
			r.Use(requireUser(deps.Accounts))
			r.Post("/logout", handleLogout(logger, deps.Accounts))
			r.Get("/me", handleMe(logger, deps.Accounts))
		})
	})

	r.Route("/api/characters", func(r chi.Router) {
		r.Use(requireUser(deps.Accounts))
		r.Get("/", handleListCharacters(logger, deps.Characters))
		r.Post("/", handleCreateCharacter(logger, deps.Characters))
		r.Get("/{id}", handleGetCharacter(logger, deps.Characters))
		r.Patch("/{id}", handleUpdateCharacter(logger, deps.Characters))
		r.Delete("/{id}", handleDeleteCharacter(logger, deps.Characters))
		r.Post("/{id}/damage", handleAmount(logger, deps.Characters, damage))
		r.Post("/{id}/heal", handleAmount(logger, deps.Characters, heal))
		r.Post("/{id}/luck/spend", handleAmount(logger, deps.Characters, spendLuck))
		r.Post("/{id}/luck/restore", handleRestoreLuck(logger, deps.Characters))
	})

	r.Route("/api/campaigns", func(r chi.Router) {
		// Authenticates from ?token= rather than the Authorization header.
		r.Get("/{id}/events", handleEvents(logger, deps))

		r.Group(func(r chi.Router) {
			r.Use(requireUser(deps.Accounts))
			r.Get("/", handleListCampaigns(logger, deps.Campaigns))
			r.Post("/", handleCreateCampaign(logger, deps.Campaigns))
			r.With(limited).Post("/join", handleJoinCampaign(logger, deps.Campaigns))

			r.Get("/{id}", handleGetCampaign(logger, deps.Campaigns))
			r.Patch("/{id}", handleUpdateCampaign(logger, deps.Campaigns))
			r.Delete("/{id}", handleDeleteCampaign(logger, deps.Campaigns))
			r.Post("/{id}/invite", handleGenerateInvite(logger, deps.Campaigns))
			r.Delete("/{id}/players/{userID}", handleRemovePlayer(logger, deps.Campaigns))

			r.Get("/{id}/characters", handleCampaignCharacters(logger, deps.Campaigns))
			r.Post("/{id}/characters", handleLinkCharacter(logger, deps.Campaigns))
			r.Delete("/{id}/characters/{characterID}", handleUnlinkCharacter(logger, deps.Campaigns))

			r.Get("/{id}/journal", handleJournalEntries(logger, deps.Campaigns))
			r.Post("/{id}/journal", handleAddJournalEntry(logger, deps.Campaigns))
			r.Patch("/{id}/journal/{entryID}", handleUpdateJournalEntry(logger, deps.Campaigns))
			r.Delete("/{id}/journal/{entryID}", handleDeleteJournalEntry(logger, deps.Campaigns))
		})
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
