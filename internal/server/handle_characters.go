package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/service"
)

type AmountRequest struct {
	Amount int `json:"amount"`
}

func handleCreateCharacter(logger *slog.Logger, chars *service.Characters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redsheet.CharacterInput
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := chars.Create(r.Context(), mustUser(r), req)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleListCharacters(logger *slog.Logger, chars *service.Characters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := chars.List(r.Context(), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetCharacter(logger *slog.Logger, chars *service.Characters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := chars.Get(r.Context(), chi.URLParam(r, "id"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleUpdateCharacter(logger *slog.Logger, chars *service.Characters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redsheet.CharacterPatch
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := chars.Update(r.Context(), chi.URLParam(r, "id"), mustUser(r), req)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleDeleteCharacter(logger *slog.Logger, chars *service.Characters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := chars.Delete(r.Context(), chi.URLParam(r, "id"), mustUser(r)); err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// amountOp is the shape shared by damage, heal and luck spending.
type amountOp func(chars *service.Characters, r *http.Request, id, userID string, amount int) (redsheet.Character, error)

func handleAmount(logger *slog.Logger, chars *service.Characters, op amountOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AmountRequest
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		c, err := op(chars, r, chi.URLParam(r, "id"), mustUser(r), req.Amount)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func damage(chars *service.Characters, r *http.Request, id, userID string, amount int) (redsheet.Character, error) {
	return chars.Damage(r.Context(), id, userID, amount)
}

func heal(chars *service.Characters, r *http.Request, id, userID string, amount int) (redsheet.Character, error) {
	return chars.Heal(r.Context(), id, userID, amount)
}

func spendLuck(chars *service.Characters, r *http.Request, id, userID string, amount int) (redsheet.Character, error) {
	return chars.SpendLuck(r.Context(), id, userID, amount)
}

func handleRestoreLuck(logger *slog.Logger, chars *service.Characters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := chars.RestoreLuck(r.Context(), chi.URLParam(r, "id"), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
