package server

import (
	"log/slog"
	"net/http"

	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func handleRegister(logger *slog.Logger, accounts *service.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redsheet.Registration
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		sess, err := accounts.Register(r.Context(), req)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

func handleLogin(logger *slog.Logger, accounts *service.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeBadBody(w)
			return
		}
		sess, err := accounts.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleRefresh(logger *slog.Logger, accounts *service.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := readJSON(r, &req); err != nil || req.RefreshToken == "" {
			writeBadBody(w)
			return
		}
		sess, err := accounts.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleLogout(logger *slog.Logger, accounts *service.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := accounts.Logout(r.Context(), mustUser(r)); err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMe(logger *slog.Logger, accounts *service.Accounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := accounts.Me(r.Context(), mustUser(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
