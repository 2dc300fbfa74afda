package server

import (
	"encoding/json"
	"net/http"
	"strings"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/nightcity/redsheet/internal/handler/health"
	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/service"
)

type apiResponse struct {
	status int
	body   any
}

type apiOperation struct {
	method  string
	path    string
	summary string
	desc    string
	req     any
	resps   []apiResponse
}

type idParam struct {
	ID string `path:"id"`
}

type playerParams struct {
	ID     string `path:"id"`
	UserID string `path:"userID"`
}

type characterParams struct {
	ID          string `path:"id"`
	CharacterID string `path:"characterID"`
}

type entryParams struct {
	ID      string `path:"id"`
	EntryID string `path:"entryID"`
}

type journalQuery struct {
	ID    string                    `path:"id"`
	Type  redsheet.JournalEntryType `query:"type"`
	Query string                    `query:"q"`
}

type tokenQuery struct {
	ID    string `path:"id"`
	Token string `query:"token" required:"true"`
}

// paramsFor describes the path and query parameters of an operation.
func paramsFor(method, path string) any {
	switch {
	case strings.HasSuffix(path, "/events"), strings.HasPrefix(path, "/ws/"):
		return tokenQuery{}
	case method == http.MethodGet && strings.HasSuffix(path, "/journal"):
		return journalQuery{}
	case strings.Contains(path, "{userID}"):
		return playerParams{}
	case strings.Contains(path, "{characterID}"):
		return characterParams{}
	case strings.Contains(path, "{entryID}"):
		return entryParams{}
	case strings.Contains(path, "{id}"):
		return idParam{}
	}
	return nil
}

func okResp(body any) apiResponse { return apiResponse{http.StatusOK, body} }
func createdResp(body any) apiResponse { return apiResponse{http.StatusCreated, body} }
func errResps(statuses ...int) []apiResponse {
	out := make([]apiResponse, len(statuses))
	for i, s := range statuses {
		out[i] = apiResponse{s, ErrorResponse{}}
	}
	return out
}

func apiOperations() []apiOperation {
	authed := errResps(http.StatusUnauthorized)
	owned := errResps(http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound)
	gm := errResps(http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound)

	return []apiOperation{
		{http.MethodGet, "/healthz", "Health check", "Returns the health status of backend dependencies.", nil,
			[]apiResponse{okResp(health.Report{}), {http.StatusServiceUnavailable, health.Report{}}}},
		{http.MethodGet, "/api/reference", "Reference data", "Skill groups, role abilities, foundational cyberware and rule limits.", nil,
			[]apiResponse{okResp(ReferenceResponse{})}},

		{http.MethodPost, "/api/auth/register", "Register", "Creates an account and returns a token pair.", redsheet.Registration{},
			append([]apiResponse{createdResp(service.Session{})}, errResps(http.StatusBadRequest, http.StatusConflict, http.StatusTooManyRequests)...)},
		{http.MethodPost, "/api/auth/login", "Log in", "Exchanges email and password for a token pair.", LoginRequest{},
			append([]apiResponse{okResp(service.Session{})}, errResps(http.StatusUnauthorized, http.StatusTooManyRequests)...)},
		{http.MethodPost, "/api/auth/refresh", "Refresh tokens", "Rotates the refresh token. The previous one is revoked.", RefreshRequest{},
			append([]apiResponse{okResp(service.Session{})}, authed...)},
		{http.MethodPost, "/api/auth/logout", "Log out", "Revokes the current refresh token.", nil,
			append([]apiResponse{{http.StatusNoContent, nil}}, authed...)},
		{http.MethodGet, "/api/auth/me", "Current user", "Returns the authenticated user.", nil,
			append([]apiResponse{okResp(redsheet.User{})}, authed...)},

		{http.MethodGet, "/api/characters", "List characters", "Characters owned by the caller, newest first.", nil,
			append([]apiResponse{okResp([]redsheet.Character{})}, authed...)},
		{http.MethodPost, "/api/characters", "Create character", "Derived stats are computed server-side.", redsheet.CharacterInput{},
			append([]apiResponse{createdResp(redsheet.Character{})}, errResps(http.StatusBadRequest, http.StatusUnauthorized)...)},
		{http.MethodGet, "/api/characters/{id}", "Get character", "", nil,
			append([]apiResponse{okResp(redsheet.Character{})}, owned...)},
		{http.MethodPatch, "/api/characters/{id}", "Update character", "Recomputes derived stats when inputs change.", redsheet.CharacterPatch{},
			append([]apiResponse{okResp(redsheet.Character{})}, owned...)},
		{http.MethodDelete, "/api/characters/{id}", "Delete character", "Also unlinks the character from every campaign.", nil,
			append([]apiResponse{{http.StatusNoContent, nil}}, owned...)},
		{http.MethodPost, "/api/characters/{id}/damage", "Take damage", "Hit points never drop below zero.", AmountRequest{},
			append([]apiResponse{okResp(redsheet.Character{})}, owned...)},
		{http.MethodPost, "/api/characters/{id}/heal", "Heal", "Hit points never exceed the maximum.", AmountRequest{},
			append([]apiResponse{okResp(redsheet.Character{})}, owned...)},
		{http.MethodPost, "/api/characters/{id}/luck/spend", "Spend luck", "Fails with INSUFFICIENT_LUCK when the pool is too small.", AmountRequest{},
			append([]apiResponse{okResp(redsheet.Character{})}, owned...)},
		{http.MethodPost, "/api/characters/{id}/luck/restore", "Restore luck", "Refills current luck to the LUCK stat.", nil,
			append([]apiResponse{okResp(redsheet.Character{})}, owned...)},

		{http.MethodGet, "/api/campaigns", "List campaigns", "Campaigns the caller runs or plays in.", nil,
			append([]apiResponse{okResp([]redsheet.Campaign{})}, authed...)},
		{http.MethodPost, "/api/campaigns", "Create campaign", "The caller becomes game master.", redsheet.CampaignInput{},
			append([]apiResponse{createdResp(redsheet.Campaign{})}, errResps(http.StatusBadRequest, http.StatusUnauthorized)...)},
		{http.MethodPost, "/api/campaigns/join", "Join campaign", "Redeems a single-use invite code.", JoinRequest{},
			append([]apiResponse{okResp(redsheet.Campaign{})}, errResps(http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusTooManyRequests)...)},
		{http.MethodGet, "/api/campaigns/{id}", "Get campaign", "Invite fields are visible to the game master only.", nil,
			append([]apiResponse{okResp(redsheet.Campaign{})}, gm...)},
		{http.MethodPatch, "/api/campaigns/{id}", "Update campaign", "Game master only.", redsheet.CampaignPatch{},
			append([]apiResponse{okResp(redsheet.Campaign{})}, gm...)},
		{http.MethodDelete, "/api/campaigns/{id}", "Delete campaign", "Game master only.", nil,
			append([]apiResponse{{http.StatusNoContent, nil}}, gm...)},
		{http.MethodPost, "/api/campaigns/{id}/invite", "Generate invite", "Replaces any previous code. Game master only.", nil,
			append([]apiResponse{okResp(redsheet.Campaign{})}, gm...)},
		{http.MethodDelete, "/api/campaigns/{id}/players/{userID}", "Remove player", "Also unlinks the player's characters.", nil,
			append([]apiResponse{okResp(redsheet.Campaign{})}, gm...)},
		{http.MethodGet, "/api/campaigns/{id}/characters", "Campaign characters", "Full sheets of linked characters. Game master only.", nil,
			append([]apiResponse{okResp([]redsheet.Character{})}, gm...)},
		{http.MethodPost, "/api/campaigns/{id}/characters", "Link character", "Participants link characters they own.", LinkRequest{},
			append([]apiResponse{okResp(redsheet.Campaign{})}, errResps(http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict)...)},
		{http.MethodDelete, "/api/campaigns/{id}/characters/{characterID}", "Unlink character", "Only the character's owner may unlink it.", nil,
			append([]apiResponse{okResp(redsheet.Campaign{})}, gm...)},
		{http.MethodGet, "/api/campaigns/{id}/journal", "List journal", "Filter with ?type= and search with ?q=.", nil,
			append([]apiResponse{okResp([]redsheet.JournalEntry{})}, owned...)},
		{http.MethodPost, "/api/campaigns/{id}/journal", "Add journal entry", "", redsheet.JournalEntryInput{},
			append([]apiResponse{createdResp(redsheet.Campaign{})}, owned...)},
		{http.MethodPatch, "/api/campaigns/{id}/journal/{entryID}", "Update journal entry", "", redsheet.JournalPatch{},
			append([]apiResponse{okResp(redsheet.Campaign{})}, owned...)},
		{http.MethodDelete, "/api/campaigns/{id}/journal/{entryID}", "Delete journal entry", "", nil,
			append([]apiResponse{okResp(redsheet.Campaign{})}, gm...)},
		{http.MethodGet, "/api/campaigns/{id}/events", "Campaign event stream", "Server-Sent Events. Pass the access token as ?token=.", nil,
			[]apiResponse{{http.StatusOK, nil}, {http.StatusUnauthorized, ErrorResponse{}}, {http.StatusForbidden, ErrorResponse{}}}},
		{http.MethodGet, "/ws/campaigns/{id}", "Campaign WebSocket feed", "Same events as the SSE stream over WebSocket.", nil,
			[]apiResponse{{http.StatusSwitchingProtocols, nil}}},
	}
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Redsheet API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Character sheets, campaigns and journals for Cyberpunk RED tables.")

	for _, o := range apiOperations() {
		oc, err := r.NewOperationContext(o.method, o.path)
		if err != nil {
			continue
		}
		oc.SetSummary(o.summary)
		if o.desc != "" {
			oc.SetDescription(o.desc)
		}
		if p := paramsFor(o.method, o.path); p != nil {
			oc.AddReqStructure(p)
		}
		if o.req != nil {
			oc.AddReqStructure(o.req)
		}
		for _, resp := range o.resps {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if o.path == "/api/campaigns/{id}/events" && resp.status == http.StatusOK {
				opts = append(opts, openapi.WithContentType("text/event-stream"))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}
	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
