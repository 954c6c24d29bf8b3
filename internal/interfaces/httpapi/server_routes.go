package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsHandler http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
}

func registerLeaderboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/summary", handler.GetSummary)
	mux.HandleFunc("GET /v1/standings/teams", handler.ListTeamStandings)
	mux.HandleFunc("GET /v1/standings/players", handler.ListTopPlayers)
	mux.HandleFunc("GET /v1/items", handler.ListTopItems)
	mux.HandleFunc("GET /v1/drops/high-value", handler.ListHighValueDrops)
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/{player}", handler.GetPlayerSummary)
}

func registerSpoonRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/tiles", handler.ListTiles)
	mux.HandleFunc("GET /v1/categories", handler.ListCategories)
	mux.HandleFunc("GET /v1/aliases", handler.ListAliases)
	mux.HandleFunc("GET /v1/spoon", handler.GetSpoonOverview)
	mux.HandleFunc("GET /v1/spoon/{category}", handler.GetSpoonView)
	// Drops cached live bundles so the next live view refetches from WOM.
	mux.HandleFunc("DELETE /v1/spoon/cache", handler.InvalidateSpoonCache)
}

func registerEventLogRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/event-log", handler.UploadEventLog)
}
