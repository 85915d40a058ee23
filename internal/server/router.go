// Package server wires the HTTP API: routes, middleware and handler
// adaptation.
package server

import (
	"net/http"

	"github.com/maruel/sheetdb/internal/server/handlers"
	"github.com/maruel/sheetdb/internal/server/ratelimit"
)

// Config holds the HTTP-level settings.
type Config struct {
	// JWTSecret enables bearer authentication when not empty.
	JWTSecret []byte
	// MaxRequestBodyBytes caps request bodies; 0 disables the cap.
	MaxRequestBodyBytes int64
	// RateLimits throttles clients; nil disables it.
	RateLimits *ratelimit.Config
}

// NewRouter creates and configures the HTTP router.
func NewRouter(h *handlers.Handler, cfg *Config) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/health", Wrap(h.Health))

	// Sheets
	mux.Handle("GET /api/sheets", Wrap(h.ListSheets))
	mux.Handle("POST /api/sheets", Wrap(h.CreateSheet))
	mux.Handle("GET /api/sheets/{sheet}", Wrap(h.GetSheet))
	mux.Handle("GET /api/sheets/{sheet}/schema", Wrap(h.Schema))
	mux.Handle("GET /api/sheets/{sheet}/history", Wrap(h.History))
	mux.Handle("POST /api/sheets/{sheet}/refresh-formula", Wrap(h.RefreshFormula))

	// Records
	mux.Handle("GET /api/sheets/{sheet}/records", Wrap(h.ListRecords))
	mux.Handle("POST /api/sheets/{sheet}/records/query", Wrap(h.QueryRecords))
	mux.Handle("POST /api/sheets/{sheet}/records/pick", Wrap(h.PickRecord))
	mux.Handle("POST /api/sheets/{sheet}/records", Wrap(h.InsertRecords))
	mux.Handle("PATCH /api/sheets/{sheet}/records", Wrap(h.UpdateRecords))
	mux.Handle("PUT /api/sheets/{sheet}/records", Wrap(h.UpsertRecord))
	mux.Handle("DELETE /api/sheets/{sheet}/records", Wrap(h.ClearRecords))

	var handler http.Handler = mux
	handler = BodyLimit(cfg.MaxRequestBodyBytes)(handler)
	handler = AuthMiddleware(cfg.JWTSecret)(handler)
	if cfg.RateLimits != nil {
		handler = cfg.RateLimits.Middleware(handler)
	}
	return RequestLog(handler)
}
