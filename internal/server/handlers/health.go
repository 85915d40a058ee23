package handlers

import (
	"context"

	"github.com/maruel/sheetdb/internal/models"
)

// Health returns the health status of the server.
func (h *Handler) Health(ctx context.Context, req models.HealthRequest) (*models.HealthResponse, error) {
	return &models.HealthResponse{Status: "ok", Version: h.opts.Version}, nil
}
