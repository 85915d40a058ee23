package handlers

import (
	"context"
	"net/http"

	apierrors "github.com/maruel/sheetdb/internal/errors"
	"github.com/maruel/sheetdb/internal/models"
	"github.com/maruel/sheetdb/internal/storage/git"
)

// History lists the commits that touched a sheet.
func (h *Handler) History(ctx context.Context, req models.HistoryRequest) (*models.HistoryResponse, error) {
	if h.opts.History == nil {
		return nil, apierrors.NewAPIError(http.StatusNotImplemented, apierrors.ErrNotImplemented, "history is disabled")
	}
	if req.Sheet == "" {
		return nil, missingSheet()
	}
	commits := []git.Commit{}
	if file := h.wb.File(req.Sheet); file != "" {
		c, err := h.opts.History.History(ctx, file, req.Limit)
		if err != nil {
			return nil, apierrors.InternalWithError("failed to read history", err)
		}
		commits = append(commits, c...)
	}
	return &models.HistoryResponse{Commits: commits}, nil
}
