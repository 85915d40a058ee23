package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/maruel/sheetdb/internal/errors"
	"github.com/maruel/sheetdb/internal/sheet"
	"github.com/maruel/sheetdb/internal/workbook"
)

// toAPIError maps workbook and table failures to API errors.
func toAPIError(name string, err error) error {
	var ews apierrors.ErrorWithStatus
	if errors.As(err, &ews) {
		return err
	}
	var cfgErr *sheet.ConfigError
	switch {
	case errors.Is(err, workbook.ErrSheetNotFound):
		return apierrors.SheetNotFound(name)
	case errors.As(err, &cfgErr):
		e := apierrors.NewAPIError(http.StatusUnprocessableEntity, apierrors.ErrConfiguration, cfgErr.Error()).
			WithDetail("sheet", name).
			WithDetail("header_row", cfgErr.HeaderRow)
		if cfgErr.Column > 0 {
			e = e.WithDetail("column", cfgErr.Column)
		}
		return e.Wrap(err)
	case errors.Is(err, sheet.ErrInvalidHeaderRow):
		return apierrors.BadRequest(err.Error()).WithDetail("sheet", name)
	case errors.Is(err, sheet.ErrFormulasUnsupported):
		return apierrors.NewAPIError(http.StatusNotImplemented, apierrors.ErrNotImplemented, "workbook does not store formulas").Wrap(err)
	case errors.Is(err, workbook.ErrHasHeader):
		return apierrors.NewAPIError(http.StatusConflict, apierrors.ErrConflict, "header row already set").WithDetail("sheet", name)
	default:
		return apierrors.NewAPIError(http.StatusInternalServerError, apierrors.ErrStorageError, "workbook operation failed").Wrap(err)
	}
}

func missingSheet() error {
	return apierrors.MissingField("sheet")
}
