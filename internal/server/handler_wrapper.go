package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	apierrors "github.com/maruel/sheetdb/internal/errors"
)

// Wrap wraps a handler function to work as an http.Handler.
// The function must have signature: func(context.Context, In) (*Out, error)
// where In can be unmarshalled from JSON and Out is a struct.
// Path parameters are extracted into fields tagged with `path:"name"` and
// query parameters into fields tagged with `query:"name"`.
//
// Example:
//
//	type ListRecordsRequest struct {
//	    Sheet     string `path:"sheet"`
//	    HeaderRow int    `query:"header_row"`
//	}
//
//	func (h *Handler) ListRecords(ctx context.Context, req ListRecordsRequest) (*RecordsResponse, error)
func Wrap[In any, Out any](fn func(context.Context, In) (*Out, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := io.ReadAll(r.Body)
		if err2 := r.Body.Close(); err == nil {
			err = err2
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(ctx, w, apierrors.NewAPIError(http.StatusRequestEntityTooLarge, apierrors.ErrTooLarge, "request body too large").
					WithDetail("limit", tooLarge.Limit))
				return
			}
			writeError(ctx, w, apierrors.BadRequest("failed to read request body").Wrap(err))
			return
		}
		var input In
		if len(bytes.TrimSpace(body)) > 0 {
			d := json.NewDecoder(bytes.NewReader(body))
			d.DisallowUnknownFields()
			if err := d.Decode(&input); err != nil {
				writeError(ctx, w, apierrors.BadRequest("invalid request body").Wrap(err))
				return
			}
		}
		populatePathParams(r, &input)
		if err := populateQueryParams(r, &input); err != nil {
			writeError(ctx, w, err)
			return
		}

		output, err := fn(ctx, input)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(output); err != nil {
			slog.ErrorContext(ctx, "Failed to encode response", "err", err)
		}
	})
}

// populatePathParams sets the string fields tagged with `path:"name"`.
func populatePathParams(r *http.Request, input any) {
	elem, ok := structElem(input)
	if !ok {
		return
	}
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}
		if v := r.PathValue(tag); v != "" {
			elem.Field(i).SetString(v)
		}
	}
}

// populateQueryParams sets the string and int fields tagged with
// `query:"name"`. A malformed integer is a client error.
func populateQueryParams(r *http.Request, input any) error {
	elem, ok := structElem(input)
	if !ok {
		return nil
	}
	query := r.URL.Query()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("query")
		if tag == "" {
			continue
		}
		v := query.Get(tag)
		if v == "" {
			continue
		}
		//nolint:exhaustive // Only string and int are supported for query params
		switch field.Type.Kind() {
		case reflect.String:
			elem.Field(i).SetString(v)
		case reflect.Int:
			n, err := strconv.Atoi(v)
			if err != nil {
				return apierrors.BadRequest("invalid query parameter "+tag).WithDetail("value", v)
			}
			elem.Field(i).SetInt(int64(n))
		default:
		}
	}
	return nil
}

func structElem(input any) (reflect.Value, bool) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return reflect.Value{}, false
	}
	elem := val.Elem()
	return elem, elem.Kind() == reflect.Struct
}

// writeError writes err as a JSON error response. Errors that do not carry a
// status are reported as internal errors.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	code := apierrors.ErrInternal
	var details map[string]any
	var ews apierrors.ErrorWithStatus
	if errors.As(err, &ews) {
		statusCode = ews.StatusCode()
		code = ews.Code()
		details = ews.Details()
	}
	if statusCode >= 500 {
		slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", statusCode, "code", code)
	} else {
		slog.DebugContext(ctx, "Request rejected", "err", err, "statusCode", statusCode, "code", code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
		},
	}
	if len(details) > 0 {
		response["details"] = details
	}
	_ = json.NewEncoder(w).Encode(response)
}
