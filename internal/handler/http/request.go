package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/reviewmod/internal/domain"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
	"github.com/utafrali/reviewmod/pkg/httputil"
	"github.com/utafrali/reviewmod/pkg/middleware"
	"github.com/utafrali/reviewmod/pkg/validator"
)

// maxBodyBytes limits request bodies; review text tops out at 5000 characters.
const maxBodyBytes = 64 << 10

// Query date formats, tried in order.
var dateLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

// decodeJSON decodes and validates the request body into dst. On failure it
// writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	err := validator.DecodeAndValidate(w, r, dst, maxBodyBytes)
	if err == nil {
		return true
	}
	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) {
		err = apperrors.InvalidInput("invalid request body: " + err.Error())
	}
	httputil.WriteError(w, r, err, logger)
	return false
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	return httputil.ParseID(w, name, chi.URLParam(r, "id"))
}

// actorID returns the caller id. Routes using it are mounted behind
// middleware.RequireActor.
func actorID(r *http.Request) int64 {
	id, _ := middleware.ActorIDFromContext(r.Context())
	return id
}

// parseWindow reads the startDate and endDate query parameters.
func parseWindow(r *http.Request) (domain.TimeWindow, error) {
	var window domain.TimeWindow
	q := r.URL.Query()

	if raw := q.Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return window, apperrors.InvalidInput("invalid startDate format, use ISO 8601 (YYYY-MM-DD)")
		}
		window.Start = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return window, apperrors.InvalidInput("invalid endDate format, use ISO 8601 (YYYY-MM-DD)")
		}
		window.End = &t
	}

	return window, window.Validate()
}

func parseDate(raw string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
