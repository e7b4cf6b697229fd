package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/sentinel-orbital/catalog"
	"github.com/signalsfoundry/sentinel-orbital/model"
)

// ErrBadRequest is a package-level sentinel for malformed client input.
var ErrBadRequest = errors.New("bad request")

// httpStatusFor maps domain errors onto HTTP status codes.
func httpStatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, catalog.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrObjectExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidElements),
		errors.Is(err, model.ErrInvalidManeuver):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatusFor(err), errorPayload{Error: err.Error()})
}
