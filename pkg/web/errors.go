package web

import (
	"errors"
	"net/http"

	"github.com/ritzau/campus-nav/pkg/engine"
	"github.com/ritzau/campus-nav/pkg/graph"
	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/pathfind"
)

// requestError is a malformed request, as opposed to a rejected edit
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var reqErr *requestError
	var mergeErr *importer.MergeError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	// Checked before ErrNotFound, which a rejected import may wrap
	case errors.As(err, &mergeErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, graph.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrDuplicateNode), errors.Is(err, graph.ErrDuplicateEdge):
		return http.StatusConflict
	case errors.Is(err, graph.ErrInvalidWeight),
		errors.Is(err, graph.ErrInvalidName),
		errors.Is(err, graph.ErrSelfLoop),
		errors.Is(err, pathfind.ErrNoPath),
		errors.Is(err, pathfind.ErrSameEndpoint),
		errors.Is(err, pathfind.ErrBrokenRoute),
		errors.Is(err, pathfind.ErrRouteTooShort),
		errors.Is(err, engine.ErrNeedTwoLocations),
		errors.Is(err, engine.ErrNothingSelected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request failed", "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
