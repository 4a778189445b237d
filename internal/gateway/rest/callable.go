package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefrontbase/storefront/pkg/model"
)

// Callable status codes, as seen by clients in error.status.
const (
	StatusInvalidArgument  = "INVALID_ARGUMENT"
	StatusUnauthenticated  = "UNAUTHENTICATED"
	StatusPermissionDenied = "PERMISSION_DENIED"
	StatusNotFound         = "NOT_FOUND"
	StatusInternal         = "INTERNAL"
)

var callableHTTPStatus = map[string]int{
	StatusInvalidArgument:  http.StatusBadRequest,
	StatusUnauthenticated:  http.StatusUnauthorized,
	StatusPermissionDenied: http.StatusForbidden,
	StatusNotFound:         http.StatusNotFound,
	StatusInternal:         http.StatusInternalServerError,
}

// CallableError is a failure reported through the callable error envelope.
type CallableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *CallableError) Error() string {
	return e.Status + ": " + e.Message
}

func (e *CallableError) HTTPStatus() int {
	if code, ok := callableHTTPStatus[e.Status]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func invalidArgument(msg string) *CallableError {
	return &CallableError{Status: StatusInvalidArgument, Message: msg}
}

func internalError(msg string) *CallableError {
	return &CallableError{Status: StatusInternal, Message: msg}
}

// callableFunc handles the data member of a callable request and returns
// the value placed under result.
type callableFunc func(ctx context.Context, data json.RawMessage) (interface{}, error)

type callableRequest struct {
	Data json.RawMessage `json:"data"`
}

type callableResponse struct {
	Result interface{} `json:"result"`
}

type callableErrorResponse struct {
	Error *CallableError `json:"error"`
}

func (h *Handler) handleCallable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	fn, ok := h.callables[name]
	if !ok {
		writeCallableError(w, &CallableError{Status: StatusNotFound, Message: "Function not found"})
		return
	}

	var req callableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Callable: invalid request body", "callable", name, "error", err)
		writeCallableError(w, invalidArgument("Bad Request"))
		return
	}

	result, err := fn(r.Context(), req.Data)
	if err != nil {
		var ce *CallableError
		switch {
		case errors.As(err, &ce):
			writeCallableError(w, ce)
		case model.IsCanceled(err):
			w.WriteHeader(StatusClientClosedRequest)
		default:
			slog.Error("Callable failed", "callable", name, "error", err)
			writeCallableError(w, internalError("INTERNAL"))
		}
		return
	}

	writeJSON(w, http.StatusOK, callableResponse{Result: result})
}

func writeCallableError(w http.ResponseWriter, ce *CallableError) {
	writeJSON(w, ce.HTTPStatus(), callableErrorResponse{Error: ce})
}

// decodeData unmarshals the callable data member into v. A missing or
// null data member leaves v at its zero value.
func decodeData(data json.RawMessage, v interface{}) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalidArgument("Bad Request")
	}
	return nil
}
