package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/internal/script"
)

const maxOpsBody = 1 << 20

// OpsRequest is the body of POST /ops.
type OpsRequest struct {
	KeySep string      `json:"key_sep,omitempty"`
	Ops    []script.Op `json:"ops"`
}

// OpsResponse carries the collection state after the ops ran. Error is set
// when an op failed; the ops before it stay applied.
type OpsResponse struct {
	Collection string   `json:"collection"`
	Values     []string `json:"values"`
	Digest     string   `json:"digest"`
	Error      string   `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler routes the HTTP surface of a hub.
func NewHandler(hub *Hub, feed *Feed, logger log.Log) http.Handler {
	if logger == nil {
		logger = log.Nop()
	}
	api := &api{hub: hub, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("GET /ws", feed)
	mux.HandleFunc("POST /ops", api.handleOps)
	mux.HandleFunc("GET /collections", api.handleCollections)
	return mux
}

type api struct {
	hub    *Hub
	logger log.Log
}

func (a *api) handleOps(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("collection")
	if !a.hub.Has(name) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", ErrUnknownCollection, name))
		return
	}

	var req OpsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOpsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	values, err := a.hub.Apply(r.Context(), name, req.Ops, req.KeySep)

	var opErr *script.OpError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newOpsResponse(name, values, nil))
	case errors.As(err, &opErr):
		a.logger.Debug("Ops rejected", log.String("collection", name), log.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, newOpsResponse(name, values, err))
	case errors.Is(err, ErrTaskPanicked):
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeError(w, http.StatusServiceUnavailable, err)
	}
}

func newOpsResponse(name string, values []string, err error) OpsResponse {
	if values == nil {
		values = []string{}
	}
	res := OpsResponse{
		Collection: name,
		Values:     values,
		Digest:     fmt.Sprintf("%x", script.Digest(values)),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func (a *api) handleCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := a.hub.Collections(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
