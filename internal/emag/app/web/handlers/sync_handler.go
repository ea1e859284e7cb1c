package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"emagsync_api/internal/core/models"
	"emagsync_api/internal/emag/syncer"
	"emagsync_api/pkg/logger"
)

// SyncHandler exposes the orchestrator's start/status/cancel operations.
type SyncHandler struct {
	orchestrator *syncer.Orchestrator
	log          logger.Logger
}

func NewSyncHandler(orchestrator *syncer.Orchestrator, log logger.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		log:          log.WithPrefix("[api]"),
	}
}

type startSyncRequest struct {
	Resource string            `json:"resource"`
	Mode     string            `json:"mode,omitempty"`
	Accounts []string          `json:"accounts,omitempty"`
	Cursors  map[string]string `json:"cursors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type dataResponse struct {
	Data interface{} `json:"data"`
}

func (h *SyncHandler) StartSync(w http.ResponseWriter, r *http.Request) {
	var body startSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req := syncer.SyncRequest{
		Resource: models.ResourceType(body.Resource),
		Mode:     models.SyncMode(body.Mode),
	}
	for _, account := range body.Accounts {
		req.Accounts = append(req.Accounts, models.AccountName(account))
	}
	if len(body.Cursors) > 0 {
		req.Cursors = make(map[models.AccountName]string, len(body.Cursors))
		for account, cursor := range body.Cursors {
			req.Cursors[models.AccountName(account)] = cursor
		}
	}

	jobs, err := h.orchestrator.StartSync(req)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.log.Infof("started %s sync of %s (%d jobs)", req.Mode, req.Resource, len(jobs))
	writeJSON(w, http.StatusAccepted, dataResponse{Data: jobs})
}

func (h *SyncHandler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	job, err := h.orchestrator.GetSyncStatus(jobID)
	if errors.Is(err, syncer.ErrUnknownJob) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: job})
}

func (h *SyncHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataResponse{Data: h.orchestrator.ListJobs()})
}

func (h *SyncHandler) CancelSync(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid job id"})
		return
	}

	err = h.orchestrator.CancelSync(jobID)
	switch {
	case errors.Is(err, syncer.ErrUnknownJob):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, syncer.ErrJobTerminal):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusAccepted, dataResponse{Data: "cancellation requested"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
