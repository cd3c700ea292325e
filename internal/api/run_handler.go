package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/loadqueue/internal/api/shared"
	"github.com/phrazzld/loadqueue/internal/platform/logger"
	"github.com/phrazzld/loadqueue/internal/task"
	"github.com/phrazzld/loadqueue/internal/worklist"
)

// workListTimeout bounds how long StartRun waits for the work list
const workListTimeout = 10 * time.Second

// RunController is the part of the scheduler the API drives
type RunController interface {
	Start(ids []task.TaskID) error
	Stop()
	Reset()
	Status() task.Status
	Log() []task.LogEntry
}

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	runs   RunController
	source worklist.Source
	logger *slog.Logger
}

// NewRunHandler creates a new RunHandler. source supplies the task ids when a
// start request does not carry any.
func NewRunHandler(runs RunController, source worklist.Source, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		runs:   runs,
		source: source,
		logger: logger.With("component", "run_handler"),
	}
}

// StartRun handles POST /api/runs requests
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := shared.DecodeOptionalJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	// Fail fast before fetching the work list
	if st := h.runs.Status(); st.State != task.RunStateIdle {
		shared.RespondWithErrorAndLog(w, r, http.StatusConflict,
			GetSafeErrorMessage(task.ErrAlreadyRunning), task.ErrAlreadyRunning)
		return
	}

	ids := toTaskIDs(req.IDs)
	if len(ids) == 0 {
		ctx, cancel := context.WithTimeout(r.Context(), workListTimeout)
		defer cancel()

		var err error
		ids, err = h.source.Load(ctx)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to load work list", err)
			return
		}
	}

	if err := h.runs.Start(ids); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	st := h.runs.Status()
	logger.FromContextOrDefault(r.Context(), h.logger).Info("run started via API",
		"run_id", st.RunID,
		"task_count", st.Total)

	shared.RespondWithJSON(w, r, http.StatusAccepted, statusToResponse(st))
}

// GetRun handles GET /api/runs/current requests
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(h.runs.Status()))
}

// GetRunLog handles GET /api/runs/current/log requests
func (h *RunHandler) GetRunLog(w http.ResponseWriter, r *http.Request) {
	st := h.runs.Status()
	shared.RespondWithJSON(w, r, http.StatusOK, logToResponse(st.RunID, h.runs.Log()))
}

// StopRun handles POST /api/runs/current/stop requests
func (h *RunHandler) StopRun(w http.ResponseWriter, r *http.Request) {
	h.runs.Stop()
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(h.runs.Status()))
}

// ResetRun handles POST /api/runs/current/reset requests
func (h *RunHandler) ResetRun(w http.ResponseWriter, r *http.Request) {
	h.runs.Reset()
	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(h.runs.Status()))
}

// Ensure the scheduler satisfies RunController
var _ RunController = (*task.Scheduler)(nil)
