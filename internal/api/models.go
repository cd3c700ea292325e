package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/loadqueue/internal/task"
)

// StartRunRequest defines the optional payload for starting a run.
// Without ids the configured work list is used.
type StartRunRequest struct {
	IDs []string `json:"ids" validate:"omitempty,dive,required"`
}

// RunResponse is the status snapshot of the current run
type RunResponse struct {
	RunID    string `json:"run_id,omitempty"`
	State    string `json:"state"`
	Finished int    `json:"finished"`
	Total    int    `json:"total"`
	Dropped  int    `json:"dropped"`
	Active   int    `json:"active"`
	Pending  int    `json:"pending"`
	Percent  int    `json:"percent"`
	Stopped  bool   `json:"stopped"`
	Drained  bool   `json:"drained"`
}

// LogEntryResponse is one settled attempt
type LogEntryResponse struct {
	TaskID  string    `json:"task_id"`
	Outcome string    `json:"outcome"`
	Detail  string    `json:"detail"`
	Attempt int       `json:"attempt"`
	At      time.Time `json:"at"`
}

// LogResponse lists the settled attempts of the current run in order
type LogResponse struct {
	RunID   string             `json:"run_id,omitempty"`
	Entries []LogEntryResponse `json:"entries"`
}

func statusToResponse(st task.Status) RunResponse {
	resp := RunResponse{
		State:    string(st.State),
		Finished: st.Finished,
		Total:    st.Total,
		Dropped:  st.Dropped,
		Active:   st.Active,
		Pending:  st.Pending,
		Percent:  st.Percent,
		Stopped:  st.Stopped,
		Drained:  st.Drained,
	}
	if st.RunID != uuid.Nil {
		resp.RunID = st.RunID.String()
	}
	return resp
}

func logToResponse(runID uuid.UUID, entries []task.LogEntry) LogResponse {
	resp := LogResponse{Entries: make([]LogEntryResponse, 0, len(entries))}
	if runID != uuid.Nil {
		resp.RunID = runID.String()
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, LogEntryResponse{
			TaskID:  string(e.TaskID),
			Outcome: string(e.Outcome),
			Detail:  e.Detail,
			Attempt: e.Attempt,
			At:      e.At,
		})
	}
	return resp
}

func toTaskIDs(ids []string) []task.TaskID {
	out := make([]task.TaskID, len(ids))
	for i, id := range ids {
		out[i] = task.TaskID(id)
	}
	return out
}
