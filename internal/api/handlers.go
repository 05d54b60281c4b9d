package api

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/launchpad/internal/approval"
	"github.com/mattjoyce/launchpad/internal/process"
	"github.com/mattjoyce/launchpad/internal/spawn"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if s.deps.Processes != nil {
		resp.RunningProcesses = s.deps.Processes.Running()
	}
	if s.deps.Profiles != nil {
		resp.ProfilesLoaded = len(s.deps.Profiles.Describe())
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSpawn handles POST /spawn.
func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req spawn.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.WorkingDir != nil && *req.WorkingDir != "" && !s.config.AllowEscapingWorkingDir && !filepath.IsLocal(*req.WorkingDir) {
		s.writeError(w, http.StatusBadRequest, "working_dir must be a relative path inside the base directory")
		return
	}

	child, err := s.deps.Spawner.Dispatch(r.Context(), req, s.config.BaseDir, s.deps.Approvals, s.deps.BaseEnv)
	if err != nil {
		var unknown *spawn.UnknownExecutorTypeError
		switch {
		case errors.As(err, &unknown):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, spawn.ErrEmptyPrompt), errors.Is(err, spawn.ErrMissingProfile):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("spawn failed", "profile", req.ProfileID.String(), "error", err)
			s.writeError(w, http.StatusBadGateway, "failed to launch agent: "+err.Error())
		}
		return
	}

	snap := s.deps.Processes.Track(child, req.ProfileID.String())
	respondJSON(w, http.StatusCreated, SpawnResponse{
		ProcessID: snap.ID,
		PID:       snap.PID,
		Profile:   snap.Profile,
		Dir:       snap.Dir,
		StartedAt: snap.StartedAt,
	})
}

// handleListProfiles handles GET /profiles.
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	descs := s.deps.Profiles.Describe()
	out := make([]ProfileResponse, 0, len(descs))
	for _, d := range descs {
		out = append(out, ProfileResponse{
			ID:                         d.ID.String(),
			Executor:                   string(d.ID.Executor),
			Variant:                    d.ID.VariantOrDefault(),
			Model:                      d.Config.Model,
			Plan:                       d.Config.Plan,
			DangerouslySkipPermissions: d.Config.DangerouslySkipPermissions,
			BaseCommandOverride:        d.Config.BaseCommandOverride,
			AdditionalParams:           d.Config.AdditionalParams,
			EnvKeys:                    slices.Sorted(maps.Keys(d.Config.Env)),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// handleListProcesses handles GET /processes.
func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Processes.List())
}

// handleGetProcess handles GET /processes/{id}.
func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Processes.Get(chi.URLParam(r, "id"))
	if errors.Is(err, process.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// handleKillProcess handles DELETE /processes/{id}.
func (s *Server) handleKillProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Processes.Kill(id); err != nil {
		if errors.Is(err, process.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("kill failed", "process_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap, err := s.deps.Processes.Get(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}

// handleListApprovals handles GET /approvals?process_id=&limit=.
func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	if s.deps.ApprovalLog == nil {
		s.writeError(w, http.StatusServiceUnavailable, "approval log is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	list, err := s.deps.ApprovalLog.Recent(r.Context(), r.URL.Query().Get("process_id"), limit)
	if err != nil {
		s.logger.Error("list approvals failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read approval log")
		return
	}
	if list == nil {
		list = []approval.Response{}
	}
	respondJSON(w, http.StatusOK, ApprovalsResponse{Approvals: list})
}

// handleCheckApproval handles POST /approvals/check. Agents (or wrappers
// around them) call this to ask whether a tool use may proceed.
func (s *Server) handleCheckApproval(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req ApprovalCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.ProcessID != "" {
		if _, err := s.deps.Processes.Get(req.ProcessID); errors.Is(err, process.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
	}

	resp, err := s.deps.Approvals.RequestApproval(r.Context(), req)
	if errors.Is(err, approval.ErrMissingTool) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("approval check failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// respondJSON is a helper to write JSON responses.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
