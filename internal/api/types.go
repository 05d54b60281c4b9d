package api

import (
	"time"

	"github.com/mattjoyce/launchpad/internal/approval"
)

// SpawnResponse is returned by POST /spawn.
type SpawnResponse struct {
	ProcessID string    `json:"process_id"`
	PID       int       `json:"pid"`
	Profile   string    `json:"profile"`
	Dir       string    `json:"dir"`
	StartedAt time.Time `json:"started_at"`
}

// ProfileResponse is one entry of GET /profiles. Env values are withheld;
// only the names are listed.
type ProfileResponse struct {
	ID                         string   `json:"id"`
	Executor                   string   `json:"executor"`
	Variant                    string   `json:"variant"`
	Model                      string   `json:"model,omitempty"`
	Plan                       bool     `json:"plan,omitempty"`
	DangerouslySkipPermissions bool     `json:"dangerously_skip_permissions,omitempty"`
	BaseCommandOverride        string   `json:"base_command_override,omitempty"`
	AdditionalParams           []string `json:"additional_params,omitempty"`
	EnvKeys                    []string `json:"env_keys,omitempty"`
}

// ApprovalCheckRequest is the body of POST /approvals/check.
type ApprovalCheckRequest = approval.Request

// ApprovalsResponse is returned by GET /approvals.
type ApprovalsResponse struct {
	Approvals []approval.Response `json:"approvals"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	RunningProcesses int    `json:"running_processes"`
	ProfilesLoaded   int    `json:"profiles_loaded"`
}
