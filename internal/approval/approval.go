// Package approval provides the capability agents call back into when they
// need authorization for a sensitive action (running a shell command, editing
// a file, ...).
//
// A single Service instance is shared by every spawned agent; implementations
// must be safe for concurrent use.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingTool rejects a request that does not name the tool.
var ErrMissingTool = errors.New("approval request missing tool")

// Decision is the outcome of an approval request.
type Decision string

const (
	Approved Decision = "approved"
	Denied   Decision = "denied"
)

// ParseDecision accepts the config spellings approve/approved/allow and
// deny/denied.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved", "allow":
		return Approved, nil
	case "deny", "denied":
		return Denied, nil
	default:
		return "", fmt.Errorf("invalid approval decision %q (want approve or deny)", s)
	}
}

// Request describes one action an agent wants to take.
type Request struct {
	ProcessID string         `json:"process_id"`
	Tool      string         `json:"tool"`
	Input     map[string]any `json:"input,omitempty"`
}

// Response is the recorded answer to a Request.
type Response struct {
	ID        string    `json:"id"`
	ProcessID string    `json:"process_id"`
	Tool      string    `json:"tool"`
	Decision  Decision  `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// Approved reports whether the action may proceed.
func (r Response) Approved() bool { return r.Decision == Approved }

// Service answers approval requests.
type Service interface {
	RequestApproval(ctx context.Context, req Request) (Response, error)
}
