package spawn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattjoyce/launchpad/internal/profile"
)

var (
	ErrEmptyPrompt    = errors.New("prompt is required")
	ErrMissingProfile = errors.New("executor_profile_id is required")
)

// Request asks for one agent launch. It is read-only to the dispatcher.
type Request struct {
	Prompt    string     `json:"prompt"`
	ProfileID profile.ID `json:"executor_profile_id"`
	// WorkingDir is joined onto the dispatcher's base directory. Nil means
	// the base directory itself.
	WorkingDir *string `json:"working_dir,omitempty"`
	// Env overrides both the base and the profile environment.
	Env map[string]string `json:"env,omitempty"`
}

// requestWire accepts the legacy profile_variant_label spelling.
type requestWire struct {
	Prompt     string            `json:"prompt"`
	ProfileID  json.RawMessage   `json:"executor_profile_id"`
	Legacy     json.RawMessage   `json:"profile_variant_label"`
	WorkingDir *string           `json:"working_dir"`
	Env        map[string]string `json:"env"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// UnmarshalJSON normalizes profile_variant_label into ProfileID and validates
// the result.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w requestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	raw := w.ProfileID
	switch {
	case present(w.ProfileID) && present(w.Legacy):
		return errors.New("duplicate field: executor_profile_id and profile_variant_label are aliases")
	case present(w.Legacy):
		raw = w.Legacy
	}

	out := Request{Prompt: w.Prompt, WorkingDir: w.WorkingDir, Env: w.Env}
	if present(raw) {
		if err := json.Unmarshal(raw, &out.ProfileID); err != nil {
			return fmt.Errorf("executor_profile_id: %w", err)
		}
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*r = out
	return nil
}

// Validate checks the fields every launch needs.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.ProfileID.IsZero() {
		return ErrMissingProfile
	}
	return nil
}
