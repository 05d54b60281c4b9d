package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/launchpad/internal/events"
	"github.com/mattjoyce/launchpad/internal/log"
)

// Recorder persists decisions. *Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, resp Response, input map[string]any) error
}

// PolicyService decides requests from a static rule table. Rules match on
// tool name, case-insensitively; unmatched tools get the default decision.
// The rule table is never mutated after construction.
type PolicyService struct {
	def      Decision
	rules    map[string]Decision
	recorder Recorder
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a PolicyService.
type Option func(*PolicyService)

// WithRecorder persists every decision.
func WithRecorder(r Recorder) Option {
	return func(s *PolicyService) { s.recorder = r }
}

// WithEvents publishes an approval.decided event per decision.
func WithEvents(p events.Publisher) Option {
	return func(s *PolicyService) { s.events = p }
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *PolicyService) { s.logger = l }
}

// NewPolicyService builds a service from a default decision and per-tool rules.
func NewPolicyService(def Decision, rules map[string]Decision, opts ...Option) *PolicyService {
	if def == "" {
		def = Approved
	}
	s := &PolicyService{
		def:    def,
		rules:  make(map[string]Decision, len(rules)),
		logger: log.WithComponent("approval"),
		now:    time.Now,
	}
	for tool, d := range rules {
		s.rules[strings.ToLower(strings.TrimSpace(tool))] = d
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestApproval evaluates req against the rule table.
func (s *PolicyService) RequestApproval(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Tool) == "" {
		return Response{}, ErrMissingTool
	}

	decision, reason := s.def, "default policy"
	if d, ok := s.rules[strings.ToLower(strings.TrimSpace(req.Tool))]; ok {
		decision, reason = d, "rule for "+req.Tool
	}

	resp := Response{
		ID:        uuid.NewString(),
		ProcessID: req.ProcessID,
		Tool:      req.Tool,
		Decision:  decision,
		Reason:    reason,
		DecidedAt: s.now().UTC(),
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, resp, req.Input); err != nil {
			return Response{}, fmt.Errorf("record approval: %w", err)
		}
	}
	if s.events != nil {
		s.events.Publish(events.ApprovalDecided, resp)
	}

	s.logger.Info("approval decided",
		"process_id", req.ProcessID,
		"tool", req.Tool,
		"decision", decision,
		"reason", reason,
	)
	return resp, nil
}
