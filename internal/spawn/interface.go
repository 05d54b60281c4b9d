package spawn

import (
	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/mattjoyce/launchpad/internal/profile"
)

//go:generate mockgen -destination=mocks/mock_registry.go -package=mocks github.com/mattjoyce/launchpad/internal/spawn ProfileRegistry
//go:generate mockgen -destination=mocks/mock_agent.go -package=mocks github.com/mattjoyce/launchpad/internal/agent CodingAgent

// ProfileRegistry resolves a profile id to a fresh agent instance.
// *profile.Registry implements it.
type ProfileRegistry interface {
	GetCodingAgent(id profile.ID) (agent.CodingAgent, bool)
}

var _ ProfileRegistry = (*profile.Registry)(nil)
