package main

import (
	"context"
	"fmt"

	"github.com/mattjoyce/launchpad/internal/approval"
	"github.com/mattjoyce/launchpad/internal/config"
	"github.com/mattjoyce/launchpad/internal/events"
	"github.com/mattjoyce/launchpad/internal/log"
	"github.com/mattjoyce/launchpad/internal/profile"
	"github.com/mattjoyce/launchpad/internal/storage"
)

// loadRegistry reads the configured profiles file, or falls back to the
// built-in profiles.
func loadRegistry(cfg *config.Config) (*profile.Registry, error) {
	if cfg.Profiles.Path == "" {
		return profile.Defaults(), nil
	}
	return profile.Load(cfg.Profiles.Path, cfg.Profiles.Fingerprint)
}

// openApprovals builds the policy service. When approvals.log is set the
// returned store is non-nil and close must be called.
func openApprovals(ctx context.Context, cfg *config.Config, hub *events.Hub) (*approval.PolicyService, *approval.Store, func(), error) {
	def, rules, err := cfg.Approvals.Policy()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []approval.Option{approval.WithLogger(log.WithComponent("approval"))}
	if hub != nil {
		opts = append(opts, approval.WithEvents(hub))
	}

	closeFn := func() {}
	var store *approval.Store
	if cfg.Approvals.Log {
		db, err := storage.OpenSQLite(ctx, cfg.ApprovalLogPath())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open approval log: %w", err)
		}
		store = approval.NewStore(db)
		opts = append(opts, approval.WithRecorder(store))
		closeFn = func() { _ = db.Close() }
	}

	return approval.NewPolicyService(def, rules, opts...), store, closeFn, nil
}
