package services

import (
	"context"
	"time"

	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/repository"
)

// PresenceTracker reacts to live-channel online/offline transitions by
// flipping the screen's liveness flag and stamping last-seen. Liveness is
// independent of approval state.
type PresenceTracker struct {
	screenRepo repository.ScreenRepo
	logger     *observability.Logger
}

// NewPresenceTracker creates a new PresenceTracker
func NewPresenceTracker(screenRepo repository.ScreenRepo) *PresenceTracker {
	return &PresenceTracker{
		screenRepo: screenRepo,
		logger:     observability.WithField("component", "presence"),
	}
}

// ScreenOnline marks the screen behind the identity as active
func (t *PresenceTracker) ScreenOnline(identity string) {
	t.setActive(identity, true)
}

// ScreenOffline marks the screen behind the identity as inactive
func (t *PresenceTracker) ScreenOffline(identity string) {
	t.setActive(identity, false)
}

func (t *PresenceTracker) setActive(identity string, active bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	screen, err := t.screenRepo.GetByPrincipalID(ctx, identity)
	if err != nil {
		t.logger.Errorf("Failed to load screen for identity %s: %v", identity, err)
		return
	}
	if screen == nil {
		t.logger.Warnf("No screen found for identity %s", identity)
		return
	}

	if err := t.screenRepo.SetActive(ctx, screen.ID, active); err != nil {
		t.logger.Errorf("Failed to update liveness for screen %s: %v", screen.ID, err)
		return
	}
	t.logger.Infof("Screen %s is_active=%v", screen.ID, active)
}
