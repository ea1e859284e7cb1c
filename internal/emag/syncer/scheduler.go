package syncer

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"emagsync_api/internal/core/models"
	"emagsync_api/pkg/logger"
)

// Scheduler triggers incremental syncs periodically. Every trigger is
// shifted by a random offset so runs never align to exact clock boundaries
// shared with other integrators.
type Scheduler struct {
	orchestrator *Orchestrator
	resources    []models.ResourceType
	interval     time.Duration
	maxJitter    time.Duration
	log          logger.Logger
	rand         *rand.Rand
}

func NewScheduler(orchestrator *Orchestrator, resources []models.ResourceType,
	interval, maxJitter time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		resources:    resources,
		interval:     interval,
		maxJitter:    maxJitter,
		log:          log.WithPrefix("[scheduler]"),
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.trigger()
			timer.Reset(s.nextDelay())
		}
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	jitter := time.Duration(0)
	if s.maxJitter > 0 {
		jitter = time.Duration(s.rand.Int63n(int64(s.maxJitter)))
	}
	return s.interval + jitter
}

func (s *Scheduler) trigger() {
	for _, resource := range s.resources {
		_, err := s.orchestrator.StartSync(SyncRequest{
			Resource: resource,
			Mode:     models.ModeIncremental,
		})
		if errors.Is(err, ErrSyncInProgress) {
			s.log.Warnf("%s: previous sync still running, skipping trigger", resource)
			continue
		}
		if err != nil {
			s.log.Errorf("%s: triggering sync: %v", resource, err)
		}
	}
}
