package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/kkn-placement-api/internal/models"
	"github.com/noah-isme/kkn-placement-api/pkg/jobs"
)

// EventHandler delivers a domain event to downstream consumers.
type EventHandler func(ctx context.Context, event models.Event) error

// EventService dispatches domain events through a background worker queue.
// Emission is fire-and-forget; delivery failures never affect the workflow
// that produced the event.
type EventService struct {
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewEventService constructs the dispatcher. A nil handler falls back to
// structured logging of each event.
func NewEventService(handler EventHandler, metrics *MetricsService, cfg jobs.QueueConfig, logger *zap.Logger, enabled bool) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	if handler == nil {
		handler = func(ctx context.Context, event models.Event) error {
			logger.Info("domain event",
				zap.String("type", string(event.Type)),
				zap.String("entity_id", event.EntityID),
				zap.String("actor_id", event.ActorID))
			return nil
		}
	}

	svc := &EventService{metrics: metrics, logger: logger, enabled: enabled}
	svc.queue = jobs.NewQueue("domain-events", func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.Event)
		if !ok {
			logger.Warn("unexpected event payload", zap.String("job_id", job.ID))
			return nil
		}
		return handler(ctx, event)
	}, cfg)
	return svc
}

// Start launches the worker pool.
func (s *EventService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *EventService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
}

// Emit hands an event to the dispatcher. Failures are logged and dropped.
func (s *EventService) Emit(event models.Event) {
	if s == nil || !s.enabled {
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEvent(string(event.Type))
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(event.Type),
		Payload: event,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("event enqueue failed",
			zap.String("type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}
