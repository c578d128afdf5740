package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
	"github.com/handyhub/booking-api/pkg/logger"
	"github.com/handyhub/booking-api/pkg/messaging"
	"github.com/handyhub/booking-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize       int
	PollInterval    time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	CleanupInterval time.Duration
	Retention       time.Duration
}

// OutboxProcessor drains pending outbox events into the message broker.
// Multiple instances may run. The claiming SELECT's row locks end with
// the statement, so a batch can be picked up twice between the read and
// the mark; delivery is at-least-once and consumers must tolerate
// duplicate events.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 30 * time.Second
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}
	if config.Retention <= 0 {
		config.Retention = 24 * time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	p.logger.Info("starting outbox processor")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		case <-cleanup.C:
			deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.Retention))
			if err != nil {
				p.logger.Error(err, "failed to clean up processed events")
			} else if deleted > 0 {
				p.logger.Info("cleaned up processed events", "deleted", deleted)
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingWithLock(ctx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	if err := p.broker.Publish(ctx, event.EventType, event.Payload); err != nil {
		errMsg := err.Error()
		if event.RetryCount+1 >= p.config.MaxRetries {
			// Exhausted: park it as failed for operator attention.
			p.metrics.OutboxEventsFailed.Inc()
			if markErr := p.repo.MarkFailed(ctx, event.ID, errMsg, nil); markErr != nil {
				return fmt.Errorf("failed to mark event dead: %w", markErr)
			}
			return err
		}
		retryAt := time.Now().Add(p.config.RetryDelay)
		if markErr := p.repo.MarkFailed(ctx, event.ID, errMsg, &retryAt); markErr != nil {
			return fmt.Errorf("failed to schedule retry: %w", markErr)
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	return p.repo.MarkProcessed(ctx, event.ID)
}
