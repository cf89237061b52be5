package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/biztrackhq/biztrack-backend/pkg/config"
	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
	"github.com/biztrackhq/biztrack-backend/pkg/metrics"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox"
)

const (
	workerName            = "outbox-publisher"
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbPinger interface {
	Ping(context.Context) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchPublishable(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbPinger
	PubSub           pubSubClient
	Repository       outboxRepository
	Metrics          *metrics.WorkerMetrics
	PublisherFactory publisherFactory
}

type Service struct {
	cfg              *config.Config
	logg             *logger.Logger
	db               dbPinger
	repo             outboxRepository
	pubsub           pubSubClient
	workerMetrics    *metrics.WorkerMetrics
	publisherFactory publisherFactory
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			publisher := params.PubSub.Publisher(topic)
			if publisher == nil {
				return nil
			}
			return newGCPPublisher(publisher)
		}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:              params.Config,
		logg:             params.Logger,
		db:               params.DB,
		repo:             params.Repository,
		pubsub:           params.PubSub,
		workerMetrics:    params.Metrics,
		publisherFactory: factory,
		batchSize:        batch,
		maxAttempts:      maxAttempts,
		pollInterval:     time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox batch failed", err)
			if sleepErr := s.sleep(ctx, withJitter(backoff)); sleepErr != nil {
				return sleepErr
			}
			backoff = nextBackoff(backoff, interval, maxBackoff)
			continue
		}
		backoff = interval

		// Drained a full batch, keep going without sleeping so the
		// backlog clears quickly.
		if processed >= s.batchSize {
			continue
		}
		if err := s.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch of staged events. Each event is marked
// individually so one bad row cannot wedge the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	start := time.Now()
	events, err := s.repo.FetchPublishable(s.batchSize, s.maxAttempts)
	if err != nil {
		s.workerMetrics.IncFailure(workerName)
		return 0, fmt.Errorf("fetch publishable events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	var batchErr error
	for _, event := range events {
		if err := s.publishEvent(ctx, event); err != nil {
			s.workerMetrics.IncFailure(workerName)
			batchErr = multierr.Append(batchErr, fmt.Errorf("event %s: %w", event.ID, err))
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				batchErr = multierr.Append(batchErr, fmt.Errorf("mark failed %s: %w", event.ID, markErr))
			}
			continue
		}
		if err := s.repo.MarkPublished(event.ID); err != nil {
			s.workerMetrics.IncFailure(workerName)
			batchErr = multierr.Append(batchErr, fmt.Errorf("mark published %s: %w", event.ID, err))
			continue
		}
		s.workerMetrics.IncSuccess(workerName)
	}

	s.workerMetrics.ObserveDuration(workerName, time.Since(start))
	return len(events), batchErr
}

func (s *Service) publishEvent(ctx context.Context, event models.OutboxEvent) error {
	topic := s.cfg.PubSub.OrdersTopic
	pub := s.publisherFactory(topic)
	if pub == nil {
		return fmt.Errorf("publisher not configured for topic %s", topic)
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("decode payload envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil for topic %s", topic)
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}

	s.logg.Info(s.logg.WithFields(ctx, s.eventFields(event, envelope, topic)), "outbox event published")
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.Attempts,
		"topic":          topic,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
