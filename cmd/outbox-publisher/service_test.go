package main

import (
	"context"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/drivncook/supply-backend/pkg/config"
	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
	"github.com/drivncook/supply-backend/pkg/logger"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	results []publishResult
	topics  []string
	calls   int
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	result := f.results[f.calls%len(f.results)]
	f.calls++
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

func outboxEvent(eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub *fakePublisher) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.PubSub.OrdersTopic = "supply-orders"
	cfg.PubSub.StockTopic = "supply-stock"
	cfg.Outbox.BatchSize = 10
	cfg.Outbox.MaxAttempts = 5
	cfg.Outbox.PollInterval = 10 * time.Millisecond

	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		PublisherFactory: func(topic string) publisher {
			pub.topics = append(pub.topics, topic)
			return pub
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			outboxEvent(enums.OutboxEventOrderCreated, enums.OutboxAggregateOrder),
			outboxEvent(enums.OutboxEventOrderStatusChanged, enums.OutboxAggregateOrder),
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestTopicRoutingByAggregate(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			outboxEvent(enums.OutboxEventOrderCreated, enums.OutboxAggregateOrder),
			outboxEvent(enums.OutboxEventStockAlert, enums.OutboxAggregateStockRecord),
		},
	}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.topics) != 2 {
		t.Fatalf("expected 2 publisher lookups, got %d", len(pub.topics))
	}
	if pub.topics[0] != "supply-orders" {
		t.Fatalf("expected order event on supply-orders, got %s", pub.topics[0])
	}
	if pub.topics[1] != "supply-stock" {
		t.Fatalf("expected stock event on supply-stock, got %s", pub.topics[1])
	}
}

func TestProcessBatchEmptyReportsIdle(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
}

func TestProcessBatchSurfacesFetchError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	service := newTestService(t, repo, pub)

	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatalf("expected fetch error to surface")
	}
}

func TestBackoffDoublesUpToCap(t *testing.T) {
	base := 100 * time.Millisecond
	current := base
	current = nextBackoff(current, base, maxBackoff)
	if current != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %s", current)
	}
	for i := 0; i < 20; i++ {
		current = nextBackoff(current, base, maxBackoff)
	}
	if current != maxBackoff {
		t.Fatalf("expected cap %s, got %s", maxBackoff, current)
	}
}
