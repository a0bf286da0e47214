package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/outbox"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			newOrderEvent(t, 0),
			newOrderEvent(t, 0),
		},
	}
	dispatch := &fakeDispatcher{errs: []error{errors.New("smtp timeout"), nil}}
	service := newTestService(t, repo, &fakeRegistry{}, dispatch, nil)

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
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if got := len(repo.published); got != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("unexpected delivered rows: %v", repo.published)
	}
	if len(repo.terminal) != 0 {
		t.Fatalf("expected no terminal rows, got %d", len(repo.terminal))
	}
}

func TestServiceProcessBatchEmptyOutbox(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakeRegistry{}, &fakeDispatcher{}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected empty batch to report nothing processed")
	}
}

func TestServiceProcessBatchParksUnresolvableEvent(t *testing.T) {
	event := newOrderEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	registry := &fakeRegistry{err: outbox.NewNonRetryableError(errors.New("invalid payload"))}
	dispatch := &fakeDispatcher{}
	service := newTestService(t, repo, registry, dispatch, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(repo.terminal); got != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected event parked, got %v", repo.terminal)
	}
	if dispatch.calls != 0 {
		t.Fatalf("dispatcher should not run for unresolvable events")
	}
}

func TestServiceProcessBatchParksNonRetryableDispatch(t *testing.T) {
	event := newOrderEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dispatch := &fakeDispatcher{errs: []error{outbox.NewNonRetryableError(errors.New("no template"))}}
	service := newTestService(t, repo, &fakeRegistry{}, dispatch, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(repo.terminal); got != 1 {
		t.Fatalf("expected terminal row, got %d", got)
	}
	if repo.terminalAttempts != service.maxAttempts {
		t.Fatalf("expected terminal attempts %d, got %d", service.maxAttempts, repo.terminalAttempts)
	}
}

func TestServiceProcessBatchParksOnMaxAttempts(t *testing.T) {
	event := newOrderEvent(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dispatch := &fakeDispatcher{errs: []error{errors.New("smtp timeout")}}
	service := newTestService(t, repo, &fakeRegistry{}, dispatch, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(repo.terminal); got != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected event parked at max attempts, got %v", repo.terminal)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no retryable failure, got %d", len(repo.failed))
	}
}

func TestServiceProcessBatchPropagatesMarkErrors(t *testing.T) {
	repo := &fakeRepo{
		events:     []models.OutboxEvent{newOrderEvent(t, 0)},
		publishErr: errors.New("connection reset"),
	}
	service := newTestService(t, repo, &fakeRegistry{}, &fakeDispatcher{}, nil)

	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatal("expected mark failure to abort the batch")
	}
}

func TestNextBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	if got := nextBackoff(0, base, time.Second); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %s", got)
	}
	if got := nextBackoff(800*time.Millisecond, base, time.Second); got != time.Second {
		t.Fatalf("expected backoff capped at 1s, got %s", got)
	}
	if got := withJitter(base); got < base || got >= base+jitterWindow {
		t.Fatalf("jitter out of range: %s", got)
	}
}

func TestNewServiceRequiresDispatcher(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:         &fakeDB{},
		Repository: &fakeRepo{},
		Registry:   &fakeRegistry{},
	})
	if err == nil {
		t.Fatal("expected missing dispatcher to fail")
	}
}

func newTestService(t *testing.T, repo outboxRepository, registry registryResolver, dispatch dispatcher, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	service, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: outboxCfg},
		Logger:     logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		DB:         &fakeDB{},
		Repository: repo,
		Registry:   registry,
		Dispatcher: dispatch,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func newOrderEvent(tb testing.TB, attempts int) models.OutboxEvent {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{"order_key":"wc_order_test"}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

type fakeRepo struct {
	events           []models.OutboxEvent
	published        []uuid.UUID
	failed           []uuid.UUID
	terminal         []uuid.UUID
	terminalAttempts int
	publishErr       error
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.terminal = append(f.terminal, id)
	f.terminalAttempts = terminalAttempts
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeRegistry struct {
	err error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*outbox.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &outbox.ResolvedEvent{
		Descriptor: outbox.EventDescriptor{EventType: event.EventType, AggregateType: event.AggregateType},
		Envelope:   outbox.PayloadEnvelope{EventID: event.ID.String(), OccurredAt: time.Now()},
		Payload:    &outbox.OrderCreatedEvent{OrderID: event.AggregateID},
	}, nil
}

type fakeDispatcher struct {
	errs  []error
	calls int
}

func (f *fakeDispatcher) Dispatch(context.Context, *outbox.ResolvedEvent) error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}
