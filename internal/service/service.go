// Package service is the single entry point to the tier pass state. It serializes every
// operation, supplies the caller and time reference, persists each committed operation and
// publishes the resulting lifecycle event.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-tier-pass/internal/adapter"
	"github.com/feral-file/ff-tier-pass/internal/domain"
	"github.com/feral-file/ff-tier-pass/internal/engine"
	"github.com/feral-file/ff-tier-pass/internal/ledger"
	"github.com/feral-file/ff-tier-pass/internal/logger"
	"github.com/feral-file/ff-tier-pass/internal/messaging"
	"github.com/feral-file/ff-tier-pass/internal/registry"
	"github.com/feral-file/ff-tier-pass/internal/store"
)

// ClockMode selects how the time reference advances
type ClockMode string

const (
	// ClockModeLogical advances the time reference by one per operation
	ClockModeLogical ClockMode = "logical"
	// ClockModeWall uses unix seconds from the wall clock
	ClockModeWall ClockMode = "wall"
)

const (
	DEFAULT_WORKER_POOL_SIZE     = 4
	DEFAULT_WORKER_QUEUE_SIZE    = 1024
	DEFAULT_PUBLISH_MAX_ELAPSED  = 2 * time.Minute
	DEFAULT_PUBLISH_INITIAL_WAIT = 500 * time.Millisecond
)

// Config holds the service configuration
type Config struct {
	ClockMode       ClockMode
	GenesisPath     string
	WorkerPoolSize  int
	WorkerQueueSize int
	// PublishMaxElapsed bounds the total time spent retrying one event
	PublishMaxElapsed time.Duration
	// PublishInitialWait is the first retry interval
	PublishInitialWait time.Duration
}

// Service wraps the engine with serialization, persistence and event publishing
type Service struct {
	mu     sync.RWMutex
	engine *engine.Engine
	ledger *ledger.Memory
	now    domain.Timestamp

	config    Config
	store     store.Store
	publisher messaging.Publisher
	pool      pond.Pool
	clock     adapter.Clock
	json      adapter.JSON
}

// New restores the saved state from st, or initializes it from the genesis document when nothing
// is saved yet. A nil publisher disables event publishing.
func New(
	ctx context.Context,
	cfg Config,
	st store.Store,
	loader registry.GenesisLoader,
	publisher messaging.Publisher,
	clock adapter.Clock,
	json adapter.JSON,
) (*Service, error) {
	switch cfg.ClockMode {
	case "":
		cfg.ClockMode = ClockModeLogical
	case ClockModeLogical, ClockModeWall:
	default:
		return nil, fmt.Errorf("unknown clock mode %q", cfg.ClockMode)
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	if cfg.WorkerQueueSize <= 0 {
		cfg.WorkerQueueSize = DEFAULT_WORKER_QUEUE_SIZE
	}
	if cfg.PublishMaxElapsed <= 0 {
		cfg.PublishMaxElapsed = DEFAULT_PUBLISH_MAX_ELAPSED
	}
	if cfg.PublishInitialWait <= 0 {
		cfg.PublishInitialWait = DEFAULT_PUBLISH_INITIAL_WAIT
	}

	s := &Service{
		config:    cfg,
		store:     st,
		publisher: publisher,
		clock:     clock,
		json:      json,
	}

	state, err := st.LoadState(ctx)
	switch {
	case err == nil:
		reg := registry.FromState(state.Engine.Registry)
		s.ledger = ledger.NewMemory(nil)
		s.ledger.Restore(state.Balances, state.Transfers)
		s.engine = engine.New(reg, s.ledger)
		s.engine.Restore(state.Engine)
		s.now = state.Now

		logger.InfoCtx(ctx, "Restored tier pass state",
			zap.Uint64("nextTokenID", uint64(s.engine.NextTokenID())),
			zap.Uint64("timeReference", uint64(s.now)))
	case errors.Is(err, store.ErrNoState):
		if err := s.initialize(ctx, loader); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	s.pool = pond.NewPool(cfg.WorkerPoolSize, pond.WithQueueSize(cfg.WorkerQueueSize))

	return s, nil
}

func (s *Service) initialize(ctx context.Context, loader registry.GenesisLoader) error {
	if s.config.GenesisPath == "" {
		return errors.New("no saved state and no genesis path configured")
	}

	g, err := loader.Load(s.config.GenesisPath)
	if err != nil {
		return fmt.Errorf("failed to load genesis: %w", err)
	}
	reg, err := g.Registry()
	if err != nil {
		return fmt.Errorf("failed to build registry from genesis: %w", err)
	}

	s.ledger = ledger.NewMemory(g.Balances)
	s.engine = engine.New(reg, s.ledger)

	if err := s.store.SaveState(ctx, s.capture(), nil); err != nil {
		return fmt.Errorf("failed to save genesis state: %w", err)
	}

	logger.InfoCtx(ctx, "Initialized tier pass state from genesis",
		zap.String("path", s.config.GenesisPath),
		zap.String("admin", g.Admin.String()),
		zap.Int("tiers", len(g.Tiers)),
		zap.Int("accounts", len(g.Balances)))

	return nil
}

// Close waits for pending event publishes and closes the publisher
func (s *Service) Close() {
	if s.pool != nil {
		s.pool.StopAndWait()

		logger.Info("Event worker pool shutdown complete",
			zap.Uint64("total_submitted", s.pool.SubmittedTasks()),
			zap.Uint64("total_completed", s.pool.CompletedTasks()),
			zap.Uint64("total_failed", s.pool.FailedTasks()))
	}
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *Service) capture() store.State {
	return store.State{
		Engine:    s.engine.Snapshot(),
		Balances:  s.ledger.Balances(),
		Transfers: s.ledger.Transfers(),
		Now:       s.now,
	}
}

func (s *Service) restore(state store.State) {
	s.engine.Restore(state.Engine)
	s.ledger.Restore(state.Balances, state.Transfers)
	s.now = state.Now
}

// tick returns the time reference for the next operation; it never goes backwards
func (s *Service) tick() domain.Timestamp {
	if s.config.ClockMode == ClockModeWall {
		wall := domain.Timestamp(s.clock.Now().Unix()) //nolint:gosec,G115
		return max(wall, s.now)
	}
	return s.now + 1
}

// operation runs against the engine under the write lock and describes what it committed
type operation func(ctx engine.Context) (*domain.LifecycleEvent, error)

// execute runs op and, when it commits, persists the new state together with a journal row.
// A persistence failure rolls the state back to what it was before op.
func (s *Service) execute(ctx context.Context, caller domain.Account, name string, op operation) (*domain.LifecycleEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	before := s.capture()

	event, err := op(engine.Context{Caller: caller, Now: now})
	if err != nil {
		logger.InfoCtx(ctx, "Operation rejected",
			zap.String("operation", name),
			zap.String("caller", caller.String()),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	s.now = now
	event.ID = ulid.MustNew(ulid.Timestamp(s.clock.Now()), ulid.DefaultEntropy()).String()
	event.Actor = caller
	event.Timestamp = now

	if err := s.persist(ctx, event, before); err != nil {
		s.restore(before)
		logger.ErrorCtx(ctx, err,
			zap.String("operation", name),
			zap.String("caller", caller.String()))
		return nil, err
	}

	logger.InfoCtx(ctx, "Operation committed",
		zap.String("operation", name),
		zap.String("caller", caller.String()),
		zap.String("eventID", event.ID),
		zap.Uint64("timeReference", uint64(now)))

	s.publish(ctx, event)

	return event, nil
}

// persist writes the rows that changed since before together with the journal row
func (s *Service) persist(ctx context.Context, event *domain.LifecycleEvent, before store.State) error {
	meta, err := s.json.MarshalCanonical(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	after := s.capture()
	change := &store.ChangeInput{
		Operation: event.Type,
		TokenID:   event.TokenID,
		Actor:     event.Actor,
		Timestamp: event.Timestamp,
		Meta:      meta,
		Delta:     store.Diff(before, after),
	}
	if err := s.store.SaveState(ctx, after, change); err != nil {
		return fmt.Errorf("failed to persist %s: %w", event.Type, err)
	}
	return nil
}

// publish hands the event to the worker pool. Publishing is best effort and never
// affects the committed state.
func (s *Service) publish(ctx context.Context, event *domain.LifecycleEvent) {
	if s.publisher == nil {
		return
	}

	// The request context ends with the response; the publish outlives it
	ctx = context.WithoutCancel(ctx)
	s.pool.Submit(func() {
		if err := s.publishWithRetry(ctx, event); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to publish lifecycle event: %w", err),
				zap.String("eventID", event.ID),
				zap.String("type", string(event.Type)))
		}
	})
}

// publishWithRetry publishes an event with exponential backoff retry
func (s *Service) publishWithRetry(ctx context.Context, event *domain.LifecycleEvent) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.PublishInitialWait
	b.MaxInterval = s.config.PublishMaxElapsed / 4
	b.MaxElapsedTime = s.config.PublishMaxElapsed
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	operation := func() error {
		return s.publisher.PublishEvent(ctx, event)
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Event publish failed, retrying",
			zap.Error(err),
			zap.String("eventID", event.ID),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return fmt.Errorf("failed after %d attempts: %w", attemptCount+1, err)
	}

	return nil
}
