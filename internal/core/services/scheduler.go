package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
	"github.com/murmurapp/searchcore/internal/core/ports/driving"
	"github.com/murmurapp/searchcore/internal/logger"
)

const (
	// tickInterval is how often the scheduler looks for due tasks.
	tickInterval = time.Minute

	// historyRetention caps stored results per task.
	historyRetention = 100
)

// Scheduler runs background tasks on their configured intervals. Task
// state lives in the SchedulerStore so intervals survive restarts.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	indexer driving.Indexer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

var _ driving.Scheduler = (*Scheduler)(nil)

// NewScheduler creates a scheduler over the given store and indexer.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	indexer driving.Indexer,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		indexer: indexer,
	}
}

// Start registers configured tasks and blocks running them until Stop
// is called or ctx is cancelled. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.registerTasks(ctx); err != nil {
		logger.Warn("Scheduler could not register tasks: %v", err)
	}

	return s.loop(ctx)
}

// Stop shuts the scheduler down and waits for in-flight tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// registerTasks seeds the store with every task enabled in config.
func (s *Scheduler) registerTasks(ctx context.Context) error {
	cfg := s.config.GetTaskConfig(domain.TaskIDRecordSync)
	if !cfg.Enabled {
		return nil
	}
	return s.reconcileTask(ctx, domain.TaskIDRecordSync, "Record Sync", cfg)
}

// reconcileTask creates the task or aligns a stored one with config.
// An interval change resets NextRun so the new cadence takes effect
// from now.
func (s *Scheduler) reconcileTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	switch {
	case task == nil:
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	case task.Interval != cfg.Interval:
		task.Interval = cfg.Interval
		task.NextRun = time.Now().Add(cfg.Interval)
		task.Enabled = cfg.Enabled
	default:
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// loop wakes once per tick and fires whatever is due. The first check
// happens immediately so an overdue task does not wait a full tick.
func (s *Scheduler) loop(ctx context.Context) error {
	s.runDueTasks(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runDueTasks(ctx)
		}
	}
}

// runDueTasks launches every enabled task whose NextRun has passed.
// A zero NextRun counts as due.
func (s *Scheduler) runDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("Scheduler could not list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if task.Enabled && !task.NextRun.After(now) {
			s.launch(ctx, task)
		}
	}
}

// launch runs one task in the background, tracked by the wait group so
// Stop can drain it.
func (s *Scheduler) launch(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx, task)
	}()
}

// execute runs the task body, then persists the updated task state and
// appends the result to history.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) {
	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: time.Now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDRecordSync:
		result.ItemsProcessed, err = s.syncRecords(ctx)
	default:
		logger.Warn("Scheduler has no handler for task %q", task.ID)
		return
	}

	result.EndedAt = time.Now()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		task.LastError = err.Error()
	} else {
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Warn("Scheduler could not save task %s: %v", task.ID, saveErr)
	}
	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		logger.Warn("Scheduler could not record result for %s: %v", task.ID, recordErr)
	}
	if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
		logger.Warn("Scheduler could not prune history: %v", pruneErr)
	}
}

// syncRecords runs one full index sync. A sync already in flight (for
// example one started from the CLI) is not a failure; the tick is
// skipped and the task waits for its next interval.
func (s *Scheduler) syncRecords(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, nil
	}

	stats, err := s.indexer.SyncAll(ctx)
	if errors.Is(err, domain.ErrSyncInProgress) {
		logger.Debug("Sync already running, scheduler tick skipped")
		return 0, nil
	}
	if err != nil {
		if stats != nil {
			return stats.Processed, err
		}
		return 0, err
	}
	return stats.Processed, nil
}
