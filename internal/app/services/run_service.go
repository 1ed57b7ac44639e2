package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/metrics"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/coursetable/ferry/internal/pkg/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Run triggers
const (
	TriggerAPI = "api"
	TriggerCLI = "cli"
)

const finishTimeout = 10 * time.Second

// ErrPersistenceUnavailable is returned when a persisted run is requested
// without a snapshot store.
var ErrPersistenceUnavailable = errors.New("snapshot storage is not configured")

// CorpusLoader reads the crawler output of the requested seasons.
type CorpusLoader interface {
	LoadSeasons(ctx context.Context, seasons []string) (models.Corpus, error)
}

// Resolver turns a corpus into a Result.
type Resolver interface {
	Run(ctx context.Context, corpus models.Corpus) (*models.Result, error)
}

// SnapshotStore replaces the stored entities with a new Result.
type SnapshotStore interface {
	Replace(ctx context.Context, result *models.Result) error
}

// RunStore records pipeline runs.
type RunStore interface {
	Create(ctx context.Context, run *models.PipelineRun) error
	Finish(ctx context.Context, run *models.PipelineRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error)
	Latest(ctx context.Context) (*models.PipelineRun, error)
	List(ctx context.Context, offset uint64, limit int) ([]models.PipelineRun, int64, error)
}

// RunPublisher is told about every run state change.
type RunPublisher interface {
	Publish(run models.PipelineRun)
}

// RunRequest describes one run to start.
type RunRequest struct {
	Trigger string   `json:"trigger" validate:"notblank,max=32"`
	Persist bool     `json:"persist"`
	Seasons []string `json:"seasons" validate:"omitempty,dive,seasoncode"`
}

// RunServiceOptions wires a RunService. Snapshots, Runs and Events are
// optional.
type RunServiceOptions struct {
	Loader    CorpusLoader
	Pipeline  Resolver
	Snapshots SnapshotStore
	Runs      RunStore
	Events    RunPublisher
	Timeout   time.Duration
}

// RunService starts full rebuilds, one at a time, and records their outcome.
type RunService struct {
	opts RunServiceOptions

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

func NewRunService(opts RunServiceOptions) *RunService {
	ctx, cancel := context.WithCancel(context.Background())
	return &RunService{
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		log:    logger.Component("run_service"),
	}
}

// Start begins a run in the background and returns its RUNNING record.
// ErrRunInProgress is returned while another run is active.
func (s *RunService) Start(ctx context.Context, req RunRequest) (*models.PipelineRun, error) {
	run, err := s.begin(ctx, req, true)
	if err != nil {
		return nil, err
	}
	started := *run

	go func() {
		defer s.wg.Done()
		runCtx, cancel := s.runContext(s.ctx)
		defer cancel()
		s.execute(runCtx, run, req)
	}()

	return &started, nil
}

// Execute runs the pipeline and waits for it. The returned run carries the
// final status; err is the reason a FAILED run failed.
func (s *RunService) Execute(ctx context.Context, req RunRequest) (*models.PipelineRun, *models.Result, error) {
	run, err := s.begin(ctx, req, false)
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := s.runContext(ctx)
	defer cancel()
	result, err := s.execute(runCtx, run, req)
	return run, result, err
}

// Get returns one recorded run.
func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error) {
	if s.opts.Runs == nil {
		return nil, apperrors.NewResourceNotFoundError("run history is not recorded")
	}
	return s.opts.Runs.GetByID(ctx, id)
}

// Latest returns the most recently started run.
func (s *RunService) Latest(ctx context.Context) (*models.PipelineRun, error) {
	if s.opts.Runs == nil {
		return nil, apperrors.NewResourceNotFoundError("run history is not recorded")
	}
	return s.opts.Runs.Latest(ctx)
}

// List returns a page of runs, newest first, and the total number of runs.
func (s *RunService) List(ctx context.Context, offset uint64, limit int) ([]models.PipelineRun, int64, error) {
	if s.opts.Runs == nil {
		return []models.PipelineRun{}, 0, nil
	}
	return s.opts.Runs.List(ctx, offset, limit)
}

// Running reports whether a run is active in this process.
func (s *RunService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Shutdown cancels background runs and waits for them to record their
// outcome, or for ctx to expire.
func (s *RunService) Shutdown(ctx context.Context) error {
	// under mu so that no background run is added after the wait starts
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for pipeline runs: %w", ctx.Err())
	}
}

func (s *RunService) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(parent, s.opts.Timeout)
	}
	return context.WithCancel(parent)
}

// begin validates the request, takes the in-process guard and records the
// RUNNING row. The stored row is the guard across processes. A background
// run is added to wg together with the guard.
func (s *RunService) begin(ctx context.Context, req RunRequest, background bool) (*models.PipelineRun, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	if req.Persist && s.opts.Snapshots == nil {
		return nil, apperrors.NewBadRequestError(ErrPersistenceUnavailable.Error())
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return nil, apperrors.ErrShuttingDown
	}
	if s.running {
		s.mu.Unlock()
		return nil, apperrors.ErrRunInProgress
	}
	s.running = true
	if background {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	run := &models.PipelineRun{
		ID:        uuid.New(),
		Status:    models.RunRunning,
		Trigger:   req.Trigger,
		StartedAt: time.Now().UTC(),
	}
	if s.opts.Runs != nil {
		if err := s.opts.Runs.Create(ctx, run); err != nil {
			s.release()
			if background {
				s.wg.Done()
			}
			return nil, err
		}
	}

	s.log.Info().Str("run_id", run.ID.String()).Str("trigger", run.Trigger).Bool("persist", req.Persist).
		Strs("seasons", req.Seasons).Msg("Pipeline run started")
	s.publish(*run)
	return run, nil
}

func (s *RunService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// execute resolves the corpus and records the outcome on run.
func (s *RunService) execute(ctx context.Context, run *models.PipelineRun, req RunRequest) (*models.Result, error) {
	defer s.release()

	result, err := s.resolve(ctx, req)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if err != nil {
		msg := err.Error()
		run.Status = models.RunFailed
		run.Error = &msg
	} else {
		run.Status = models.RunSucceeded
		run.Report = result.Report
		run.Persisted = req.Persist
	}
	metrics.ObserveRun(run.Status)

	if s.opts.Runs != nil {
		// the outcome is recorded even when the run was cancelled
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
		if ferr := s.opts.Runs.Finish(finishCtx, run); ferr != nil {
			s.log.Error().Err(ferr).Str("run_id", run.ID.String()).Msg("Failed to record run outcome")
		}
		cancel()
	}
	s.publish(*run)

	event := s.log.Info()
	if err != nil {
		event = s.log.Error().Err(err)
	}
	event.Str("run_id", run.ID.String()).Str("status", string(run.Status)).
		Dur("elapsed", finished.Sub(run.StartedAt)).Msg("Pipeline run finished")

	return result, err
}

func (s *RunService) resolve(ctx context.Context, req RunRequest) (*models.Result, error) {
	corpus, err := s.opts.Loader.LoadSeasons(ctx, req.Seasons)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}

	result, err := s.opts.Pipeline.Run(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("resolving entities: %w", err)
	}

	if req.Persist {
		if err := s.opts.Snapshots.Replace(ctx, result); err != nil {
			return nil, fmt.Errorf("storing snapshot: %w", err)
		}
	}
	return result, nil
}

func (s *RunService) publish(run models.PipelineRun) {
	if s.opts.Events != nil {
		s.opts.Events.Publish(run)
	}
}
