package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/neo-scanner/internal/adapter"
	apperrors "github.com/neo-scanner/internal/errors"
	"github.com/neo-scanner/internal/logging"
	"github.com/neo-scanner/internal/models"
	"github.com/neo-scanner/internal/planner"
	"github.com/neo-scanner/internal/retry"
)

// WindowFetcher retrieves the raw feed payload for one window
type WindowFetcher interface {
	FetchWindow(ctx context.Context, w planner.Window) (*adapter.FeedPayload, error)
}

// RecordStore persists normalized records and reports cumulative counts
type RecordStore interface {
	PersistWindow(ctx context.Context, asteroids []models.Asteroid, approaches []models.CloseApproach) (int, error)
	CountAsteroids(ctx context.Context) (int, error)
}

// IngestService drives the Planner -> Fetch -> Normalize -> Persist loop
// until the target distinct-asteroid count is reached, the planned range is
// exhausted, or a permanent failure aborts the run. Windows are processed
// strictly one at a time: the feed quota and the per-window transaction are
// both global resources.
type IngestService struct {
	plan         *planner.Plan
	fetcher      WindowFetcher
	store        RecordStore
	target       int
	resumeOffset int
	persistRetry *retry.RetryConfig
	clock        clockwork.Clock

	state models.RunState
}

// IngestConfig configures an ingestion run
type IngestConfig struct {
	Plan            *planner.Plan
	Fetcher         WindowFetcher
	Store           RecordStore
	TargetAsteroids int
	ResumeOffset    int                // window offset to resume from, 0 for a fresh run
	PersistRetry    *retry.RetryConfig // nil uses the default bounded policy
	Clock           clockwork.Clock    // nil uses the real clock
}

// NewIngestService creates a new ingestion run controller
func NewIngestService(cfg *IngestConfig) (*IngestService, error) {
	if cfg.Plan == nil {
		return nil, fmt.Errorf("ingest service requires a plan")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("ingest service requires a fetcher")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("ingest service requires a store")
	}
	if cfg.TargetAsteroids < 1 {
		return nil, fmt.Errorf("target asteroid count must be at least 1")
	}

	persistRetry := cfg.PersistRetry
	if persistRetry == nil {
		persistRetry = retry.DefaultRetryConfig()
		persistRetry.MaxAttempts = 3
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &IngestService{
		plan:         cfg.Plan,
		fetcher:      cfg.Fetcher,
		store:        cfg.Store,
		target:       cfg.TargetAsteroids,
		resumeOffset: cfg.ResumeOffset,
		persistRetry: persistRetry,
		clock:        clock,
		state:        models.StatePlanning,
	}, nil
}

// State returns the controller's current state
func (s *IngestService) State() models.RunState {
	return s.state
}

// Run executes the ingestion loop. It always returns a report; the error is
// non-nil only when the run aborted.
func (s *IngestService) Run(ctx context.Context) (*models.RunReport, error) {
	runID := uuid.New().String()
	logger := logging.FromContext(ctx).WithField("runId", runID)
	ctx = logging.WithLogger(ctx, logger)

	report := &models.RunReport{
		RunID:     runID,
		StartedAt: s.clock.Now().UTC(),
	}

	logger.WithFields(map[string]interface{}{
		"targetAsteroids": s.target,
		"plannedWindows":  s.plan.Count(),
		"resumeOffset":    s.resumeOffset,
	}).Info("Ingestion run starting")

	it := s.plan.Iterator(s.resumeOffset)
	var abortCause error

	for !s.state.Terminal() {
		// Cancellation is cooperative and checked between windows only;
		// a window's unit of work is small and bounded.
		if err := ctx.Err(); err != nil {
			s.abort(report, err)
			abortCause = err
			break
		}

		s.state = models.StatePlanning
		window, ok := it.Next()
		if !ok {
			s.complete(report, "planned range exhausted")
			break
		}

		windowLogger := logger.WithField("window", window.String())
		windowCtx := logging.WithLogger(ctx, windowLogger)

		s.state = models.StateFetching
		payload, err := s.fetcher.FetchWindow(windowCtx, window)
		if err != nil {
			if apperrors.IsMalformedPayload(err) {
				// Other windows remain valid; skip this one and keep going
				windowLogger.WithError(err).Warn("Skipping window with malformed payload")
				report.WindowsSkipped++
				continue
			}
			// The fetch client fully recovers transient failures internally,
			// so anything surfacing here is permanent.
			s.abort(report, err)
			abortCause = err
			break
		}

		s.state = models.StateNormalizing
		asteroids, approaches, err := Normalize(payload)
		if err != nil {
			windowLogger.WithError(err).Warn("Skipping window with malformed payload")
			report.WindowsSkipped++
			continue
		}

		s.state = models.StatePersisting
		var newApproaches int
		result := retry.WithExponentialBackoff(windowCtx, s.persistRetry, func(ctx context.Context, attempt int) error {
			n, persistErr := s.store.PersistWindow(ctx, asteroids, approaches)
			if persistErr != nil {
				return persistErr
			}
			newApproaches = n
			return nil
		})
		if !result.Success {
			// Store unavailable after bounded retries is fatal
			s.abort(report, result.LastError)
			abortCause = result.LastError
			break
		}

		s.state = models.StateDeciding
		report.WindowsProcessed++
		report.NewApproaches += newApproaches

		count, err := s.store.CountAsteroids(windowCtx)
		if err != nil {
			s.abort(report, err)
			abortCause = err
			break
		}
		report.DistinctAsteroids = count

		windowLogger.WithFields(map[string]interface{}{
			"distinctAsteroids": count,
			"newApproaches":     newApproaches,
		}).Info("Window committed")

		if count >= s.target {
			s.complete(report, "target count reached")
			break
		}
	}

	report.FinishedAt = s.clock.Now().UTC()

	logger.WithFields(map[string]interface{}{
		"state":             string(report.State),
		"cause":             report.Cause,
		"windowsProcessed":  report.WindowsProcessed,
		"windowsSkipped":    report.WindowsSkipped,
		"distinctAsteroids": report.DistinctAsteroids,
		"newApproaches":     report.NewApproaches,
	}).Info("Ingestion run finished")

	if s.state == models.StateAborted {
		return report, abortCause
	}
	return report, nil
}

func (s *IngestService) complete(report *models.RunReport, cause string) {
	s.state = models.StateCompleted
	report.State = models.StateCompleted
	report.Cause = cause
}

func (s *IngestService) abort(report *models.RunReport, err error) {
	s.state = models.StateAborted
	report.State = models.StateAborted
	report.Cause = err.Error()
}
