package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"devtime/agent/internal/auth"
	"devtime/agent/internal/models"
	"devtime/agent/internal/repository"
	"devtime/agent/internal/summary"

	"go.uber.org/zap"
)

// SyncOptions are the per-run pipeline knobs.
type SyncOptions struct {
	Interval         time.Duration
	ChunkEvery       time.Duration
	SummaryThreshold float64
	MergeGap         time.Duration
	PageSize         int
}

// SyncService runs the summarization pipeline on a fixed interval: resolve
// the login token, refresh the catalog if stale, fetch pending records,
// chunk, summarize, merge, reconcile work logs, then upload raw user
// events. Runs never overlap; a run finishes (or fails) before the next
// tick is handled. Failures stay inside the run and show up in the
// diagnostic log; records are marked consumed only after the remote write
// succeeded, giving at-least-once delivery.
type SyncService struct {
	opts     SyncOptions
	records  *repository.ActivityRecordRepository
	settings *repository.SettingsRepository
	diag     *repository.DiagnosticLogRepository
	catalog  *CatalogService
	worklogs *WorklogService
	events   *EventService
	logger   *zap.Logger

	mu        sync.RWMutex
	token     string
	lastSaved *models.SavedSummary
	lastRunAt time.Time

	// run-loop confined, no locking needed
	worklogsSince time.Time

	stopChan chan struct{}
	stopped  bool
	wg       sync.WaitGroup
}

func NewSyncService(
	opts SyncOptions,
	records *repository.ActivityRecordRepository,
	settings *repository.SettingsRepository,
	diag *repository.DiagnosticLogRepository,
	catalog *CatalogService,
	worklogs *WorklogService,
	events *EventService,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		opts:          opts,
		records:       records,
		settings:      settings,
		diag:          diag,
		catalog:       catalog,
		worklogs:      worklogs,
		events:        events,
		logger:        logger,
		worklogsSince: time.Now(),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the periodic run loop.
func (s *SyncService) Start() {
	s.wg.Add(1)
	go s.runLoop()
	s.logger.Info("Sync service started", zap.Duration("interval", s.opts.Interval))
}

// Stop ends the run loop, waiting for an in-flight run to finish.
func (s *SyncService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Sync service stopped")
}

func (s *SyncService) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce executes one pipeline run. It never returns an error: failures
// are contained per sub-step, logged, and retried on the next tick.
func (s *SyncService) RunOnce(ctx context.Context) {
	token, err := s.resolveToken()
	if err != nil {
		s.logFailure("failed to resolve login token", err)
		return
	}
	if token == "" {
		s.logger.Debug("No login token yet, waiting for login")
		return
	}

	if err := s.syncWorklogs(ctx, token); err != nil {
		s.logFailure("work log sync failed", err)
	}

	// The work-log step may have cleared an expired token.
	s.mu.RLock()
	token = s.token
	s.mu.RUnlock()
	if token != "" {
		if err := s.syncEvents(ctx, token); err != nil {
			s.logFailure("user event sync failed", err)
		}
	}

	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.mu.Unlock()
}

func (s *SyncService) syncWorklogs(ctx context.Context, token string) error {
	user, err := s.identify(token)
	if err != nil {
		return err
	}

	records, err := s.records.FetchUnsummarized(s.opts.PageSize, s.worklogsSince)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		s.logger.Debug("No activity records awaiting summarization")
		return nil
	}

	catalog, err := s.catalog.Get(ctx, token)
	if err != nil {
		return err
	}

	// Records arrive ordered by begin_at, so chunking skips the sort.
	chunks := summary.Chunk(records, summary.ChunkOptions{
		ChunkEvery: s.opts.ChunkEvery,
		Presorted:  true,
	})
	items := s.summarize(*catalog, chunks)
	merged := summary.Merge(items, s.opts.MergeGap)
	s.logger.Info("Work logs to upsert", zap.Int("count", len(merged)))

	s.mu.RLock()
	prev := s.lastSaved
	s.mu.RUnlock()

	saved, err := s.worklogs.Reconcile(ctx, token, user.ID, merged, prev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSaved = saved
	s.mu.Unlock()

	ids := make([]int64, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}
	if err := s.records.MarkSummarized(ids, time.Now()); err != nil {
		return err
	}
	// Strictly after the mark timestamp, so the marked rows age out of the
	// updated-since filter.
	s.worklogsSince = time.Now()

	s.logger.Info("Marked records summarized", zap.Int("count", len(ids)))
	return nil
}

// summarize reduces each chunk to its dominant entity and keeps the
// upload-eligible ones. The threshold/longest-group fallback inside
// Summarize runs before this eligibility filter: a chunk dominated by
// unclassifiable activity yields no work log even when a smaller group
// matched a ticket.
func (s *SyncService) summarize(catalog models.EntityCatalog, chunks [][]models.ActivityRecord) []models.SummaryItem {
	var items []models.SummaryItem
	for _, chunk := range chunks {
		groups := summary.Summarize(chunk, summary.SummarizeOptions{Threshold: s.opts.SummaryThreshold})
		entity := summary.Dominant(catalog, groups)
		if !entity.Type.UploadEligible() {
			continue
		}

		startAt := chunk[0].BeginAt
		endAt := chunk[len(chunk)-1].EndAt
		items = append(items, models.SummaryItem{
			Entity:   entity,
			StartAt:  startAt,
			EndAt:    endAt,
			Duration: int64(endAt.Sub(startAt) / time.Second),
		})
	}
	return items
}

func (s *SyncService) syncEvents(ctx context.Context, token string) error {
	user, err := s.identify(token)
	if err != nil {
		return err
	}
	return s.events.Run(ctx, token, user.ID)
}

// identify resolves the user behind the token. An unreadable or expired
// token is cleared from memory and from the settings store so the next run
// waits for a fresh login instead of failing forever.
func (s *SyncService) identify(token string) (*auth.User, error) {
	user, err := auth.UserFromToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) {
			s.mu.Lock()
			s.token = ""
			s.mu.Unlock()
			if clearErr := s.settings.ClearToken(); clearErr != nil {
				s.logger.Error("Failed to clear stored token", zap.Error(clearErr))
			}
		}
		return nil, err
	}
	return user, nil
}

func (s *SyncService) resolveToken() (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	if token != "" {
		return token, nil
	}

	token, err := s.settings.Token()
	if err != nil {
		return "", err
	}
	if token != "" {
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()
	}
	return token, nil
}

func (s *SyncService) logFailure(message string, err error) {
	s.logger.Error(message, zap.Error(err))
	if diagErr := s.diag.CreateOrUpdate(models.DiagError, message, err.Error()); diagErr != nil {
		s.logger.Error("Failed to record diagnostic", zap.Error(diagErr))
	}
}

// Status reports the pipeline's current state for the local status API.
func (s *SyncService) Status() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]interface{}{
		"token_present": s.token != "",
		"last_run_at":   s.lastRunAt,
	}
	if s.lastSaved != nil {
		status["last_saved_worklog_id"] = s.lastSaved.WorklogID
		status["last_saved_end_at"] = s.lastSaved.EndAt
	}
	return status
}
