// Package syncer coordinates concurrent per-account, per-resource sync jobs
// against the marketplace. One run fans out a pagination stream per account,
// joins both streams, resolves the combined records, classifies availability
// and hands everything to the persistence collaborator.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"emagsync_api/internal/core/models"
	"emagsync_api/internal/emag/availability"
	"emagsync_api/internal/emag/client/pagination"
	"emagsync_api/internal/emag/resolver"
	"emagsync_api/metrics"
	"emagsync_api/pkg/logger"
)

var (
	ErrUnknownJob     = errors.New("unknown sync job")
	ErrJobTerminal    = errors.New("sync job already reached a terminal state")
	ErrSyncInProgress = errors.New("a sync for this resource is already running")
)

// SyncRequest describes one triggered run. Empty Accounts means every
// configured account; Cursors optionally resumes individual streams.
type SyncRequest struct {
	Resource models.ResourceType
	Mode     models.SyncMode
	Accounts []models.AccountName
	Cursors  map[models.AccountName]string
}

type jobEntry struct {
	job    models.SyncJob
	cancel context.CancelFunc
}

type Orchestrator struct {
	fetcher    Fetcher
	resolver   *resolver.Resolver
	classifier *availability.Classifier
	store      Store
	log        logger.Logger

	rootCtx context.Context

	mu      sync.Mutex
	jobs    map[uuid.UUID]*jobEntry
	active  map[models.ResourceType]bool
	running sync.WaitGroup

	// counters accumulate across runs; stream goroutines of concurrent runs
	// update them directly.
	counters metrics.SyncCounters
}

func NewOrchestrator(rootCtx context.Context, fetcher Fetcher, res *resolver.Resolver,
	classifier *availability.Classifier, store Store, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		resolver:   res,
		classifier: classifier,
		store:      store,
		log:        log.WithPrefix("[orchestrator]"),
		rootCtx:    rootCtx,
		jobs:       make(map[uuid.UUID]*jobEntry),
		active:     make(map[models.ResourceType]bool),
	}
}

// StartSync creates one pending job per requested account and launches the
// run. The returned snapshots carry the job IDs used for status and cancel.
func (o *Orchestrator) StartSync(req SyncRequest) ([]models.SyncJob, error) {
	if !req.Resource.Valid() {
		return nil, fmt.Errorf("unknown resource type %q", req.Resource)
	}
	if req.Mode == "" {
		req.Mode = models.ModeFull
	}
	accounts := req.Accounts
	if len(accounts) == 0 {
		accounts = o.fetcher.Accounts()
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}

	o.mu.Lock()
	if o.active[req.Resource] {
		o.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	o.active[req.Resource] = true

	runCtx, cancel := context.WithCancel(o.rootCtx)
	entries := make([]*jobEntry, 0, len(accounts))
	snapshots := make([]models.SyncJob, 0, len(accounts))
	for _, account := range accounts {
		entry := &jobEntry{
			job: models.SyncJob{
				ID:       uuid.New(),
				Account:  account,
				Resource: req.Resource,
				Mode:     req.Mode,
				Status:   models.JobPending,
				Cursor:   req.Cursors[account],
			},
			cancel: cancel,
		}
		o.jobs[entry.job.ID] = entry
		entries = append(entries, entry)
		snapshots = append(snapshots, entry.job)
	}
	o.mu.Unlock()

	o.running.Add(1)
	go func() {
		defer o.running.Done()
		defer cancel()
		o.execute(runCtx, req, entries)
	}()

	return snapshots, nil
}

// GetSyncStatus returns a snapshot of the job.
func (o *Orchestrator) GetSyncStatus(jobID uuid.UUID) (models.SyncJob, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.jobs[jobID]
	if !ok {
		return models.SyncJob{}, ErrUnknownJob
	}
	return entry.job, nil
}

// ListJobs returns snapshots of every known job.
func (o *Orchestrator) ListJobs() []models.SyncJob {
	o.mu.Lock()
	defer o.mu.Unlock()
	jobs := make([]models.SyncJob, 0, len(o.jobs))
	for _, entry := range o.jobs {
		jobs = append(jobs, entry.job)
	}
	return jobs
}

// CancelSync cancels the run the job belongs to. Cancellation propagates to
// all active page fetches of the run; sibling account streams share the run
// context and stop together.
func (o *Orchestrator) CancelSync(jobID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.jobs[jobID]
	if !ok {
		return ErrUnknownJob
	}
	if entry.job.Status.Terminal() {
		return ErrJobTerminal
	}
	entry.cancel()
	return nil
}

// Wait blocks until every launched run has finished. Used on shutdown.
func (o *Orchestrator) Wait() {
	o.running.Wait()
	o.log.Infof("totals: %d pages, %d items (%d skipped), %d conflicts, %d orders acked",
		o.counters.PagesProcessed.Load(), o.counters.ItemsProcessed.Load(),
		o.counters.ErroredItems.Load(), o.counters.ConflictsFound.Load(),
		o.counters.OrdersAcked.Load())
}

func (o *Orchestrator) update(entry *jobEntry, mutate func(*models.SyncJob)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	mutate(&entry.job)
}

// execute runs one triggered sync: concurrent account streams, a join
// barrier, resolution, classification, persistence.
func (o *Orchestrator) execute(ctx context.Context, req SyncRequest, entries []*jobEntry) {
	defer func() {
		o.mu.Lock()
		delete(o.active, req.Resource)
		o.mu.Unlock()
	}()

	runStart := time.Now().UTC()
	results := make([]StreamResult, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry *jobEntry) {
			defer wg.Done()
			results[i] = o.runStream(ctx, req, entry)
		}(i, entry)
	}
	// Dedup needs both sides: nothing resolves until every stream finished
	// or failed.
	wg.Wait()

	byAccount := make(map[models.AccountName][]models.CatalogRecord, len(entries))
	for i, entry := range entries {
		if len(results[i].Records) > 0 {
			byAccount[entry.job.Account] = results[i].Records
		}
	}

	for i := range results {
		o.counters.PagesProcessed.Add(int32(results[i].Pages))
		o.counters.ItemsProcessed.Add(int32(results[i].Items))
		o.counters.ErroredItems.Add(int32(results[i].Skipped))
	}

	resolved, conflicts := o.resolver.Resolve(byAccount)
	o.counters.ConflictsFound.Add(int32(len(conflicts)))
	for i := range resolved {
		resolved[i].Sellable = o.classifier.Classify(resolved[i]) == availability.Sellable
	}

	persistErr := o.persist(resolved, conflicts)

	for i, entry := range entries {
		o.finishJob(entry, results[i], persistErr, runStart, len(conflicts))
	}
}

// runStream drives one account's pagination stream and keeps the job
// counters current while pages complete.
func (o *Orchestrator) runStream(ctx context.Context, req SyncRequest, entry *jobEntry) StreamResult {
	o.update(entry, func(job *models.SyncJob) {
		job.Status = models.JobRunning
		job.StartedAt = time.Now().UTC()
	})

	var modifiedAfter *time.Time
	if req.Mode == models.ModeIncremental {
		watermark, ok, err := o.store.GetWatermark(ctx, entry.job.Account, entry.job.Resource)
		if err != nil {
			o.log.Warnf("%s %s: reading watermark: %v, falling back to full fetch",
				entry.job.Account, entry.job.Resource, err)
		} else if ok {
			modifiedAfter = &watermark
		}
	}

	startPage := pagination.StartPage(entry.job.Cursor)
	result := o.fetcher.FetchStream(ctx, entry.job.Account, entry.job.Resource,
		modifiedAfter, startPage, func(pages, items int) {
			o.update(entry, func(job *models.SyncJob) {
				job.PagesProcessed = pages
				job.ItemsProcessed = items
			})
		})

	if result.Err == nil && entry.job.Resource == models.ResourceOrder && len(result.NewOrderIDs) > 0 {
		acked, err := o.fetcher.AcknowledgeOrders(ctx, entry.job.Account, result.NewOrderIDs)
		o.counters.OrdersAcked.Add(int32(acked))
		if err != nil {
			// Acknowledgement problems degrade the run but never halt the
			// sibling stream.
			result.Err = &pagination.PartialError{Cursor: result.Cursor,
				Err: fmt.Errorf("acknowledged %d/%d orders: %w", acked, len(result.NewOrderIDs), err)}
		}
		o.log.Infof("%s: acknowledged %d new orders", entry.job.Account, acked)
	}
	return result
}

// finishJob assigns the most specific terminal state reachable and records
// the outcome.
func (o *Orchestrator) finishJob(entry *jobEntry, result StreamResult, persistErr error, runStart time.Time, conflictCount int) {
	status := models.JobCompleted
	summary := ""

	switch {
	case errors.Is(result.Err, context.Canceled):
		status = models.JobCancelled
		summary = "cancelled"
	case result.Err != nil && isPartial(result.Err):
		status = models.JobPartial
		summary = result.Err.Error()
	case result.Err != nil:
		status = models.JobFailed
		summary = result.Err.Error()
	case persistErr != nil:
		status = models.JobFailed
		summary = fmt.Sprintf("persistence failed: %v", persistErr)
	}

	if status == models.JobCompleted {
		watermark := result.MaxModified
		if watermark.IsZero() {
			watermark = runStart
		}
		if err := o.store.SetWatermark(context.Background(), entry.job.Account, entry.job.Resource, watermark); err != nil {
			o.log.Warnf("%s %s: storing watermark: %v", entry.job.Account, entry.job.Resource, err)
		}
	}

	now := time.Now().UTC()
	o.update(entry, func(job *models.SyncJob) {
		job.Status = status
		job.ErrorSummary = summary
		job.FinishedAt = &now
		switch status {
		case models.JobCompleted:
			job.Cursor = ""
		case models.JobPartial, models.JobFailed:
			if result.Cursor != "" {
				job.Cursor = result.Cursor
			}
		}
	})

	metrics.RecordSyncJob(string(entry.job.Account), string(entry.job.Resource), string(status))
	o.log.Infof("%s %s finished as %s: %d pages, %d items, %d conflicts",
		entry.job.Account, entry.job.Resource, status, result.Pages, result.Items, conflictCount)
}

func (o *Orchestrator) persist(records []models.CatalogRecord, conflicts []models.Conflict) error {
	ctx := context.Background()
	if len(records) > 0 {
		if err := o.store.UpsertRecords(ctx, records); err != nil {
			return fmt.Errorf("upserting %d records: %w", len(records), err)
		}
	}
	if len(conflicts) > 0 {
		if err := o.store.RecordConflicts(ctx, conflicts); err != nil {
			return fmt.Errorf("recording %d conflicts: %w", len(conflicts), err)
		}
	}
	return nil
}

func isPartial(err error) bool {
	var partial *pagination.PartialError
	return errors.As(err, &partial)
}
