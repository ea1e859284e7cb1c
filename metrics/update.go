package metrics

import "sync/atomic"

// SyncCounters tracks cumulative sync progress. Updated concurrently by the
// stream goroutines of running jobs.
type SyncCounters struct {
	PagesProcessed atomic.Int32
	ItemsProcessed atomic.Int32
	ErroredItems   atomic.Int32
	ConflictsFound atomic.Int32
	OrdersAcked    atomic.Int32
}
