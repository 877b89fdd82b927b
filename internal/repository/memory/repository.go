package memory

import (
	"sync"
	"time"

	"github.com/omarshaarawi/draftboard/internal/models"
)

// Failure is the last feed poll that did not produce a snapshot.
type Failure struct {
	Err error
	At  time.Time
}

// Repository holds the latest snapshot. A snapshot is only ever replaced as a
// whole, so readers never see standings from one poll next to games from
// another.
type Repository struct {
	snapshot    *models.Snapshot
	invalidated bool
	failure     *Failure
	mu          sync.RWMutex
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) SaveSnapshot(snapshot *models.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = snapshot
	r.invalidated = false
	r.failure = nil
}

func (r *Repository) GetSnapshot() *models.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Fresh returns the snapshot if it was fetched less than ttl before now.
func (r *Repository) Fresh(now time.Time, ttl time.Duration) (*models.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snapshot == nil || r.invalidated || now.Sub(r.snapshot.FetchedAt) >= ttl {
		return nil, false
	}
	return r.snapshot, true
}

// Invalidate marks the current snapshot stale without dropping it, so it can
// still be served if the next poll fails.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = true
}

func (r *Repository) SaveFailure(err error, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = &Failure{Err: err, At: at}
}

func (r *Repository) GetFailure() *Failure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failure
}
