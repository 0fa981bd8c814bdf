package riskrecords

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepo implements Repo in memory for development and tests.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]*RiskRecord
	dir     OwnerDirectory
}

// NewMemoryRepo creates an in-memory repository. dir may be nil; ListAll then
// returns records with empty owner fields.
func NewMemoryRepo(dir OwnerDirectory) *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]*RiskRecord),
		dir:     dir,
	}
}

// Create inserts the record with status Pending.
func (r *MemoryRepo) Create(ctx context.Context, rec *RiskRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("duplicate risk record id %s", rec.ID)
	}
	rec.Status = StatusPending
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

// ListByOwner returns the owner's records, newest first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]RiskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []RiskRecord{}
	for _, rec := range r.records {
		if rec.UserID == ownerID {
			out = append(out, *rec)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListAll returns every record, newest first, resolving owners through the
// directory when one is configured.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]AdminRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	recs := []RiskRecord{}
	for _, rec := range r.records {
		recs = append(recs, *rec)
	}
	r.mu.Unlock()

	sortNewestFirst(recs)

	out := make([]AdminRecord, 0, len(recs))
	for _, rec := range recs {
		admin := AdminRecord{RiskRecord: rec}
		if r.dir != nil {
			if owner, err := r.dir.OwnerByID(ctx, rec.UserID); err == nil {
				admin.OwnerName = owner.Name
				admin.OwnerEmail = owner.Email
			}
		}
		out = append(out, admin)
	}
	return out, nil
}

// GetByID returns the record or ErrNotFound.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (*RiskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

// UpdateStatus checks the workflow and writes under one lock hold, matching
// the Postgres repo's compare-and-set semantics.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status) (*RiskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanTransition(rec.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, rec.Status, status)
	}
	rec.Status = status
	clone := *rec
	return &clone, nil
}

func sortNewestFirst(recs []RiskRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}

var _ Repo = (*MemoryRepo)(nil)
