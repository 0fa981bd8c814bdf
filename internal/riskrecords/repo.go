package riskrecords

import "context"

// Repo persists risk records.
type Repo interface {
	// Create inserts a record atomically. Status is always Pending at creation.
	Create(ctx context.Context, rec *RiskRecord) error

	// ListByOwner returns the owner's records, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]RiskRecord, error)

	// ListAll returns every record, newest first, with owner identity attached.
	ListAll(ctx context.Context) ([]AdminRecord, error)

	// GetByID returns the record or ErrNotFound.
	GetByID(ctx context.Context, id string) (*RiskRecord, error)

	// UpdateStatus applies the workflow check and the write as one
	// compare-and-set. Returns the updated record, ErrNotFound, or
	// ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id string, status Status) (*RiskRecord, error)
}

// Owner is the subset of user identity attached to admin listings.
type Owner struct {
	Name  string
	Email string
}

// OwnerDirectory resolves user IDs to owner identities. The memory repo uses
// it for ListAll; the Postgres repo joins the users table instead.
type OwnerDirectory interface {
	OwnerByID(ctx context.Context, userID string) (Owner, error)
}
