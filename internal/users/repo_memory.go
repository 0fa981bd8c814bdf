package users

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo implements Repo in memory for development and tests.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]*User
	byEml map[string]*User
}

// NewMemoryRepo creates an in-memory user repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  make(map[string]*User),
		byEml: make(map[string]*User),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, u *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.byEml[key]; exists {
		return ErrEmailTaken
	}
	clone := *u
	r.byID[u.ID] = &clone
	r.byEml[key] = &clone
	return nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEml[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

var _ Repo = (*MemoryRepo)(nil)
