package listing

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores entries in memory and is safe for concurrent use.
// Writes are serialized through the mutex, which satisfies the
// single-writer-per-id requirement of the store contract.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Entry
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Entry)}
}

// Save stores a new entry. Saving an id that already exists is an error;
// ids are unique across the store.
func (r *MemoryRepo) Save(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[entry.ID]; ok {
		return ErrDuplicateID
	}
	r.byID[entry.ID] = cloneEntry(entry)
	return nil
}

// FetchAll returns all entries ordered by creation date descending.
func (r *MemoryRepo) FetchAll(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreationDate.Equal(out[j].CreationDate) {
			return out[i].CreationDate.After(out[j].CreationDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FetchByID returns the entry with the given id.
func (r *MemoryRepo) FetchByID(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return cloneEntry(e), nil
}

// Update replaces the stored record for the entry's id.
func (r *MemoryRepo) Update(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[entry.ID]; !ok {
		return ErrNotFound
	}
	r.byID[entry.ID] = cloneEntry(entry)
	return nil
}

// Delete removes the entry with the given id.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// cloneEntry detaches the stored record from caller-held slices.
func cloneEntry(e Entry) Entry {
	out := e
	if e.Images != nil {
		out.Images = append([]string(nil), e.Images...)
	}
	if e.LastEmailSentDate != nil {
		ts := *e.LastEmailSentDate
		out.LastEmailSentDate = &ts
	}
	return out
}
