package listing

import "context"

// Repo abstracts persistence of entries. Write failures propagate to the
// caller untouched; retry policy belongs above this layer. Update replaces
// the full record for the entry's id.
type Repo interface {
	Save(ctx context.Context, entry Entry) error
	FetchAll(ctx context.Context) ([]Entry, error)
	FetchByID(ctx context.Context, id string) (Entry, error)
	Update(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, id string) error
}
