package audiofile

import (
	"context"
	"strings"
)

type Catalog struct {
	store  *Store
	remote *RemoteProvider
}

func NewCatalog(store *Store, remote *RemoteProvider) *Catalog {
	return &Catalog{
		store:  store,
		remote: remote,
	}
}

func (c *Catalog) Resolve(ctx context.Context, id string) (*AudioFile, error) {
	if strings.HasPrefix(id, "remote-") {
		return c.remote.Find(ctx, id)
	}
	return c.store.GetByID(ctx, id)
}

// Default is the file a fresh session starts with: the first bundled sample.
func (c *Catalog) Default(ctx context.Context) (*AudioFile, error) {
	return c.store.First(ctx, SourceSample)
}

func (c *Catalog) List(ctx context.Context, source Source) ([]*AudioFile, error) {
	if source == SourceRemote {
		return c.remote.List(ctx)
	}
	return c.store.List(ctx, source)
}
