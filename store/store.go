/*
Package store keeps ordinal and collection records.

The default backend is sqlite on ":memory:", so records live as long as
the process does.
*/
package store

import "context"

type Store interface {
	CreateOrdinal(ctx context.Context, o *Ordinal) error
	GetOrdinal(ctx context.Context, id string) (*Ordinal, error)
	ListOrdinals(ctx context.Context, f OrdinalFilter) ([]*Ordinal, error)
	UpdateOrdinal(ctx context.Context, o *Ordinal) error

	CreateCollection(ctx context.Context, c *Collection) error
	GetCollection(ctx context.Context, id string) (*Collection, error)
	ListCollections(ctx context.Context, f CollectionFilter) ([]*Collection, error)
	UpdateCollection(ctx context.Context, c *Collection) error

	// ListTracked returns every record, of both kinds, that is not finalized.
	ListTracked(ctx context.Context) ([]*TrackedTx, error)
	UpdateStatus(ctx context.Context, kind, id string, u StatusUpdate) error

	Close() error
}
