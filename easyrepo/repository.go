package easyrepo

import (
	"context"

	"github.com/raywall/pokedex-service/dyndb"
)

// Repository is the storage contract consumed by EasyService. EasyRepository
// implements it over dyndb; tests may supply in-memory fakes.
type Repository[T any] interface {
	Insert(ctx context.Context, item T) (*T, error)
	InsertMany(ctx context.Context, items []T) ([]T, error)
	FindByID(ctx context.Context, id any) (*T, error)
	FindByField(ctx context.Context, field string, value any) (*T, error)
	Page(ctx context.Context, offset, limit int) ([]T, error)
	UpdateByID(ctx context.Context, id any, changes map[string]any) error
	DeleteByID(ctx context.Context, id any) (int, error)
	Truncate(ctx context.Context) (int, error)
}

// UniqueChecker is implemented by repositories that can detect, before any
// write, items sharing a value of a unique attribute.
type UniqueChecker[T any] interface {
	CheckUnique(items []T) error
}

// Listing describes the index used for ordered pagination: every item carries
// KeyAttribute=KeyValue and the index sort key defines the order.
type Listing struct {
	Index        string
	KeyAttribute string
	KeyValue     any
}

// EasyRepository manages direct communication with the DynamoDB driver (dyndb)
type EasyRepository[T any] struct {
	Config  dyndb.TableConfig[T]
	Store   dyndb.Store[T]
	Indexes map[string]string
	Listing Listing
}

// RepositoryOption customizes an EasyRepository
type RepositoryOption[T any] func(*EasyRepository[T])

// WithIndex routes FindByField(field) through the named GSI instead of a Scan
func WithIndex[T any](field, index string) RepositoryOption[T] {
	return func(r *EasyRepository[T]) {
		r.Indexes[field] = index
	}
}

// WithListing sets the index used by Page
func WithListing[T any](l Listing) RepositoryOption[T] {
	return func(r *EasyRepository[T]) {
		r.Listing = l
	}
}

// WithStore replaces the dyndb store (e.g. with a dyndb.MockStore)
func WithStore[T any](store dyndb.Store[T]) RepositoryOption[T] {
	return func(r *EasyRepository[T]) {
		r.Store = store
	}
}

// NewRepository initializes storage for generic type T
func NewRepository[T any](client dyndb.DynamoDBClient, tableConfig dyndb.TableConfig[T], opts ...RepositoryOption[T]) *EasyRepository[T] {
	r := &EasyRepository[T]{
		Config:  tableConfig,
		Indexes: map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Store == nil {
		r.Store = dyndb.New(client, tableConfig)
	}
	return r
}

// Insert persists a new item; uniqueness is enforced by the store
func (r *EasyRepository[T]) Insert(ctx context.Context, item T) (*T, error) {
	return r.Store.Insert(ctx, item)
}

// InsertMany writes items without conditions (bulk load)
func (r *EasyRepository[T]) InsertMany(ctx context.Context, items []T) ([]T, error) {
	return r.Store.BatchInsert(ctx, items)
}

// CheckUnique rejects items repeating a value of a TableConfig.Unique attribute
func (r *EasyRepository[T]) CheckUnique(items []T) error {
	return dyndb.CheckUnique(r.Config, items)
}

// FindByID searches by hash key only
func (r *EasyRepository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	return r.Store.Get(ctx, id, nil)
}

// FindByField returns the first item where field == value
func (r *EasyRepository[T]) FindByField(ctx context.Context, field string, value any) (*T, error) {
	var (
		items []T
		err   error
	)
	if index, ok := r.Indexes[field]; ok {
		items, _, err = r.Store.Query().Index(index).KeyEqual(field, value).Limit(1).Exec(ctx)
	} else {
		items, err = r.scanFirst(ctx, field, value)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, dyndb.ErrNotFound
	}
	return &items[0], nil
}

// scanFirst walks the table until a match is found
func (r *EasyRepository[T]) scanFirst(ctx context.Context, field string, value any) ([]T, error) {
	token := ""
	for {
		items, next, err := r.Store.Scan().FilterEqual(field, value).LastKey(token).Exec(ctx)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 || next == "" {
			return items, nil
		}
		token = next
	}
}

// Page returns items ordered by the listing index, skipping offset
func (r *EasyRepository[T]) Page(ctx context.Context, offset, limit int) ([]T, error) {
	return r.Store.Page(ctx, dyndb.PageRequest{
		Index:        r.Listing.Index,
		KeyAttribute: r.Listing.KeyAttribute,
		KeyValue:     r.Listing.KeyValue,
		Offset:       offset,
		Limit:        limit,
	})
}

// UpdateByID applies a partial update; nil values remove the attribute
func (r *EasyRepository[T]) UpdateByID(ctx context.Context, id any, changes map[string]any) error {
	return r.Store.Update(ctx, id, nil, changes)
}

// DeleteByID removes the item and reports how many were deleted
func (r *EasyRepository[T]) DeleteByID(ctx context.Context, id any) (int, error) {
	return r.Store.Remove(ctx, id, nil)
}

// Truncate removes every item from the table
func (r *EasyRepository[T]) Truncate(ctx context.Context) (int, error) {
	return r.Store.Truncate(ctx)
}
