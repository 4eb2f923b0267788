package easyrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// EasyService centralizes business logic and data validation.
// It encapsulates the repository, validates input and maps storage faults
// into the error taxonomy (NotFound, DuplicateKey, Internal).
type EasyService[T any] struct {
	entity   string
	valid    *validator.Validate
	repo     Repository[T]
	hooks    *Hooks[T]
	observer Observer
}

// Hooks stores the data validations and business logic registered for
// execution before creates and updates
type Hooks[T any] struct {
	BeforeCreate []BeforeSaveHook[T]
	BeforeUpdate []BeforeUpdateHook[T]
}

// BeforeSaveHook may transform or reject an item before it is inserted
type BeforeSaveHook[T any] func(ctx context.Context, item *T) error

// BeforeUpdateHook may transform or reject a change set before it is applied
// to existing
type BeforeUpdateHook[T any] func(ctx context.Context, changes map[string]any, existing *T) error

// Observer is notified after every operation (metrics)
type Observer interface {
	Observe(ctx context.Context, op string, started time.Time, err error)
}

// ServiceOption customizes an EasyService
type ServiceOption[T any] func(*EasyService[T])

// WithEntity sets the name used in error messages ("pokemon", "user"...)
func WithEntity[T any](name string) ServiceOption[T] {
	return func(s *EasyService[T]) { s.entity = name }
}

// WithValidator replaces the default validator instance
func WithValidator[T any](v *validator.Validate) ServiceOption[T] {
	return func(s *EasyService[T]) { s.valid = v }
}

// WithObserver registers an Observer for every operation
func WithObserver[T any](o Observer) ServiceOption[T] {
	return func(s *EasyService[T]) { s.observer = o }
}

// NewService creates a new EasyService with a default validator
func NewService[T any](repo Repository[T], opts ...ServiceOption[T]) *EasyService[T] {
	s := &EasyService[T]{
		valid: validator.New(),
		repo:  repo,
		hooks: &Hooks[T]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnCreate registers a hook executed before every insert
func (s *EasyService[T]) OnCreate(fn BeforeSaveHook[T]) {
	s.hooks.BeforeCreate = append(s.hooks.BeforeCreate, fn)
}

// OnUpdate registers a hook executed before every update
func (s *EasyService[T]) OnUpdate(fn BeforeUpdateHook[T]) {
	s.hooks.BeforeUpdate = append(s.hooks.BeforeUpdate, fn)
}

// RegisterValidation allows adding custom validation rules to validator
func (s *EasyService[T]) RegisterValidation(name string, fn validator.Func) error {
	return s.valid.RegisterValidation(name, fn)
}

// Validate checks v against its `validate` tags
func (s *EasyService[T]) Validate(ctx context.Context, v any) error {
	if err := s.valid.StructCtx(ctx, v); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// Create validates the item, runs the create hooks and inserts it
func (s *EasyService[T]) Create(ctx context.Context, item *T) (created *T, err error) {
	defer s.observe(ctx, "create", time.Now(), &err)

	if item == nil {
		return nil, &ValidationError{Err: ErrInvalidInput}
	}
	if err := s.Validate(ctx, item); err != nil {
		return nil, err
	}
	for _, hook := range s.hooks.BeforeCreate {
		if err := hook(ctx, item); err != nil {
			return nil, err
		}
	}
	created, err = s.repo.Insert(ctx, *item)
	if err != nil {
		return nil, s.fail(ctx, "create", "", err)
	}
	return created, nil
}

// Get retrieves an item by its hash key
func (s *EasyService[T]) Get(ctx context.Context, id any) (item *T, err error) {
	defer s.observe(ctx, "get", time.Now(), &err)

	if id == nil {
		return nil, &ValidationError{Err: ErrInvalidInput}
	}
	item, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "find", fmt.Sprint(id), err)
	}
	return item, nil
}

// FindBy returns the first item where field == value
func (s *EasyService[T]) FindBy(ctx context.Context, field string, value any) (item *T, err error) {
	defer s.observe(ctx, "find_by_"+field, time.Now(), &err)

	item, err = s.repo.FindByField(ctx, field, value)
	if err != nil {
		return nil, s.fail(ctx, "find", fmt.Sprint(value), err)
	}
	return item, nil
}

// List returns a page of items in listing order
func (s *EasyService[T]) List(ctx context.Context, offset, limit int) (items []T, err error) {
	defer s.observe(ctx, "list", time.Now(), &err)

	items, err = s.repo.Page(ctx, offset, limit)
	if err != nil {
		return nil, s.fail(ctx, "list", "", err)
	}
	return items, nil
}

// Update runs the update hooks and applies changes to the item identified by id.
// existing is the current state of the item, already resolved by the caller.
func (s *EasyService[T]) Update(ctx context.Context, id any, existing *T, changes map[string]any) (err error) {
	defer s.observe(ctx, "update", time.Now(), &err)

	for _, hook := range s.hooks.BeforeUpdate {
		if err := hook(ctx, changes, existing); err != nil {
			return err
		}
	}
	if err := s.repo.UpdateByID(ctx, id, changes); err != nil {
		return s.fail(ctx, "update", fmt.Sprint(id), err)
	}
	return nil
}

// Delete removes an item and reports how many items were deleted
func (s *EasyService[T]) Delete(ctx context.Context, id any) (n int, err error) {
	defer s.observe(ctx, "delete", time.Now(), &err)

	n, err = s.repo.DeleteByID(ctx, id)
	if err != nil {
		return 0, s.fail(ctx, "delete", fmt.Sprint(id), err)
	}
	return n, nil
}

// Replace empties the table and bulk inserts items after validating each one
func (s *EasyService[T]) Replace(ctx context.Context, items []T) (written []T, err error) {
	defer s.observe(ctx, "replace", time.Now(), &err)

	for i := range items {
		if err := s.Validate(ctx, &items[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		for _, hook := range s.hooks.BeforeCreate {
			if err := hook(ctx, &items[i]); err != nil {
				return nil, err
			}
		}
	}
	// duplicatas descobertas só no BatchInsert deixariam a tabela vazia
	if checker, ok := s.repo.(UniqueChecker[T]); ok {
		if err := checker.CheckUnique(items); err != nil {
			return nil, s.fail(ctx, "insert", "", err)
		}
	}

	removed, err := s.repo.Truncate(ctx)
	if err != nil {
		return nil, s.fail(ctx, "truncate", "", err)
	}
	log.Ctx(ctx).Debug().Str("entity", s.entity).Int("removed", removed).Msg("tabela esvaziada")

	written, err = s.repo.InsertMany(ctx, items)
	if err != nil {
		return nil, s.fail(ctx, "insert", "", err)
	}
	return written, nil
}

// fail translates err; internal faults are logged with their cause
func (s *EasyService[T]) fail(ctx context.Context, op, key string, err error) error {
	translated := Translate(s.entity, op, err)

	var nf *NotFoundError
	if errors.As(translated, &nf) && nf.Key == "" {
		nf = &NotFoundError{Entity: nf.Entity, Key: key}
		translated = nf
	}

	var internal *InternalError
	if errors.As(translated, &internal) {
		log.Ctx(ctx).Error().
			Err(internal.Err).
			Str("entity", s.entity).
			Str("op", op).
			Msg("falha no repositório")
	}
	return translated
}

func (s *EasyService[T]) observe(ctx context.Context, op string, started time.Time, err *error) {
	if s.observer != nil {
		s.observer.Observe(ctx, op, started, *err)
	}
}
