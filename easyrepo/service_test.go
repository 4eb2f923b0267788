package easyrepo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/pokedex-service/dyndb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID   string `dynamodbav:"id"`
	No   int    `dynamodbav:"no" validate:"min=1"`
	Name string `dynamodbav:"name" validate:"required"`
}

type recordingObserver struct {
	ops  []string
	errs []error
}

func (o *recordingObserver) Observe(_ context.Context, op string, _ time.Time, err error) {
	o.ops = append(o.ops, op)
	o.errs = append(o.errs, err)
}

func newTestService(store *dyndb.MockStore[testItem], opts ...ServiceOption[testItem]) *EasyService[testItem] {
	repo := NewRepository[testItem](nil, dyndb.TableConfig[testItem]{TableName: "test", HashKey: "id"},
		WithStore[testItem](store),
		WithIndex[testItem]("name", "name-index"),
		WithListing[testItem](Listing{Index: "kind-no-index", KeyAttribute: "kind", KeyValue: "test"}),
	)
	return NewService[testItem](repo, append([]ServiceOption[testItem]{WithEntity[testItem]("pokemon")}, opts...)...)
}

func TestEasyService_Create_Validation(t *testing.T) {
	store := &dyndb.MockStore[testItem]{
		InsertFn: func(context.Context, testItem) (*testItem, error) {
			t.Fatal("insert must not be called for invalid input")
			return nil, nil
		},
	}
	service := newTestService(store)

	_, err := service.Create(context.Background(), &testItem{No: 0})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, ve.Fields, "Name")
	assert.Contains(t, ve.Fields, "No")
	assert.Equal(t, "Name is required, No must be at least 1", ve.Error())
}

func TestEasyService_Create_Hooks(t *testing.T) {
	var inserted testItem
	store := &dyndb.MockStore[testItem]{
		InsertFn: func(_ context.Context, item testItem) (*testItem, error) {
			inserted = item
			item.ID = "generated"
			return &item, nil
		},
	}
	service := newTestService(store)
	service.OnCreate(func(_ context.Context, item *testItem) error {
		item.Name = strings.ToLower(item.Name)
		return nil
	})

	created, err := service.Create(context.Background(), &testItem{No: 25, Name: "Pikachu"})

	require.NoError(t, err)
	assert.Equal(t, "generated", created.ID)
	assert.Equal(t, "pikachu", inserted.Name)
}

func TestEasyService_Create_Duplicate(t *testing.T) {
	store := &dyndb.MockStore[testItem]{
		InsertFn: func(context.Context, testItem) (*testItem, error) {
			return nil, &dyndb.ConditionalError{Attribute: "name", Value: "pikachu"}
		},
	}
	service := newTestService(store)

	_, err := service.Create(context.Background(), &testItem{No: 25, Name: "pikachu"})

	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, `pokemon exists in db {"name":"pikachu"}`, err.Error())
}

func TestEasyService_InternalErrorIsLogged(t *testing.T) {
	boom := errors.New("socket closed")
	store := &dyndb.MockStore[testItem]{
		InsertFn: func(context.Context, testItem) (*testItem, error) { return nil, boom },
	}
	service := newTestService(store)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	_, err := service.Create(ctx, &testItem{No: 1, Name: "bulbasaur"})

	var internal *InternalError
	require.ErrorAs(t, err, &internal)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "can't create pokemon - check server logs", err.Error())
	assert.NotContains(t, err.Error(), "socket closed")
	assert.Contains(t, buf.String(), "socket closed")
	assert.Contains(t, buf.String(), `"op":"create"`)
}

func TestEasyService_Get_NotFound(t *testing.T) {
	service := newTestService(&dyndb.MockStore[testItem]{})

	_, err := service.Get(context.Background(), "abc")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "abc", nf.Key)
	assert.Equal(t, "pokemon with ID abc not found", err.Error())

	_, err = service.Get(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEasyService_FindBy_UsesIndex(t *testing.T) {
	store := &dyndb.MockStore[testItem]{
		QueryFn: func(_ context.Context, spec dyndb.QuerySpec) ([]testItem, string, error) {
			if spec.Index != "name-index" || spec.Keys["name"] != "pikachu" {
				return nil, "", nil
			}
			return []testItem{{ID: "1", No: 25, Name: "pikachu"}}, "", nil
		},
	}
	service := newTestService(store)

	item, err := service.FindBy(context.Background(), "name", "pikachu")
	require.NoError(t, err)
	assert.Equal(t, 25, item.No)

	_, err = service.FindBy(context.Background(), "name", "mew")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEasyService_FindBy_ScanFallback(t *testing.T) {
	calls := 0
	store := &dyndb.MockStore[testItem]{
		ScanFn: func(_ context.Context, spec dyndb.QuerySpec) ([]testItem, string, error) {
			calls++
			assert.True(t, spec.Scan)
			assert.Equal(t, 7, spec.Filters["no"])
			return []testItem{{ID: "7", No: 7, Name: "squirtle"}}, "", nil
		},
	}
	service := newTestService(store)

	item, err := service.FindBy(context.Background(), "no", 7)

	require.NoError(t, err)
	assert.Equal(t, "squirtle", item.Name)
	assert.Equal(t, 1, calls)
}

func TestEasyService_List(t *testing.T) {
	var got dyndb.PageRequest
	store := &dyndb.MockStore[testItem]{
		PageFn: func(_ context.Context, req dyndb.PageRequest) ([]testItem, error) {
			got = req
			return []testItem{{No: 3}, {No: 4}}, nil
		},
	}
	service := newTestService(store)

	items, err := service.List(context.Background(), 2, 2)

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, dyndb.PageRequest{Index: "kind-no-index", KeyAttribute: "kind", KeyValue: "test", Offset: 2, Limit: 2}, got)
}

func TestEasyService_Update(t *testing.T) {
	var applied map[string]any
	store := &dyndb.MockStore[testItem]{
		UpdateFn: func(_ context.Context, hashKey, _ any, changes map[string]any) error {
			assert.Equal(t, "1", hashKey)
			applied = changes
			return nil
		},
	}
	service := newTestService(store)
	service.OnUpdate(func(_ context.Context, changes map[string]any, existing *testItem) error {
		if existing.No == 150 {
			return errors.New("legendary")
		}
		changes["touched"] = true
		return nil
	})

	err := service.Update(context.Background(), "1", &testItem{ID: "1", No: 25}, map[string]any{"name": "raichu"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "raichu", "touched": true}, applied)

	err = service.Update(context.Background(), "2", &testItem{ID: "2", No: 150}, map[string]any{"name": "x"})
	assert.EqualError(t, err, "legendary")
}

func TestEasyService_Update_Missing(t *testing.T) {
	store := &dyndb.MockStore[testItem]{
		UpdateFn: func(context.Context, any, any, map[string]any) error { return dyndb.ErrNotFound },
	}
	service := newTestService(store)

	err := service.Update(context.Background(), "9", &testItem{}, map[string]any{"name": "x"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "9")
}

func TestEasyService_Delete(t *testing.T) {
	store := &dyndb.MockStore[testItem]{
		RemoveFn: func(_ context.Context, hashKey, _ any) (int, error) {
			if hashKey == "1" {
				return 1, nil
			}
			return 0, nil
		},
	}
	observer := &recordingObserver{}
	service := newTestService(store, WithObserver[testItem](observer))

	n, err := service.Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = service.Delete(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, []string{"delete", "delete"}, observer.ops)
}

func TestEasyService_Replace(t *testing.T) {
	var order []string
	store := &dyndb.MockStore[testItem]{
		TruncateFn: func(context.Context) (int, error) {
			order = append(order, "truncate")
			return 3, nil
		},
		BatchInsertFn: func(_ context.Context, items []testItem) ([]testItem, error) {
			order = append(order, "insert")
			return items, nil
		},
	}
	service := newTestService(store)

	written, err := service.Replace(context.Background(), []testItem{{No: 1, Name: "bulbasaur"}, {No: 2, Name: "ivysaur"}})
	require.NoError(t, err)
	assert.Len(t, written, 2)
	assert.Equal(t, []string{"truncate", "insert"}, order)

	_, err = service.Replace(context.Background(), []testItem{{No: 0, Name: "missingno"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEasyService_Replace_DuplicateUniqueKeepsTable(t *testing.T) {
	store := &dyndb.MockStore[testItem]{
		TruncateFn: func(context.Context) (int, error) {
			t.Fatal("truncate must not run when items repeat a unique value")
			return 0, nil
		},
		BatchInsertFn: func(context.Context, []testItem) ([]testItem, error) {
			t.Fatal("insert must not run when items repeat a unique value")
			return nil, nil
		},
	}
	repo := NewRepository[testItem](nil, dyndb.TableConfig[testItem]{
		TableName: "test", HashKey: "id", Unique: []string{"no", "name"},
	}, WithStore[testItem](store))
	service := NewService[testItem](repo, WithEntity[testItem]("Pokemon"))

	_, err := service.Replace(context.Background(), []testItem{
		{No: 1, Name: "bulbasaur"},
		{No: 2, Name: "ivysaur"},
		{No: 3, Name: "bulbasaur"},
	})

	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "name", dup.Field)
	assert.Equal(t, "bulbasaur", dup.Value)

	_, err = service.Replace(context.Background(), []testItem{{No: 7, Name: "squirtle"}, {No: 7, Name: "wartortle"}})
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "no", dup.Field)
	assert.Equal(t, `Pokemon exists in db {"no":7}`, err.Error())
}

func TestEasyService_RegisterValidation(t *testing.T) {
	type tagged struct {
		Name string `validate:"pokename"`
	}
	service := newTestService(&dyndb.MockStore[testItem]{})
	require.NoError(t, service.RegisterValidation("pokename", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == strings.ToLower(fl.Field().String())
	}))

	assert.NoError(t, service.Validate(context.Background(), tagged{Name: "eevee"}))
	assert.ErrorIs(t, service.Validate(context.Background(), tagged{Name: "Eevee"}), ErrInvalidInput)
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, Translate("pokemon", "create", nil))

	existing := &NotFoundError{Entity: "pokemon", Key: "x"}
	assert.Same(t, existing, Translate("pokemon", "find", existing))

	assert.ErrorIs(t, Translate("pokemon", "find", dyndb.ErrNotFound), ErrNotFound)

	dup := Translate("pokemon", "create", &dyndb.ConditionalError{Attribute: "no", Value: int64(25)})
	assert.Equal(t, `pokemon exists in db {"no":25}`, dup.Error())

	assert.ErrorIs(t, Translate("pokemon", "list", errors.New("x")), ErrInternal)
}
