// dyndb/mock.go
package dyndb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// MockStore é um mock da interface Store[T] para testes de camadas superiores.
//
// Cada operação delega para o campo de função correspondente (`GetFn`,
// `InsertFn`, ...). Campos não definidos devolvem valores neutros.
type MockStore[T any] struct {
	GetFn         func(ctx context.Context, hashKey, sortKey any) (*T, error)
	PutFn         func(ctx context.Context, item T) error
	DeleteFn      func(ctx context.Context, hashKey, sortKey any) error
	InsertFn      func(ctx context.Context, item T) (*T, error)
	UpdateFn      func(ctx context.Context, hashKey, sortKey any, changes map[string]any) error
	RemoveFn      func(ctx context.Context, hashKey, sortKey any) (int, error)
	BatchWriteFn  func(ctx context.Context, puts []T, deletes [][2]any) error
	BatchGetFn    func(ctx context.Context, keys [][2]any) ([]T, error)
	BatchInsertFn func(ctx context.Context, items []T) ([]T, error)
	TruncateFn    func(ctx context.Context) (int, error)
	PageFn        func(ctx context.Context, req PageRequest) ([]T, error)

	// QueryFn e ScanFn recebem o QuerySpec montado pelo chamador.
	QueryFn func(ctx context.Context, spec QuerySpec) ([]T, string, error)
	ScanFn  func(ctx context.Context, spec QuerySpec) ([]T, string, error)
}

var _ Store[struct{}] = (*MockStore[struct{}])(nil)

func (m *MockStore[T]) Get(ctx context.Context, hashKey, sortKey any) (*T, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, hashKey, sortKey)
	}
	return nil, ErrNotFound
}

func (m *MockStore[T]) Put(ctx context.Context, item T) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, item)
	}
	return nil
}

func (m *MockStore[T]) Delete(ctx context.Context, hashKey, sortKey any) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, hashKey, sortKey)
	}
	return nil
}

func (m *MockStore[T]) Insert(ctx context.Context, item T) (*T, error) {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, item)
	}
	return &item, nil
}

func (m *MockStore[T]) Update(ctx context.Context, hashKey, sortKey any, changes map[string]any) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, hashKey, sortKey, changes)
	}
	return nil
}

func (m *MockStore[T]) Remove(ctx context.Context, hashKey, sortKey any) (int, error) {
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, hashKey, sortKey)
	}
	return 0, nil
}

func (m *MockStore[T]) BatchWrite(ctx context.Context, puts []T, deletes [][2]any) error {
	if m.BatchWriteFn != nil {
		return m.BatchWriteFn(ctx, puts, deletes)
	}
	return nil
}

func (m *MockStore[T]) BatchGet(ctx context.Context, keys [][2]any) ([]T, error) {
	if m.BatchGetFn != nil {
		return m.BatchGetFn(ctx, keys)
	}
	return nil, nil
}

func (m *MockStore[T]) BatchInsert(ctx context.Context, items []T) ([]T, error) {
	if m.BatchInsertFn != nil {
		return m.BatchInsertFn(ctx, items)
	}
	return items, nil
}

func (m *MockStore[T]) Truncate(ctx context.Context) (int, error) {
	if m.TruncateFn != nil {
		return m.TruncateFn(ctx)
	}
	return 0, nil
}

func (m *MockStore[T]) Page(ctx context.Context, req PageRequest) ([]T, error) {
	if m.PageFn != nil {
		return m.PageFn(ctx, req)
	}
	return []T{}, nil
}

func (m *MockStore[T]) Query() *QueryBuilder[T] {
	return NewMockQueryBuilder(m.QueryFn, false)
}

func (m *MockStore[T]) Scan() *QueryBuilder[T] {
	return NewMockQueryBuilder(m.ScanFn, true)
}

// NewMockQueryBuilder devolve um QueryBuilder cujo Exec chama fn com o
// QuerySpec acumulado, sem tocar no DynamoDB.
func NewMockQueryBuilder[T any](fn func(ctx context.Context, spec QuerySpec) ([]T, string, error), scan bool) *QueryBuilder[T] {
	if fn == nil {
		fn = func(context.Context, QuerySpec) ([]T, string, error) { return []T{}, "", nil }
	}
	return &QueryBuilder[T]{
		isScan: scan,
		spec:   QuerySpec{Scan: scan},
		execFn: fn,
	}
}

// MockDynamoClient é um mock para a interface DynamoDBClient de baixo nível.
//
// Permite testar a lógica interna do `dynamoStore` sem tocar no AWS SDK.
type MockDynamoClient struct {
	GetItemFn            func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItemFn            func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItemFn         func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItemFn         func(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItemFn     func(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	BatchGetItemFn       func(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItemsFn func(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	QueryFn              func(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	ScanFn               func(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ DynamoDBClient = (*MockDynamoClient)(nil)

func (m *MockDynamoClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.GetItemFn != nil {
		return m.GetItemFn(ctx, params, optFns...)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *MockDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.PutItemFn != nil {
		return m.PutItemFn(ctx, params, optFns...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *MockDynamoClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if m.UpdateItemFn != nil {
		return m.UpdateItemFn(ctx, params, optFns...)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *MockDynamoClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if m.DeleteItemFn != nil {
		return m.DeleteItemFn(ctx, params, optFns...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *MockDynamoClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if m.BatchWriteItemFn != nil {
		return m.BatchWriteItemFn(ctx, params, optFns...)
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (m *MockDynamoClient) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	if m.BatchGetItemFn != nil {
		return m.BatchGetItemFn(ctx, params, optFns...)
	}
	return &dynamodb.BatchGetItemOutput{}, nil
}

func (m *MockDynamoClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	if m.TransactWriteItemsFn != nil {
		return m.TransactWriteItemsFn(ctx, params, optFns...)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (m *MockDynamoClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, params, optFns...)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (m *MockDynamoClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if m.ScanFn != nil {
		return m.ScanFn(ctx, params, optFns...)
	}
	return &dynamodb.ScanOutput{}, nil
}
