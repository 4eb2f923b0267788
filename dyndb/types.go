// dyndb/types.go
package dyndb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrNotFound – erro padrão quando o item não existe
var ErrNotFound = errors.New("dyndb: item not found")

// ErrConditionFailed é o alvo de errors.Is para qualquer *ConditionalError.
var ErrConditionFailed = errors.New("dyndb: condition check failed")

// ConditionalError indica que uma escrita foi rejeitada porque Attribute=Value
// já está em uso na tabela (chave primária ou atributo único).
type ConditionalError struct {
	Attribute string
	Value     any
}

func (e *ConditionalError) Error() string {
	return fmt.Sprintf("dyndb: conditional check failed for %s=%v", e.Attribute, e.Value)
}

func (e *ConditionalError) Is(target error) bool {
	return target == ErrConditionFailed
}

// DynamoDBClient interface para abstrair o cliente DynamoDB
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store é a interface principal (genérica)
type Store[T any] interface {
	Get(ctx context.Context, hashKey, sortKey any) (*T, error)
	Put(ctx context.Context, item T) error
	Delete(ctx context.Context, hashKey, sortKey any) error

	// Insert cria o item somente se a chave (e os atributos únicos) ainda não existirem.
	Insert(ctx context.Context, item T) (*T, error)
	// Update aplica SET (ou REMOVE para valores nil) apenas nos atributos informados.
	Update(ctx context.Context, hashKey, sortKey any, changes map[string]any) error
	// Remove apaga o item e devolve quantos itens foram de fato removidos (0 ou 1).
	Remove(ctx context.Context, hashKey, sortKey any) (int, error)

	BatchWrite(ctx context.Context, puts []T, deletes [][2]any) error
	BatchGet(ctx context.Context, keys [][2]any) ([]T, error)
	BatchInsert(ctx context.Context, items []T) ([]T, error)
	Truncate(ctx context.Context) (int, error)

	// Query e Scan retornam QueryBuilder[T]
	Query() *QueryBuilder[T]
	Scan() *QueryBuilder[T]
	Page(ctx context.Context, req PageRequest) ([]T, error)
}

// GlobalSecondaryIndex para GSIs
type GlobalSecondaryIndex struct {
	Name           string               `env:"DYNAMODB_GSI_NAME"`
	HashKey        string               `env:"DYNAMODB_GSI_HASH_KEY"`
	SortKey        string               `env:"DYNAMODB_GSI_SORT_KEY"`
	ProjectionType types.ProjectionType `env:"DYNAMODB_GSI_PROJECTION_TYPE"`
}

// TableConfig descreve a tabela
type TableConfig[T any] struct {
	TableName    string        `env:"DYNAMODB_TABLE_NAME"`
	HashKey      string        `env:"DYNAMODB_HASH_KEY" envDefault:"id"`
	SortKey      string        `env:"DYNAMODB_SORT_KEY"`      // opcional
	TTLAttribute string        `env:"DYNAMODB_TTL_ATTRIBUTE"` // opcional
	DefaultTTL   time.Duration `env:"DYNAMODB_DEFAULT_TTL"`   // aplicado quando o item não traz TTL

	// Unique lista atributos que não podem se repetir na tabela. Cada valor é
	// materializado como um item marcador gravado na mesma transação do item.
	// Exige HashKey do tipo string.
	Unique []string `env:"DYNAMODB_UNIQUE_ATTRIBUTES"`

	// AutoID gera um UUID v4 para a HashKey quando o item chega sem ela no Insert.
	AutoID bool
}

// PageRequest descreve uma leitura paginada por offset/limit sobre um índice
// cuja sort key define a ordem.
type PageRequest struct {
	Index        string
	KeyAttribute string
	KeyValue     any
	Offset       int
	Limit        int
	Descending   bool
}

// QueryFilter é um filtro simples de igualdade
type QueryFilter[T any] func(*QueryBuilder[T])

// QuerySpec é uma visão somente leitura do que foi configurado no builder.
type QuerySpec struct {
	Index   string
	Keys    map[string]any
	Filters map[string]any
	Limit   int32
	Scan    bool
}

// QueryBuilder é o builder fluente
type QueryBuilder[T any] struct {
	store       *dynamoStore[T]
	keyCond     *expression.KeyConditionBuilder
	filterCond  *expression.ConditionBuilder
	projection  *expression.ProjectionBuilder
	indexName   *string
	limit       *int32
	lastKey     map[string]types.AttributeValue
	scanForward *bool
	isScan      bool

	spec   QuerySpec
	execFn func(ctx context.Context, spec QuerySpec) ([]T, string, error)
}

// Spec devolve os parâmetros registrados até agora.
func (qb *QueryBuilder[T]) Spec() QuerySpec {
	return qb.spec
}

func encodeToken(lastKey map[string]types.AttributeValue) string {
	if lastKey == nil {
		return ""
	}
	plain := make(map[string]any, len(lastKey))
	if err := attributevalue.UnmarshalMap(lastKey, &plain); err != nil {
		return ""
	}
	b, err := json.Marshal(plain)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func decodeToken(token string) map[string]types.AttributeValue {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil
	}
	key, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil
	}
	return key
}
