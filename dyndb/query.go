// dyndb/query.go
package dyndb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// === MÉTODOS FLUENTES ===

func (qb *QueryBuilder[T]) Index(name string) *QueryBuilder[T] {
	qb.indexName = aws.String(name)
	qb.spec.Index = name
	return qb
}

func (qb *QueryBuilder[T]) KeyEqual(key string, value any) *QueryBuilder[T] {
	qb.andKey(expression.KeyEqual(expression.Key(key), expression.Value(value)))
	qb.record(&qb.spec.Keys, key, value)
	return qb
}

func (qb *QueryBuilder[T]) KeyBeginsWith(key, prefix string) *QueryBuilder[T] {
	qb.andKey(expression.Key(key).BeginsWith(prefix))
	qb.record(&qb.spec.Keys, key, prefix)
	return qb
}

func (qb *QueryBuilder[T]) FilterEqual(field string, value any) *QueryBuilder[T] {
	qb.andFilter(expression.Equal(expression.Name(field), expression.Value(value)))
	qb.record(&qb.spec.Filters, field, value)
	return qb
}

func (qb *QueryBuilder[T]) FilterContains(field string, value any) *QueryBuilder[T] {
	qb.andFilter(expression.Contains(expression.Name(field), value))
	qb.record(&qb.spec.Filters, field, value)
	return qb
}

func (qb *QueryBuilder[T]) Limit(n int32) *QueryBuilder[T] {
	qb.limit = &n
	qb.spec.Limit = n
	return qb
}

func (qb *QueryBuilder[T]) Descending() *QueryBuilder[T] {
	qb.scanForward = aws.Bool(false)
	return qb
}

func (qb *QueryBuilder[T]) LastKey(token string) *QueryBuilder[T] {
	if token != "" {
		qb.lastKey = decodeToken(token)
	}
	return qb
}

// Apply aplica filtros funcionais (WithIndex, WithLimit, ...).
func (qb *QueryBuilder[T]) Apply(filters ...QueryFilter[T]) *QueryBuilder[T] {
	for _, f := range filters {
		f(qb)
	}
	return qb
}

func (qb *QueryBuilder[T]) andKey(cond expression.KeyConditionBuilder) {
	if qb.keyCond == nil {
		qb.keyCond = &cond
		return
	}
	tmp := qb.keyCond.And(cond)
	qb.keyCond = &tmp
}

func (qb *QueryBuilder[T]) andFilter(cond expression.ConditionBuilder) {
	if qb.filterCond == nil {
		qb.filterCond = &cond
		return
	}
	tmp := qb.filterCond.And(cond)
	qb.filterCond = &tmp
}

func (qb *QueryBuilder[T]) record(dst *map[string]any, name string, value any) {
	if *dst == nil {
		*dst = map[string]any{}
	}
	(*dst)[name] = value
}

// Query inicia uma Query
func (s *dynamoStore[T]) Query() *QueryBuilder[T] {
	return &QueryBuilder[T]{
		store:       s,
		scanForward: aws.Bool(true),
	}
}

// Scan inicia um Scan
func (s *dynamoStore[T]) Scan() *QueryBuilder[T] {
	return &QueryBuilder[T]{
		store:  s,
		isScan: true,
		spec:   QuerySpec{Scan: true},
	}
}

func WithKeyCondition[T any](cond expression.KeyConditionBuilder) QueryFilter[T] {
	return func(qb *QueryBuilder[T]) {
		qb.andKey(cond)
	}
}

func WithFilter[T any](cond expression.ConditionBuilder) QueryFilter[T] {
	return func(qb *QueryBuilder[T]) {
		qb.andFilter(cond)
	}
}

func WithIndex[T any](name string) QueryFilter[T] {
	return func(qb *QueryBuilder[T]) {
		qb.Index(name)
	}
}

func WithLimit[T any](n int32) QueryFilter[T] {
	return func(qb *QueryBuilder[T]) {
		qb.Limit(n)
	}
}

func WithLastEvaluatedKey[T any](token string) QueryFilter[T] {
	return func(qb *QueryBuilder[T]) {
		qb.LastKey(token)
	}
}

func WithScanForward[T any](forward bool) QueryFilter[T] {
	return func(qb *QueryBuilder[T]) {
		qb.scanForward = &forward
	}
}

// Exec executa a consulta
func (qb *QueryBuilder[T]) Exec(ctx context.Context) ([]T, string, error) {
	if qb.execFn != nil {
		return qb.execFn(ctx, qb.spec)
	}

	builder := expression.NewBuilder()
	empty := true

	if qb.keyCond != nil && !qb.isScan {
		builder = builder.WithKeyCondition(*qb.keyCond)
		empty = false
	}

	filter := qb.filterCond
	if (qb.isScan || qb.keyCond == nil) && len(qb.store.cfg.Unique) > 0 {
		// marcadores de unicidade vivem na mesma tabela
		hide := expression.Not(expression.Name(qb.store.cfg.HashKey).BeginsWith(MarkerPrefix))
		if filter != nil {
			hide = filter.And(hide)
		}
		filter = &hide
	}
	if filter != nil {
		builder = builder.WithFilter(*filter)
		empty = false
	}
	if qb.projection != nil {
		builder = builder.WithProjection(*qb.projection)
		empty = false
	}

	var expr expression.Expression
	if !empty {
		var err error
		if expr, err = builder.Build(); err != nil {
			return nil, "", fmt.Errorf("dynamostore: build expression failed: %w", err)
		}
	}

	if qb.isScan || qb.keyCond == nil {
		return qb.execScan(ctx, expr)
	}
	return qb.execQuery(ctx, expr)
}

func (qb *QueryBuilder[T]) execQuery(ctx context.Context, expr expression.Expression) ([]T, string, error) {
	out, err := qb.store.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(qb.store.cfg.TableName),
		IndexName:                 qb.indexName,
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     qb.limit,
		ScanIndexForward:          qb.scanForward,
		ExclusiveStartKey:         qb.lastKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("dynamostore: query failed: %w", err)
	}
	return unmarshalResults[T](out.Items, out.LastEvaluatedKey)
}

func (qb *QueryBuilder[T]) execScan(ctx context.Context, expr expression.Expression) ([]T, string, error) {
	out, err := qb.store.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(qb.store.cfg.TableName),
		IndexName:                 qb.indexName,
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     qb.limit,
		ExclusiveStartKey:         qb.lastKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("dynamostore: scan failed: %w", err)
	}
	return unmarshalResults[T](out.Items, out.LastEvaluatedKey)
}

func unmarshalResults[T any](
	items []map[string]types.AttributeValue,
	lastKey map[string]types.AttributeValue,
) ([]T, string, error) {
	result := make([]T, 0, len(items))
	for _, item := range items {
		var t T
		if err := attributevalue.UnmarshalMap(item, &t); err != nil {
			return nil, "", fmt.Errorf("dynamostore: unmarshal failed: %w", err)
		}
		result = append(result, t)
	}
	return result, encodeToken(lastKey), nil
}

// maxPageRead limita os itens pedidos ao DynamoDB por chamada de Query em Page.
const maxPageRead = 1000

// Page percorre o índice na ordem da sort key, descarta os primeiros
// req.Offset itens e devolve no máximo req.Limit itens.
func (s *dynamoStore[T]) Page(ctx context.Context, req PageRequest) ([]T, error) {
	if req.Limit <= 0 {
		return []T{}, nil
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	keyCond := expression.KeyEqual(expression.Key(req.KeyAttribute), expression.Value(req.KeyValue))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("dynamostore: build page expression failed: %w", err)
	}

	var index *string
	if req.Index != "" {
		index = aws.String(req.Index)
	}

	skip := req.Offset
	result := make([]T, 0, min(req.Limit, maxPageRead))
	var startKey map[string]types.AttributeValue

	for {
		// lê apenas o necessário para cobrir o que falta de offset + limit,
		// sem somar valores que podem estourar int
		want := maxPageRead
		if missing := req.Limit - len(result); skip < maxPageRead && missing < maxPageRead-skip {
			want = skip + missing
		}
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.cfg.TableName),
			IndexName:                 index,
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ScanIndexForward:          aws.Bool(!req.Descending),
			Limit:                     aws.Int32(int32(want)),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamostore: page query failed: %w", err)
		}

		items := out.Items
		if skip > 0 {
			n := min(skip, len(items))
			items = items[n:]
			skip -= n
		}
		for _, item := range items {
			if len(result) == req.Limit {
				break
			}
			var t T
			if err := attributevalue.UnmarshalMap(item, &t); err != nil {
				return nil, fmt.Errorf("dynamostore: unmarshal failed: %w", err)
			}
			result = append(result, t)
		}

		if len(result) == req.Limit || len(out.LastEvaluatedKey) == 0 {
			return result, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
