// dyndb/write.go
package dyndb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MarkerPrefix identifica os itens que materializam restrições de unicidade.
const MarkerPrefix = "#unique#"

// markerRefAttribute guarda, no marcador, a chave do item dono do valor.
const markerRefAttribute = "ref"

const conditionalCheckFailed = "ConditionalCheckFailed"

// Insert grava o item apenas se a chave primária e os valores dos atributos
// únicos ainda estiverem livres. Com AutoID, gera a HashKey quando ausente.
func (s *dynamoStore[T]) Insert(ctx context.Context, item T) (*T, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("dynamostore: marshal failed: %w", err)
	}
	if s.cfg.AutoID && isEmpty(av[s.cfg.HashKey]) {
		av[s.cfg.HashKey] = &types.AttributeValueMemberS{Value: uuid.NewString()}
	}
	s.applyTTL(av)

	notExists, err := s.notExistsExpr()
	if err != nil {
		return nil, err
	}

	if len(s.cfg.Unique) == 0 {
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(s.cfg.TableName),
			Item:                     av,
			ConditionExpression:      notExists.Condition(),
			ExpressionAttributeNames: notExists.Names(),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return nil, &ConditionalError{Attribute: s.cfg.HashKey, Value: plainValue(av[s.cfg.HashKey])}
			}
			return nil, fmt.Errorf("dynamostore: insert failed: %w", err)
		}
		return decode[T](av)
	}

	tx := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:                aws.String(s.cfg.TableName),
			Item:                     av,
			ConditionExpression:      notExists.Condition(),
			ExpressionAttributeNames: notExists.Names(),
		},
	}}
	failures := []error{
		&ConditionalError{Attribute: s.cfg.HashKey, Value: plainValue(av[s.cfg.HashKey])},
	}

	for _, name := range s.cfg.Unique {
		v, ok := av[name]
		if !ok || isEmpty(v) {
			continue
		}
		tx = append(tx, types.TransactWriteItem{
			Put: &types.Put{
				TableName:                aws.String(s.cfg.TableName),
				Item:                     s.marker(name, v, av[s.cfg.HashKey]),
				ConditionExpression:      notExists.Condition(),
				ExpressionAttributeNames: notExists.Names(),
			},
		})
		failures = append(failures, &ConditionalError{Attribute: name, Value: plainValue(v)})
	}

	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx,
	}); err != nil {
		return nil, cancellation("insert", err, failures)
	}
	return decode[T](av)
}

// Update altera somente os atributos presentes em changes. Valores nil viram
// REMOVE. Alterar um atributo único troca o marcador antigo pelo novo na
// mesma transação.
func (s *dynamoStore[T]) Update(ctx context.Context, hashKey, sortKey any, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}

	names := make([]string, 0, len(changes))
	for name := range changes {
		if name == s.cfg.HashKey || (s.cfg.SortKey != "" && name == s.cfg.SortKey) {
			return fmt.Errorf("dynamostore: key attribute %q cannot be updated", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		if v := changes[name]; v == nil {
			update = update.Remove(expression.Name(name))
		} else {
			update = update.Set(expression.Name(name), expression.Value(v))
		}
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(s.cfg.HashKey))).
		Build()
	if err != nil {
		return fmt.Errorf("dynamostore: build update failed: %w", err)
	}

	key := s.key(hashKey, sortKey)
	touched := s.touchedUnique(changes)

	if len(touched) == 0 {
		_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.cfg.TableName),
			Key:                       key,
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return ErrNotFound
			}
			return fmt.Errorf("dynamostore: update failed: %w", err)
		}
		return nil
	}

	current, err := s.getRaw(ctx, key)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}

	notExists, err := s.notExistsExpr()
	if err != nil {
		return err
	}

	tx := []types.TransactWriteItem{{
		Update: &types.Update{
			TableName:                 aws.String(s.cfg.TableName),
			Key:                       key,
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
	}}
	failures := []error{ErrNotFound}

	for _, name := range touched {
		next := attr(changes[name])
		prev, had := current[name]
		if had && !isEmpty(prev) && sameValue(prev, next) {
			continue
		}
		if had && !isEmpty(prev) {
			// prev vem da leitura anterior: um update concorrente pode deixar
			// o marcador antigo órfão até o próximo Truncate.
			tx = append(tx, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(s.cfg.TableName),
					Key:       s.markerKey(name, prev),
				},
			})
			failures = append(failures, nil)
		}
		if !isEmpty(next) {
			tx = append(tx, types.TransactWriteItem{
				Put: &types.Put{
					TableName:                aws.String(s.cfg.TableName),
					Item:                     s.marker(name, next, current[s.cfg.HashKey]),
					ConditionExpression:      notExists.Condition(),
					ExpressionAttributeNames: notExists.Names(),
				},
			})
			failures = append(failures, &ConditionalError{Attribute: name, Value: plainValue(next)})
		}
	}

	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx,
	}); err != nil {
		return cancellation("update", err, failures)
	}
	return nil
}

// Remove apaga o item (e seus marcadores) devolvendo quantos itens de dados
// foram removidos.
func (s *dynamoStore[T]) Remove(ctx context.Context, hashKey, sortKey any) (int, error) {
	key := s.key(hashKey, sortKey)

	if len(s.cfg.Unique) == 0 {
		out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:    aws.String(s.cfg.TableName),
			Key:          key,
			ReturnValues: types.ReturnValueAllOld,
		})
		if err != nil {
			return 0, fmt.Errorf("dynamostore: delete failed: %w", err)
		}
		if len(out.Attributes) == 0 {
			return 0, nil
		}
		return 1, nil
	}

	current, err := s.getRaw(ctx, key)
	if err != nil {
		return 0, err
	}
	if current == nil {
		return 0, nil
	}

	exists, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(s.cfg.HashKey))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("dynamostore: build condition failed: %w", err)
	}

	tx := []types.TransactWriteItem{{
		Delete: &types.Delete{
			TableName:                aws.String(s.cfg.TableName),
			Key:                      key,
			ConditionExpression:      exists.Condition(),
			ExpressionAttributeNames: exists.Names(),
		},
	}}
	for _, name := range s.cfg.Unique {
		if v, ok := current[name]; ok && !isEmpty(v) {
			tx = append(tx, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(s.cfg.TableName),
					Key:       s.markerKey(name, v),
				},
			})
		}
	}

	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx,
	}); err != nil {
		if errors.Is(cancellation("delete", err, []error{ErrNotFound}), ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("dynamostore: delete failed: %w", err)
	}
	return 1, nil
}

// CheckUnique procura em items dois valores iguais para um mesmo atributo
// único e devolve *ConditionalError para o primeiro repetido.
func CheckUnique[T any](cfg TableConfig[T], items []T) error {
	if len(cfg.Unique) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items)*len(cfg.Unique))
	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("checkunique: marshal item failed: %w", err)
		}
		for _, name := range cfg.Unique {
			v, ok := av[name]
			if !ok || isEmpty(v) {
				continue
			}
			k := name + "#" + scalarString(v)
			if _, dup := seen[k]; dup {
				return &ConditionalError{Attribute: name, Value: plainValue(v)}
			}
			seen[k] = struct{}{}
		}
	}
	return nil
}

// BatchInsert grava itens (e marcadores) sem condição. Pensado para cargas
// iniciais sobre uma tabela vazia; valores únicos repetidos em items são
// rejeitados antes de qualquer escrita.
func (s *dynamoStore[T]) BatchInsert(ctx context.Context, items []T) ([]T, error) {
	if err := CheckUnique(s.cfg, items); err != nil {
		return nil, err
	}
	written := make([]T, 0, len(items))
	requests := make([]types.WriteRequest, 0, len(items)*(1+len(s.cfg.Unique)))

	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return nil, fmt.Errorf("batchinsert: marshal item failed: %w", err)
		}
		if s.cfg.AutoID && isEmpty(av[s.cfg.HashKey]) {
			av[s.cfg.HashKey] = &types.AttributeValueMemberS{Value: uuid.NewString()}
		}
		s.applyTTL(av)

		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
		for _, name := range s.cfg.Unique {
			if v, ok := av[name]; ok && !isEmpty(v) {
				requests = append(requests, types.WriteRequest{
					PutRequest: &types.PutRequest{Item: s.marker(name, v, av[s.cfg.HashKey])},
				})
			}
		}

		out, err := decode[T](av)
		if err != nil {
			return nil, err
		}
		written = append(written, *out)
	}

	if err := s.writeBatches(ctx, requests); err != nil {
		return nil, err
	}
	return written, nil
}

// Truncate apaga todos os itens da tabela, marcadores incluídos, e devolve
// quantos itens de dados foram removidos.
func (s *dynamoStore[T]) Truncate(ctx context.Context) (int, error) {
	proj := expression.NamesList(expression.Name(s.cfg.HashKey))
	if s.cfg.SortKey != "" {
		proj = proj.AddNames(expression.Name(s.cfg.SortKey))
	}
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return 0, fmt.Errorf("dynamostore: build projection failed: %w", err)
	}

	var (
		requests []types.WriteRequest
		count    int
		startKey map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(s.cfg.TableName),
			ProjectionExpression:     expr.Projection(),
			ExpressionAttributeNames: expr.Names(),
			ExclusiveStartKey:        startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("dynamostore: truncate scan failed: %w", err)
		}
		for _, item := range out.Items {
			if !isMarker(item[s.cfg.HashKey]) {
				count++
			}
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: s.keyOf(item)},
			})
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	if err := s.writeBatches(ctx, requests); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *dynamoStore[T]) notExistsExpr() (expression.Expression, error) {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(s.cfg.HashKey))).
		Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("dynamostore: build condition failed: %w", err)
	}
	return expr, nil
}

func (s *dynamoStore[T]) touchedUnique(changes map[string]any) []string {
	var touched []string
	for _, name := range s.cfg.Unique {
		if _, ok := changes[name]; ok {
			touched = append(touched, name)
		}
	}
	return touched
}

func (s *dynamoStore[T]) markerKey(name string, v types.AttributeValue) map[string]types.AttributeValue {
	id := &types.AttributeValueMemberS{Value: MarkerPrefix + name + "#" + scalarString(v)}
	key := map[string]types.AttributeValue{s.cfg.HashKey: id}
	if s.cfg.SortKey != "" {
		key[s.cfg.SortKey] = id
	}
	return key
}

func (s *dynamoStore[T]) marker(name string, v, owner types.AttributeValue) map[string]types.AttributeValue {
	item := s.markerKey(name, v)
	item[markerRefAttribute] = owner
	return item
}

// cancellation traduz o cancelamento de uma transação no erro associado à
// primeira operação cuja condição falhou. failures[i] corresponde ao item i.
func cancellation(op string, err error, failures []error) error {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for i, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == conditionalCheckFailed && i < len(failures) && failures[i] != nil {
				return failures[i]
			}
		}
	}
	return fmt.Errorf("dynamostore: %s failed: %w", op, err)
}

func decode[T any](av map[string]types.AttributeValue) (*T, error) {
	var out T
	if err := attributevalue.UnmarshalMap(av, &out); err != nil {
		return nil, fmt.Errorf("dynamostore: unmarshal failed: %w", err)
	}
	return &out, nil
}

func isMarker(v types.AttributeValue) bool {
	s, ok := v.(*types.AttributeValueMemberS)
	return ok && strings.HasPrefix(s.Value, MarkerPrefix)
}

func sameValue(a, b types.AttributeValue) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b) && scalarString(a) == scalarString(b)
}

// scalarString representa um valor escalar como texto (usado na chave dos marcadores).
func scalarString(v types.AttributeValue) string {
	switch t := v.(type) {
	case *types.AttributeValueMemberS:
		return t.Value
	case *types.AttributeValueMemberN:
		return t.Value
	case *types.AttributeValueMemberBOOL:
		return strconv.FormatBool(t.Value)
	}
	return fmt.Sprintf("%v", plainValue(v))
}

// plainValue converte um AttributeValue escalar no valor Go correspondente.
// Números inteiros viram int64.
func plainValue(v types.AttributeValue) any {
	switch t := v.(type) {
	case *types.AttributeValueMemberS:
		return t.Value
	case *types.AttributeValueMemberN:
		if n, err := strconv.ParseInt(t.Value, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(t.Value, 64); err == nil {
			return f
		}
		return t.Value
	case *types.AttributeValueMemberBOOL:
		return t.Value
	case nil, *types.AttributeValueMemberNULL:
		return nil
	}
	var out any
	if err := attributevalue.Unmarshal(v, &out); err != nil {
		return nil
	}
	return out
}
