// dyndb/store.go
package dyndb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/pokedex-service/envloader"
)

const (
	maxBatchWrite  = 25
	maxBatchGet    = 100
	maxBatchRetry  = 5
	batchRetryBase = 50 * time.Millisecond
)

type dynamoStore[T any] struct {
	client DynamoDBClient
	cfg    TableConfig[T]
	now    func() time.Time
}

// New cria um store reutilizável
func New[T any](client DynamoDBClient, cfg TableConfig[T]) Store[T] {
	if cfg.TableName == "" {
		_ = envloader.Load(&cfg)
	}

	return &dynamoStore[T]{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Get item por chave primária
func (s *dynamoStore[T]) Get(ctx context.Context, hashKey, sortKey any) (*T, error) {
	item, err := s.getRaw(ctx, s.key(hashKey, sortKey))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	var out T
	if err := attributevalue.UnmarshalMap(item, &out); err != nil {
		return nil, fmt.Errorf("dynamostore: unmarshal failed: %w", err)
	}
	return &out, nil
}

func (s *dynamoStore[T]) getRaw(ctx context.Context, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.cfg.TableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamostore: get failed: %w", err)
	}
	return out.Item, nil
}

// Put item (upsert)
func (s *dynamoStore[T]) Put(ctx context.Context, item T) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dynamostore: marshal failed: %w", err)
	}
	s.applyTTL(av)

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.cfg.TableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynamostore: put failed: %w", err)
	}
	return nil
}

// Delete item
func (s *dynamoStore[T]) Delete(ctx context.Context, hashKey, sortKey any) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.cfg.TableName),
		Key:       s.key(hashKey, sortKey),
	})
	if err != nil {
		return fmt.Errorf("dynamostore: delete failed: %w", err)
	}
	return nil
}

// BatchWrite: puts + deletes (máx 25 por chamada)
func (s *dynamoStore[T]) BatchWrite(ctx context.Context, puts []T, deletes [][2]any) error {
	var writeRequests []types.WriteRequest

	for _, item := range puts {
		itemMap, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("batchwrite: marshal put item failed: %w", err)
		}
		s.applyTTL(itemMap)
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: itemMap},
		})
	}

	for _, key := range deletes {
		writeRequests = append(writeRequests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: s.key(key[0], key[1])},
		})
	}

	return s.writeBatches(ctx, writeRequests)
}

// writeBatches envia as requisições em lotes de 25 e reenvia UnprocessedItems
// com backoff exponencial.
func (s *dynamoStore[T]) writeBatches(ctx context.Context, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += maxBatchWrite {
		end := min(i+maxBatchWrite, len(requests))

		pending := map[string][]types.WriteRequest{
			s.cfg.TableName: requests[i:end],
		}
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt > 0 {
				if attempt > maxBatchRetry {
					return fmt.Errorf("batchwrite failed: %d unprocessed items after %d retries",
						len(pending[s.cfg.TableName]), maxBatchRetry)
				}
				if err := sleep(ctx, batchRetryBase<<(attempt-1)); err != nil {
					return err
				}
			}

			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return fmt.Errorf("batchwrite failed: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

// BatchGet: até 100 chaves por chamada
func (s *dynamoStore[T]) BatchGet(ctx context.Context, keys [][2]any) ([]T, error) {
	keysToGet := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		keysToGet = append(keysToGet, s.key(k[0], k[1]))
	}

	var results []T

	for i := 0; i < len(keysToGet); i += maxBatchGet {
		end := min(i+maxBatchGet, len(keysToGet))

		pending := map[string]types.KeysAndAttributes{
			s.cfg.TableName: {
				Keys:           keysToGet[i:end],
				ConsistentRead: aws.Bool(true),
			},
		}
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt > 0 {
				if attempt > maxBatchRetry {
					return nil, fmt.Errorf("batchget failed: unprocessed keys after %d retries", maxBatchRetry)
				}
				if err := sleep(ctx, batchRetryBase<<(attempt-1)); err != nil {
					return nil, err
				}
			}

			resp, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return nil, fmt.Errorf("batchget failed: %w", err)
			}

			for _, item := range resp.Responses[s.cfg.TableName] {
				var t T
				if err := attributevalue.UnmarshalMap(item, &t); err != nil {
					return nil, err
				}
				results = append(results, t)
			}
			pending = resp.UnprocessedKeys
		}
	}

	return results, nil
}

func (s *dynamoStore[T]) key(hashKey, sortKey any) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		s.cfg.HashKey: attr(hashKey),
	}
	if s.cfg.SortKey != "" && sortKey != nil {
		key[s.cfg.SortKey] = attr(sortKey)
	}
	return key
}

// keyOf extrai a chave primária de um item já serializado.
func (s *dynamoStore[T]) keyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		s.cfg.HashKey: item[s.cfg.HashKey],
	}
	if s.cfg.SortKey != "" {
		if v, ok := item[s.cfg.SortKey]; ok {
			key[s.cfg.SortKey] = v
		}
	}
	return key
}

func (s *dynamoStore[T]) applyTTL(av map[string]types.AttributeValue) {
	if s.cfg.TTLAttribute == "" || s.cfg.DefaultTTL <= 0 {
		return
	}
	if v, ok := av[s.cfg.TTLAttribute]; ok && !isEmpty(v) {
		return
	}
	av[s.cfg.TTLAttribute] = attr(s.now().Add(s.cfg.DefaultTTL).Unix())
}

// attr converte qualquer valor para types.AttributeValue
func attr(v any) types.AttributeValue {
	if v == nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	if av, ok := v.(types.AttributeValue); ok {
		return av
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	return av
}

// isEmpty trata NULL, ausência e string vazia como "sem valor".
func isEmpty(v types.AttributeValue) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *types.AttributeValueMemberNULL:
		return true
	case *types.AttributeValueMemberS:
		return t.Value == ""
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
