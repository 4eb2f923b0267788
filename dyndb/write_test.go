// dyndb/write_test.go
package dyndb_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/raywall/pokedex-service/dyndb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cancelled(codes ...string) error {
	reasons := make([]types.CancellationReason, 0, len(codes))
	for _, c := range codes {
		reasons = append(reasons, types.CancellationReason{Code: aws.String(c)})
	}
	return &types.TransactionCanceledException{
		Message:             aws.String("Transaction cancelled"),
		CancellationReasons: reasons,
	}
}

func hashOf(item map[string]types.AttributeValue) string {
	if s, ok := item["id"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func TestInsert_ConditionalPut(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return in.ConditionExpression != nil && strings.Contains(*in.ConditionExpression, "attribute_not_exists")
	})).Return(&dynamodb.PutItemOutput{}, nil)

	out, err := store.Insert(context.Background(), TestItem{ID: "1", No: 1, Name: "bulbasaur"})

	require.NoError(t, err)
	assert.Equal(t, "1", out.ID)
	mockClient.AssertExpectations(t)
}

func TestInsert_ExistingKey(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")})

	_, err := store.Insert(context.Background(), TestItem{ID: "1"})

	var condErr *dyndb.ConditionalError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "id", condErr.Attribute)
	assert.Equal(t, "1", condErr.Value)
	assert.ErrorIs(t, err, dyndb.ErrConditionFailed)
}

func TestInsert_UniqueMarkersAndAutoID(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	var captured *dynamodb.TransactWriteItemsInput
	mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*dynamodb.TransactWriteItemsInput)
		}).
		Return(&dynamodb.TransactWriteItemsOutput{}, nil)

	out, err := store.Insert(context.Background(), TestItem{No: 25, Name: "pikachu"})

	require.NoError(t, err)
	_, parseErr := uuid.Parse(out.ID)
	assert.NoError(t, parseErr)

	require.NotNil(t, captured)
	require.Len(t, captured.TransactItems, 3)

	main := captured.TransactItems[0].Put
	assert.Equal(t, out.ID, hashOf(main.Item))

	noMarker := captured.TransactItems[1].Put
	assert.Equal(t, dyndb.MarkerPrefix+"no#25", hashOf(noMarker.Item))
	assert.Equal(t, str(out.ID), noMarker.Item["ref"])
	assert.Contains(t, *noMarker.ConditionExpression, "attribute_not_exists")

	nameMarker := captured.TransactItems[2].Put
	assert.Equal(t, dyndb.MarkerPrefix+"name#pikachu", hashOf(nameMarker.Item))
}

func TestInsert_DuplicateUniqueValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		codes     []string
		attribute string
		value     any
	}{
		{"duplicate no", []string{"None", "ConditionalCheckFailed", "None"}, "no", int64(25)},
		{"duplicate name", []string{"None", "None", "ConditionalCheckFailed"}, "name", "pikachu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &MockDynamoClient{}
			store := createUniqueStore(mockClient)

			mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, cancelled(tt.codes...))

			_, err := store.Insert(context.Background(), TestItem{No: 25, Name: "pikachu"})

			var condErr *dyndb.ConditionalError
			require.ErrorAs(t, err, &condErr)
			assert.Equal(t, tt.attribute, condErr.Attribute)
			assert.Equal(t, tt.value, condErr.Value)
		})
	}
}

func TestInsert_TransactionFault(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	boom := errors.New("connection reset")
	mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := store.Insert(context.Background(), TestItem{No: 1, Name: "bulbasaur"})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, dyndb.ErrConditionFailed)
}

func TestUpdate_PlainAttributes(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return assert.ObjectsAreEqual(str("abc"), in.Key["id"]) &&
			strings.Contains(*in.UpdateExpression, "SET") &&
			strings.Contains(*in.UpdateExpression, "REMOVE") &&
			strings.Contains(*in.ConditionExpression, "attribute_exists")
	})).Return(&dynamodb.UpdateItemOutput{}, nil)

	err := store.Update(context.Background(), "abc", nil, map[string]any{"kind": "pokemon", "ttl": nil})

	require.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestUpdate_MissingItem(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")})

	err := store.Update(context.Background(), "abc", nil, map[string]any{"kind": "pokemon"})

	assert.ErrorIs(t, err, dyndb.ErrNotFound)
}

func TestUpdate_Empty(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	require.NoError(t, store.Update(context.Background(), "abc", nil, nil))
	mockClient.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
}

func TestUpdate_KeyAttributeRejected(t *testing.T) {
	t.Parallel()

	store := createTestStore(&MockDynamoClient{})

	err := store.Update(context.Background(), "abc", nil, map[string]any{"id": "other"})

	assert.Error(t, err)
}

func TestUpdate_SwapsUniqueMarker(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{"id": str("abc"), "no": num("25"), "name": str("pikachu")},
	}, nil)

	var captured *dynamodb.TransactWriteItemsInput
	mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*dynamodb.TransactWriteItemsInput)
		}).
		Return(&dynamodb.TransactWriteItemsOutput{}, nil)

	err := store.Update(context.Background(), "abc", nil, map[string]any{"name": "raichu", "no": 25})

	require.NoError(t, err)
	require.NotNil(t, captured)
	// update + delete do marcador antigo + put do novo; "no" não mudou
	require.Len(t, captured.TransactItems, 3)
	assert.NotNil(t, captured.TransactItems[0].Update)
	assert.Equal(t, dyndb.MarkerPrefix+"name#pikachu", hashOf(captured.TransactItems[1].Delete.Key))
	assert.Equal(t, dyndb.MarkerPrefix+"name#raichu", hashOf(captured.TransactItems[2].Put.Item))
}

func TestUpdate_UniqueConflict(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{"id": str("abc"), "no": num("25"), "name": str("pikachu")},
	}, nil)
	mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).
		Return(nil, cancelled("None", "None", "ConditionalCheckFailed"))

	err := store.Update(context.Background(), "abc", nil, map[string]any{"name": "raichu"})

	var condErr *dyndb.ConditionalError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "name", condErr.Attribute)
	assert.Equal(t, "raichu", condErr.Value)
}

func TestRemove_WithoutUnique(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createTestStore(mockClient)

	mockClient.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return in.ReturnValues == types.ReturnValueAllOld && hashOf(in.Key) == "1"
	})).Return(&dynamodb.DeleteItemOutput{Attributes: map[string]types.AttributeValue{"id": str("1")}}, nil).Once()
	mockClient.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil)

	n, err := store.Remove(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Remove(context.Background(), "2", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRemove_DeletesMarkers(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{"id": str("abc"), "no": num("25"), "name": str("pikachu")},
	}, nil)
	mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		return len(in.TransactItems) == 3 &&
			hashOf(in.TransactItems[1].Delete.Key) == dyndb.MarkerPrefix+"no#25" &&
			hashOf(in.TransactItems[2].Delete.Key) == dyndb.MarkerPrefix+"name#pikachu"
	})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

	n, err := store.Remove(context.Background(), "abc", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	mockClient.AssertExpectations(t)
}

func TestRemove_MissingItem(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	n, err := store.Remove(context.Background(), "abc", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	mockClient.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
}

func TestRemove_ConcurrentDelete(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{"id": str("abc"), "name": str("pikachu")},
	}, nil)
	mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).
		Return(nil, cancelled("ConditionalCheckFailed", "None"))

	n, err := store.Remove(context.Background(), "abc", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBatchInsert_WritesMarkers(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	var total int
	mockClient.On("BatchWriteItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			total += len(args.Get(1).(*dynamodb.BatchWriteItemInput).RequestItems["test-table"])
		}).
		Return(&dynamodb.BatchWriteItemOutput{}, nil)

	items := []TestItem{{No: 1, Name: "bulbasaur"}, {No: 2, Name: "ivysaur"}}
	written, err := store.BatchInsert(context.Background(), items)

	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.NotEmpty(t, written[0].ID)
	assert.NotEqual(t, written[0].ID, written[1].ID)
	assert.Equal(t, 6, total)
}

func TestBatchInsert_RepeatedUniqueValue(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	items := []TestItem{{No: 1, Name: "bulbasaur"}, {No: 2, Name: "bulbasaur"}}
	_, err := store.BatchInsert(context.Background(), items)

	var cond *dyndb.ConditionalError
	require.ErrorAs(t, err, &cond)
	assert.ErrorIs(t, err, dyndb.ErrConditionFailed)
	assert.Equal(t, "name", cond.Attribute)
	assert.Equal(t, "bulbasaur", cond.Value)
	mockClient.AssertNotCalled(t, "BatchWriteItem", mock.Anything, mock.Anything)
}

func TestCheckUnique(t *testing.T) {
	t.Parallel()

	cfg := dyndb.TableConfig[TestItem]{TableName: "test-table", HashKey: "id", Unique: []string{"no", "name"}}

	require.NoError(t, dyndb.CheckUnique(cfg, []TestItem{{No: 1, Name: "a"}, {No: 2, Name: "b"}}))
	require.NoError(t, dyndb.CheckUnique(dyndb.TableConfig[TestItem]{}, []TestItem{{No: 1}, {No: 1}}))

	err := dyndb.CheckUnique(cfg, []TestItem{{No: 4, Name: "a"}, {No: 4, Name: "b"}})
	var cond *dyndb.ConditionalError
	require.ErrorAs(t, err, &cond)
	assert.Equal(t, "no", cond.Attribute)
	assert.Equal(t, int64(4), cond.Value)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	mockClient := &MockDynamoClient{}
	store := createUniqueStore(mockClient)

	mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			{"id": str("a")},
			{"id": str(dyndb.MarkerPrefix + "name#pikachu")},
		},
		LastEvaluatedKey: map[string]types.AttributeValue{"id": str("a")},
	}, nil).Once()
	mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{{"id": str("b")}},
	}, nil).Once()

	var deletes int
	mockClient.On("BatchWriteItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			deletes += len(args.Get(1).(*dynamodb.BatchWriteItemInput).RequestItems["test-table"])
		}).
		Return(&dynamodb.BatchWriteItemOutput{}, nil)

	n, err := store.Truncate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, deletes)
}
