package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// mockMongoDuplicateKeyError creates an error that IsMongoDuplicateKeyError will recognize.
func mockMongoDuplicateKeyError(key string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: blast.campaigns index: _id_ dup key: { : \"%s\" }", key),
	}}}
}

func TestWithRetries_SuccessfulFirstAttempt(t *testing.T) {
	var opCalled int
	err := WithRetries(func() error {
		opCalled++
		return nil
	}, 3, IsDuplicateKeyError)

	assert.NoError(t, err)
	assert.Equal(t, 1, opCalled)
}

func TestWithRetries_FailureNotRetryable(t *testing.T) {
	var opCalled int
	expectedErr := errors.New("some other error")
	err := WithRetries(func() error {
		opCalled++
		return expectedErr
	}, 3, IsDuplicateKeyError)

	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 1, opCalled)
}

func TestWithRetries_ExhaustRetries(t *testing.T) {
	var opCalled int
	err := WithRetries(func() error {
		opCalled++
		return mockMongoDuplicateKeyError("campaign_1")
	}, 3, IsDuplicateKeyError)

	require.Error(t, err)
	assert.True(t, IsMongoDuplicateKeyError(err))
	assert.Equal(t, 4, opCalled)
}

func TestWithRetries_CollisionResolves(t *testing.T) {
	ids := []string{"campaign_a", "campaign_a", "campaign_b"}
	inserted := map[string]bool{"campaign_a": true}

	var opCalled int
	err := Try(func() error {
		id := ids[opCalled]
		opCalled++
		if inserted[id] {
			return fmt.Errorf("insert %s: %w", id, ErrDuplicateKey)
		}
		inserted[id] = true
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, opCalled)
	assert.True(t, inserted["campaign_b"])
}

func TestOnlyDuplicateKeyErrors(t *testing.T) {
	dups := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		{WriteError: mongo.WriteError{Code: 11000}},
		{WriteError: mongo.WriteError{Code: 11000}},
	}}
	mixed := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		{WriteError: mongo.WriteError{Code: 11000}},
		{WriteError: mongo.WriteError{Code: 121}},
	}}

	assert.True(t, OnlyDuplicateKeyErrors(dups))
	assert.False(t, OnlyDuplicateKeyErrors(mixed))
	assert.False(t, OnlyDuplicateKeyErrors(errors.New("boom")))
	assert.True(t, IsMongoDuplicateKeyError(dups))
}
