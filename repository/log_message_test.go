package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLogMessage(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)

	message, err := repo.LogMessageRepo.Append(instance.UUID, "worker started", entity.LogLevelDebug)
	require.NoError(t, err)
	assert.Equal(t, entity.LogLevelDebug, message.LogLevel)
	assert.Equal(t, "worker started", message.LogMessage)
}

func TestAppendLogMessageDefaultsToInfo(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)

	message, err := repo.LogMessageRepo.Append(instance.UUID, "plain line", "")
	require.NoError(t, err)
	assert.Equal(t, entity.LogLevelInfo, message.LogLevel)
}

func TestAppendLogMessageValidation(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)
	var validationErr *ValidationError

	_, err := repo.LogMessageRepo.Append(instance.UUID, "", entity.LogLevelInfo)
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "log_message", validationErr.Field)

	_, err = repo.LogMessageRepo.Append(instance.UUID, strings.Repeat("x", entity.MaxLogMessageLength+1), entity.LogLevelInfo)
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "log_message", validationErr.Field)

	_, err = repo.LogMessageRepo.Append(instance.UUID, "ok", "critical")
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "log_level", validationErr.Field)

	// Exactly at the limit is fine.
	_, err = repo.LogMessageRepo.Append(instance.UUID, strings.Repeat("x", entity.MaxLogMessageLength), entity.LogLevelWarning)
	assert.NoError(t, err)
}

func TestAppendLogMessageMissingInstance(t *testing.T) {
	repo, db := newTestRepository(t)

	_, err := repo.LogMessageRepo.Append(uuid.New(), "orphan line", entity.LogLevelInfo)
	var notFoundErr *NotFoundError
	require.True(t, errors.As(err, &notFoundErr))

	var count int64
	require.NoError(t, db.Model(&entity.FunctionInstanceLogMessage{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "nothing may persist for a missing instance")
}

func TestListLogMessagesByInstance(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)
	other := seedInstance(t, repo, db)

	_, err := repo.LogMessageRepo.Append(instance.UUID, "first", entity.LogLevelInfo)
	require.NoError(t, err)
	_, err = repo.LogMessageRepo.Append(instance.UUID, "second", entity.LogLevelError)
	require.NoError(t, err)
	_, err = repo.LogMessageRepo.Append(other.UUID, "elsewhere", entity.LogLevelInfo)
	require.NoError(t, err)

	messages, err := repo.LogMessageRepo.ListByInstance(instance.UUID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	for _, m := range messages {
		assert.Equal(t, instance.UUID, m.FunctionInstanceUUID)
	}
}
