package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"gorm.io/gorm"
)

type LogMessageRepository struct {
	db *gorm.DB
}

func NewLogMessageRepository(db *gorm.DB) *LogMessageRepository {
	return &LogMessageRepository{db: db}
}

// Append persists one worker log line for an instance. Lines are bounded
// and append-only.
func (r *LogMessageRepository) Append(fiUUID uuid.UUID, message string, level entity.LogLevel) (*entity.FunctionInstanceLogMessage, error) {
	if message == "" {
		return nil, &ValidationError{Field: "log_message", Message: "field is required"}
	}
	if len(message) > entity.MaxLogMessageLength {
		return nil, &ValidationError{Field: "log_message",
			Message: fmt.Sprintf("exceeds the maximum length of %d characters", entity.MaxLogMessageLength)}
	}
	if level == "" {
		level = entity.LogLevelInfo
	}
	if !level.Valid() {
		return nil, &ValidationError{Field: "log_level",
			Message: fmt.Sprintf("%q is not a valid log level", level)}
	}

	// The owning instance must still exist; a token can outlive it.
	var instance entity.FunctionInstance
	if err := r.db.Select("uuid").Where("uuid = ?", fiUUID).First(&instance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "function instance", ID: fiUUID.String()}
		}
		return nil, err
	}

	logMessage := &entity.FunctionInstanceLogMessage{
		UUID:                 uuid.New(),
		FunctionInstanceUUID: fiUUID,
		LogMessage:           message,
		LogLevel:             level,
	}
	if err := r.db.Create(logMessage).Error; err != nil {
		return nil, err
	}
	return logMessage, nil
}

func (r *LogMessageRepository) ListByInstance(fiUUID uuid.UUID) ([]entity.FunctionInstanceLogMessage, error) {
	var messages []entity.FunctionInstanceLogMessage
	err := r.db.
		Where("function_instance_uuid = ?", fiUUID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}
