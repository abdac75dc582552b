package entity

import (
	"time"

	"github.com/google/uuid"
)

type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// MaxLogMessageLength bounds a single runtime log line.
const MaxLogMessageLength = 500

// FunctionInstanceLogMessage is one append-only log line emitted by the
// worker executing a function instance.
type FunctionInstanceLogMessage struct {
	UUID                 uuid.UUID `json:"uuid" gorm:"type:uuid;primaryKey"`
	FunctionInstanceUUID uuid.UUID `json:"function_instance" gorm:"type:uuid;not null;index"`
	LogMessage           string    `json:"log_message" gorm:"size:500;not null"`
	LogLevel             LogLevel  `json:"log_level" gorm:"size:50;not null;default:'info'"`
	CreatedAt            time.Time `json:"created" gorm:"not null;autoCreateTime"`
}

func (FunctionInstanceLogMessage) TableName() string {
	return "function_instance_log_messages"
}
