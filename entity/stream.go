package entity

import (
	"time"

	"github.com/google/uuid"
)

// StreamStatus is the lifecycle state of a stream as a whole.
type StreamStatus string

const (
	StreamStatusSettled   StreamStatus = "settled"
	StreamStatusPushed    StreamStatus = "pushed"
	StreamStatusPaused    StreamStatus = "paused"
	StreamStatusCancelled StreamStatus = "cancelled"
	StreamStatusFinished  StreamStatus = "finished"
)

// Stream is a named DAG of function instances positioned on a grid, owned
// by an account within a workspace.
type Stream struct {
	UUID          uuid.UUID    `json:"uuid" gorm:"type:uuid;primaryKey"`
	Name          string       `json:"name" gorm:"size:50;not null;uniqueIndex:idx_stream_workspace_name"`
	Status        StreamStatus `json:"status" gorm:"size:50;not null;default:'settled';index"`
	WorkspaceUUID uuid.UUID    `json:"workspace" gorm:"type:uuid;not null;index;uniqueIndex:idx_stream_workspace_name"`
	AccountUUID   uuid.UUID    `json:"account" gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time    `json:"created" gorm:"not null;autoCreateTime"`
	PushedAt      *time.Time   `json:"pushed"`
	UpdatedAt     time.Time    `json:"updated" gorm:"autoUpdateTime"`
	FinishedAt    *time.Time   `json:"finished"`

	Functions []FunctionInstance `json:"functions,omitempty" gorm:"foreignKey:StreamUUID;constraint:OnDelete:CASCADE"`
}

func (Stream) TableName() string {
	return "streams"
}

// Cancelled reports whether the stream has already been cancelled; a second
// cancel is a safe re-application.
func (s *Stream) Cancelled() bool {
	return s.Status == StreamStatusCancelled
}
