package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InstanceStatus is the lifecycle state of one function instance.
//
// pending is the creation default. Dispatch to a worker moves the instance
// to running outside of this service; the runtime API only drives the
// transitions out of running.
type InstanceStatus string

const (
	InstanceStatusPending   InstanceStatus = "pending"
	InstanceStatusRunning   InstanceStatus = "running"
	InstanceStatusBlocked   InstanceStatus = "blocked"
	InstanceStatusCanceled  InstanceStatus = "canceled"
	InstanceStatusCompleted InstanceStatus = "completed"
)

// StatusMethod names a runtime-driven transition. Workers may only request
// block or complete.
type StatusMethod string

const (
	StatusMethodBlock    StatusMethod = "block"
	StatusMethodComplete StatusMethod = "complete"
)

// ParseStatusMethod maps a caller-supplied method name onto a StatusMethod.
func ParseStatusMethod(raw string) (StatusMethod, error) {
	switch StatusMethod(raw) {
	case StatusMethodBlock:
		return StatusMethodBlock, nil
	case StatusMethodComplete:
		return StatusMethodComplete, nil
	default:
		return "", &InvalidStatusMethodError{Method: raw}
	}
}

// Target is the status the transition moves the instance into.
func (m StatusMethod) Target() InstanceStatus {
	if m == StatusMethodBlock {
		return InstanceStatusBlocked
	}
	return InstanceStatusCompleted
}

// PositionConfig places an instance on the stream builder grid.
type PositionConfig struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// FunctionInstance is one placed, executable node of a stream, bound to a
// function type.
type FunctionInstance struct {
	UUID             uuid.UUID      `json:"uuid" gorm:"type:uuid;primaryKey"`
	FunctionTypeUUID uuid.UUID      `json:"function_type" gorm:"type:uuid;not null;index"`
	StreamUUID       uuid.UUID      `json:"stream" gorm:"type:uuid;not null;index"`
	Position         datatypes.JSON `json:"position" gorm:"type:jsonb;not null"`
	Status           InstanceStatus `json:"status" gorm:"size:50;not null;default:'pending';index"`
	CreatedAt        time.Time      `json:"created" gorm:"not null;autoCreateTime"`
	InitializedAt    *time.Time     `json:"initialized"`
	UpdatedAt        time.Time      `json:"updated" gorm:"autoUpdateTime"`
	CompletedAt      *time.Time     `json:"completed"`

	FunctionType *FunctionType `json:"-" gorm:"foreignKey:FunctionTypeUUID;constraint:OnDelete:CASCADE"`
	Variables    []Variable    `json:"-" gorm:"foreignKey:FunctionInstanceUUID;constraint:OnDelete:CASCADE"`
	LogMessages  []FunctionInstanceLogMessage `json:"-" gorm:"foreignKey:FunctionInstanceUUID;constraint:OnDelete:CASCADE"`
}

func (FunctionInstance) TableName() string {
	return "function_instances"
}

func (fi *FunctionInstance) IsRunning() bool {
	return fi.Status == InstanceStatusRunning
}

// Terminal reports whether no further transition may leave this status.
func (fi *FunctionInstance) Terminal() bool {
	switch fi.Status {
	case InstanceStatusBlocked, InstanceStatusCanceled, InstanceStatusCompleted:
		return true
	default:
		return false
	}
}

// Block moves a running instance to blocked. Workers report block when they
// cannot make progress; any other current status is a conflict.
func (fi *FunctionInstance) Block() error {
	return fi.transition(InstanceStatusBlocked)
}

// Complete moves a running instance to completed.
func (fi *FunctionInstance) Complete() error {
	now := time.Now().UTC()
	if err := fi.transition(InstanceStatusCompleted); err != nil {
		return err
	}
	fi.CompletedAt = &now
	return nil
}

// Cancel is legal from any non-terminal status. Cancelling an already
// canceled instance stays canceled.
func (fi *FunctionInstance) Cancel() {
	if fi.Status == InstanceStatusCanceled {
		return
	}
	fi.Status = InstanceStatusCanceled
}

// UpdateStatus applies the named runtime transition.
func (fi *FunctionInstance) UpdateStatus(method StatusMethod) error {
	switch method {
	case StatusMethodBlock:
		return fi.Block()
	case StatusMethodComplete:
		return fi.Complete()
	default:
		return &InvalidStatusMethodError{Method: string(method)}
	}
}

func (fi *FunctionInstance) transition(target InstanceStatus) error {
	if !fi.IsRunning() {
		return &InconsistentStateChangeError{
			Entity:        "FunctionInstance",
			CurrentStatus: string(fi.Status),
			UpdatedStatus: string(target),
		}
	}
	fi.Status = target
	return nil
}

// ParsePosition decodes the stored grid position.
func (fi *FunctionInstance) ParsePosition() (PositionConfig, error) {
	var pos PositionConfig
	if err := json.Unmarshal(fi.Position, &pos); err != nil {
		return PositionConfig{}, fmt.Errorf("malformed position payload: %w", err)
	}
	return pos, nil
}

// EncodePosition validates that the position payload carries exactly the
// row and col keys and serializes it for storage.
func EncodePosition(raw map[string]int) (datatypes.JSON, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("required position fields are 'row' and 'col'")
	}
	row, okRow := raw["row"]
	col, okCol := raw["col"]
	if !okRow || !okCol {
		return nil, fmt.Errorf("required position fields are 'row' and 'col'")
	}
	data, err := json.Marshal(PositionConfig{Row: row, Col: col})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
