package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account rows are owned by the identity service; this service only reads
// them as foreign keys.
type Account struct {
	UUID      uuid.UUID `json:"uuid" gorm:"type:uuid;primaryKey"`
	Username  string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created" gorm:"not null;autoCreateTime"`

	Workspaces []Workspace `json:"workspaces,omitempty" gorm:"foreignKey:AccountUUID;constraint:OnDelete:CASCADE"`
}

func (Account) TableName() string {
	return "accounts"
}

// ShortID is the account prefix used to namespace function type keys.
func (a *Account) ShortID() string {
	return strings.ReplaceAll(a.UUID.String(), "-", "")[:8]
}

type Workspace struct {
	UUID        uuid.UUID `json:"uuid" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"size:50;not null;uniqueIndex:idx_workspace_account_name"`
	AccountUUID uuid.UUID `json:"account" gorm:"type:uuid;not null;index;uniqueIndex:idx_workspace_account_name"`
	CreatedAt   time.Time `json:"created" gorm:"not null;autoCreateTime"`
}

func (Workspace) TableName() string {
	return "workspaces"
}
