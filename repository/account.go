package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByUUID(id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	err := r.db.Where("uuid = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "account", ID: id.String()}
		}
		return nil, err
	}
	return &account, nil
}

// FindWorkspaceByName resolves a workspace owned by the given account.
func (r *AccountRepository) FindWorkspaceByName(accountUUID uuid.UUID, name string) (*entity.Workspace, error) {
	var workspace entity.Workspace
	err := r.db.Where("account_uuid = ? AND name = ?", accountUUID, name).First(&workspace).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "workspace", ID: name}
		}
		return nil, err
	}
	return &workspace, nil
}
