package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"gorm.io/gorm"
)

type FunctionTypeRepository struct {
	db *gorm.DB
}

func NewFunctionTypeRepository(db *gorm.DB) *FunctionTypeRepository {
	return &FunctionTypeRepository{db: db}
}

// Register validates and persists a new function type. The key is prefixed
// with the owner's short id so keys stay globally unique across accounts.
// The unique index on key is the source of truth for duplicates; the
// translated duplicate error surfaces as a field-level validation error.
func (r *FunctionTypeRepository) Register(account *entity.Account, key, verboseName, description string,
	inputs, outputs []entity.ParamConfig) (*entity.FunctionType, error) {

	fullKey := fmt.Sprintf("%s/%s", account.ShortID(), key)

	encodedInputs, err := entity.EncodeParamConfigs(inputs)
	if err != nil {
		return nil, &ValidationError{Field: "inputs", Message: fmt.Sprintf("field error: %v", err)}
	}
	encodedOutputs, err := entity.EncodeParamConfigs(outputs)
	if err != nil {
		return nil, &ValidationError{Field: "outputs", Message: fmt.Sprintf("field error: %v", err)}
	}

	functionType := &entity.FunctionType{
		UUID:        uuid.New(),
		Key:         fullKey,
		VerboseName: verboseName,
		Description: description,
		Inputs:      encodedInputs,
		Outputs:     encodedOutputs,
		AccountUUID: account.UUID,
	}

	if err := r.db.Create(functionType).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidationError{Field: "key",
				Message: fmt.Sprintf("'%s' is already in use, it must be unique", fullKey)}
		}
		return nil, err
	}
	return functionType, nil
}

func (r *FunctionTypeRepository) FindByUUID(id uuid.UUID) (*entity.FunctionType, error) {
	var functionType entity.FunctionType
	err := r.db.Where("uuid = ?", id).First(&functionType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "function type", ID: id.String()}
		}
		return nil, err
	}
	return &functionType, nil
}

func (r *FunctionTypeRepository) FindByKey(key string) (*entity.FunctionType, error) {
	var functionType entity.FunctionType
	err := r.db.Where("key = ?", key).First(&functionType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "function type", ID: key}
		}
		return nil, err
	}
	return &functionType, nil
}

type FunctionTypeFilter struct {
	Key         string
	AccountUUID uuid.UUID
	Limit       int
	Offset      int
}

func (r *FunctionTypeRepository) List(filter FunctionTypeFilter) ([]entity.FunctionType, int64, error) {
	query := r.db.Model(&entity.FunctionType{})
	if filter.Key != "" {
		query = query.Where("key = ?", filter.Key)
	}
	if filter.AccountUUID != uuid.Nil {
		query = query.Where("account_uuid = ?", filter.AccountUUID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var functionTypes []entity.FunctionType
	err := query.Order("created_at DESC").Find(&functionTypes).Error
	return functionTypes, total, err
}
