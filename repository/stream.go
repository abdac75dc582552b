package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/utils"
	"gorm.io/gorm"
)

// FunctionSpec is one node of a stream creation request: the function type
// it instantiates, its grid position and its input bindings.
type FunctionSpec struct {
	FunctionType uuid.UUID
	Position     map[string]int
	Inputs       []InputSpec
}

// InputSpec is one caller-supplied input binding. Bytes travels as base64
// text. Type is optional; when present it must equal the type declared on
// the function type config. Rank and type are always taken from the
// config, never from the caller.
type InputSpec struct {
	IDName  string
	Type    string
	Charset string
	Bytes   string
}

type StreamRepository struct {
	db           *gorm.DB
	variableRepo *VariableRepository
}

func NewStreamRepository(db *gorm.DB, variableRepo *VariableRepository) *StreamRepository {
	return &StreamRepository{db: db, variableRepo: variableRepo}
}

// CreateWithFunctions persists a stream together with its function
// instances and their input variables in one transaction. The first
// validation failure aborts the whole creation; nothing stays behind.
func (r *StreamRepository) CreateWithFunctions(name string, account *entity.Account,
	workspace *entity.Workspace, specs []FunctionSpec) (*entity.Stream, error) {

	var streamUUID uuid.UUID
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Stream{}).
			Where("workspace_uuid = ? AND name = ?", workspace.UUID, name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ValidationError{Field: "name",
				Message: fmt.Sprintf("'%s' is already in use within workspace '%s'", name, workspace.Name)}
		}

		stream := &entity.Stream{
			UUID:          uuid.New(),
			Name:          name,
			Status:        entity.StreamStatusSettled,
			WorkspaceUUID: workspace.UUID,
			AccountUUID:   account.UUID,
		}
		if err := tx.Create(stream).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ValidationError{Field: "name",
					Message: fmt.Sprintf("'%s' is already in use within workspace '%s'", name, workspace.Name)}
			}
			return err
		}
		streamUUID = stream.UUID

		for _, spec := range specs {
			instance, err := createInstance(tx, stream, spec)
			if err != nil {
				return err
			}
			if err := createInputVariables(tx, instance, spec.Inputs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.FindByUUID(streamUUID)
}

func createInstance(tx *gorm.DB, stream *entity.Stream, spec FunctionSpec) (*entity.FunctionInstance, error) {
	position, err := entity.EncodePosition(spec.Position)
	if err != nil {
		return nil, &ValidationError{Field: "position", Message: err.Error()}
	}

	var functionType entity.FunctionType
	if err := tx.Where("uuid = ?", spec.FunctionType).First(&functionType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "function_type",
				Message: fmt.Sprintf("'%s' resource identifier not found", spec.FunctionType)}
		}
		return nil, err
	}

	instance := &entity.FunctionInstance{
		UUID:             uuid.New(),
		FunctionTypeUUID: functionType.UUID,
		StreamUUID:       stream.UUID,
		Position:         position,
		Status:           entity.InstanceStatusPending,
		FunctionType:     &functionType,
	}
	if err := tx.Create(instance).Error; err != nil {
		return nil, err
	}
	return instance, nil
}

// createInputVariables materializes the caller's input bindings. Type and
// rank are sourced from the declared config; a caller-supplied type must
// match the declared one exactly.
func createInputVariables(tx *gorm.DB, instance *entity.FunctionInstance, inputs []InputSpec) error {
	for _, input := range inputs {
		if input.IDName == "" {
			return &ValidationError{Field: "id_name", Message: "field is required for each input"}
		}
		if !entity.IDNameRegex.MatchString(input.IDName) {
			return &ValidationError{Field: "id_name",
				Message: fmt.Sprintf("cannot contain special characters, it has to match %s", entity.IDNameRegex)}
		}

		config, err := instance.FunctionType.GetInputConfig(input.IDName)
		if err != nil {
			return &ValidationError{Field: "id_name",
				Message: fmt.Sprintf("'%s' is not a valid input of function_type '%s'",
					input.IDName, instance.FunctionTypeUUID)}
		}
		if input.Type != "" && entity.VariableType(input.Type) != config.Type {
			return &ValidationError{Field: "type",
				Message: fmt.Sprintf("'%s' does not match the declared type '%s' of input '%s'",
					input.Type, config.Type, input.IDName)}
		}

		payload, err := utils.DecodeB64(input.Bytes)
		if err != nil {
			return &ValidationError{Field: "bytes", Message: err.Error()}
		}

		charset := input.Charset
		if charset == "" {
			charset = entity.DefaultCharset
		}

		variable := &entity.Variable{
			UUID:                 uuid.New(),
			IOT:                  entity.VariableInput,
			IDName:               input.IDName,
			Type:                 config.Type,
			Charset:              charset,
			Bytes:                payload,
			FunctionInstanceUUID: instance.UUID,
			Rank:                 config.Rank,
		}
		if err := tx.Create(variable).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *StreamRepository) FindByUUID(id uuid.UUID) (*entity.Stream, error) {
	var stream entity.Stream
	err := r.db.
		Preload("Functions", func(db *gorm.DB) *gorm.DB {
			return db.Order("function_instances.created_at ASC")
		}).
		Preload("Functions.Variables", func(db *gorm.DB) *gorm.DB {
			return db.Order("variables.rank ASC")
		}).
		Where("uuid = ?", id).First(&stream).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "stream", ID: id.String()}
		}
		return nil, err
	}
	return &stream, nil
}

// Cancel cascades cancellation to every child instance before flipping the
// stream itself, so a cancelled stream never shows live children. Repeating
// a cancel re-applies it without error.
func (r *StreamRepository) Cancel(id uuid.UUID) (*entity.Stream, error) {
	var stream entity.Stream
	if err := r.db.Where("uuid = ?", id).First(&stream).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "stream", ID: id.String()}
		}
		return nil, err
	}

	// Children first.
	err := r.db.Model(&entity.FunctionInstance{}).
		Where("stream_uuid = ? AND status <> ?", id, entity.InstanceStatusCanceled).
		Update("status", entity.InstanceStatusCanceled).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&entity.Stream{}).
		Where("uuid = ?", id).
		Update("status", entity.StreamStatusCancelled).Error
	if err != nil {
		return nil, err
	}

	return r.FindByUUID(id)
}

type StreamFilter struct {
	Name        string
	Status      string
	StatusIn    []string
	AccountUUID uuid.UUID
	Limit       int
	Offset      int
}

func (r *StreamRepository) List(filter StreamFilter) ([]entity.Stream, int64, error) {
	query := r.db.Model(&entity.Stream{})
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.StatusIn) > 0 {
		query = query.Where("status IN ?", filter.StatusIn)
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

	var streams []entity.Stream
	err := query.Order("created_at DESC").Find(&streams).Error
	return streams, total, err
}
