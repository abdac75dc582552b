package repository

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutputSpec carries a decoded output value posted by a runtime worker.
type OutputSpec struct {
	IDName  string
	Type    string
	Charset string
	Bytes   []byte
}

type VariableRepository struct {
	db *gorm.DB

	// rankLocks serializes output creation per function instance so ranks
	// stay a contiguous 0-based sequence under concurrent submissions.
	// Different instances never block each other.
	rankLocks sync.Map
}

func NewVariableRepository(db *gorm.DB) *VariableRepository {
	return &VariableRepository{db: db}
}

func (r *VariableRepository) lockFor(id uuid.UUID) *sync.Mutex {
	mu, _ := r.rankLocks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CreateOutput appends an output variable to an instance, assigning the
// next rank: max(existing output rank)+1, or 0 for the first output. The
// read-then-insert runs under a per-instance mutex and a row lock on the
// instance inside one transaction.
func (r *VariableRepository) CreateOutput(fiUUID uuid.UUID, output OutputSpec) (*entity.Variable, error) {
	if output.IDName == "" || !entity.IDNameRegex.MatchString(output.IDName) {
		return nil, &ValidationError{Field: "id_name",
			Message: fmt.Sprintf("cannot contain special characters, it has to match %s", entity.IDNameRegex)}
	}
	variableType := entity.VariableType(output.Type)
	if !variableType.Valid() {
		return nil, &ValidationError{Field: "type",
			Message: fmt.Sprintf("%q is not a valid variable type", output.Type)}
	}
	charset := output.Charset
	if charset == "" {
		charset = entity.DefaultCharset
	}

	mu := r.lockFor(fiUUID)
	mu.Lock()
	defer mu.Unlock()

	var variable *entity.Variable
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// The row lock serializes writers from other processes (the HTTP
		// server and the AMQP consumer share the database); the mutex only
		// covers this process. Sqlite ignores the locking clause.
		var instance entity.FunctionInstance
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uuid = ?", fiUUID).First(&instance).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "function instance", ID: fiUUID.String()}
			}
			return err
		}

		var maxRank int64 = -1
		err := tx.Model(&entity.Variable{}).
			Where("function_instance_uuid = ? AND iot = ?", fiUUID, entity.VariableOutput).
			Select("COALESCE(MAX(rank), -1)").
			Scan(&maxRank).Error
		if err != nil {
			return err
		}

		variable = &entity.Variable{
			UUID:                 uuid.New(),
			IOT:                  entity.VariableOutput,
			IDName:               output.IDName,
			Type:                 variableType,
			Charset:              charset,
			Bytes:                output.Bytes,
			FunctionInstanceUUID: fiUUID,
			Rank:                 int(maxRank) + 1,
		}
		return tx.Create(variable).Error
	})
	if err != nil {
		return nil, err
	}
	return variable, nil
}

func (r *VariableRepository) FindByUUID(id uuid.UUID) (*entity.Variable, error) {
	var variable entity.Variable
	err := r.db.Where("uuid = ?", id).First(&variable).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "variable", ID: id.String()}
		}
		return nil, err
	}
	return &variable, nil
}

// ListByInstance returns an instance's variables of one iot kind, ascending
// by rank.
func (r *VariableRepository) ListByInstance(fiUUID uuid.UUID, iot entity.VariableIOT) ([]entity.Variable, error) {
	var variables []entity.Variable
	err := r.db.
		Where("function_instance_uuid = ? AND iot = ?", fiUUID, iot).
		Order("rank ASC").
		Find(&variables).Error
	return variables, err
}

type VariableFilter struct {
	IOT                  string
	Type                 string
	FunctionInstanceUUID uuid.UUID
	Limit                int
	Offset               int
}

func (r *VariableRepository) List(filter VariableFilter) ([]entity.Variable, int64, error) {
	query := r.db.Model(&entity.Variable{})
	if filter.IOT != "" {
		query = query.Where("iot = ?", filter.IOT)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.FunctionInstanceUUID != uuid.Nil {
		query = query.Where("function_instance_uuid = ?", filter.FunctionInstanceUUID)
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

	var variables []entity.Variable
	err := query.Order("created_at DESC").Find(&variables).Error
	return variables, total, err
}
