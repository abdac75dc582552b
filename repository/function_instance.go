package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"gorm.io/gorm"
)

type FunctionInstanceRepository struct {
	db *gorm.DB
}

func NewFunctionInstanceRepository(db *gorm.DB) *FunctionInstanceRepository {
	return &FunctionInstanceRepository{db: db}
}

func (r *FunctionInstanceRepository) FindByUUID(id uuid.UUID) (*entity.FunctionInstance, error) {
	var instance entity.FunctionInstance
	err := r.db.Where("uuid = ?", id).First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "function instance", ID: id.String()}
		}
		return nil, err
	}
	return &instance, nil
}

// UpdateStatus applies a runtime transition with a compare-and-set write:
// the row only changes when it is still running, so two racing transition
// attempts can never both succeed.
func (r *FunctionInstanceRepository) UpdateStatus(id uuid.UUID, method entity.StatusMethod) (*entity.FunctionInstance, error) {
	target := method.Target()

	updates := map[string]interface{}{"status": target}
	if method == entity.StatusMethodComplete {
		updates["completed_at"] = time.Now().UTC()
	}

	res := r.db.Model(&entity.FunctionInstance{}).
		Where("uuid = ? AND status = ?", id, entity.InstanceStatusRunning).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		current, err := r.FindByUUID(id)
		if err != nil {
			return nil, err
		}
		return nil, &entity.InconsistentStateChangeError{
			Entity:        "FunctionInstance",
			CurrentStatus: string(current.Status),
			UpdatedStatus: string(target),
		}
	}

	return r.FindByUUID(id)
}

// MarkRunning moves a pending instance to running and stamps the
// initialization time. The dispatch system calls this when it hands the
// instance to a worker.
func (r *FunctionInstanceRepository) MarkRunning(id uuid.UUID) (*entity.FunctionInstance, error) {
	res := r.db.Model(&entity.FunctionInstance{}).
		Where("uuid = ? AND status = ?", id, entity.InstanceStatusPending).
		Updates(map[string]interface{}{
			"status":         entity.InstanceStatusRunning,
			"initialized_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		current, err := r.FindByUUID(id)
		if err != nil {
			return nil, err
		}
		return nil, &entity.InconsistentStateChangeError{
			Entity:        "FunctionInstance",
			CurrentStatus: string(current.Status),
			UpdatedStatus: string(entity.InstanceStatusRunning),
		}
	}

	return r.FindByUUID(id)
}

// Cancel flips one instance to canceled unless it already is.
func (r *FunctionInstanceRepository) Cancel(id uuid.UUID) (*entity.FunctionInstance, error) {
	res := r.db.Model(&entity.FunctionInstance{}).
		Where("uuid = ? AND status <> ?", id, entity.InstanceStatusCanceled).
		Update("status", entity.InstanceStatusCanceled)
	if res.Error != nil {
		return nil, res.Error
	}
	return r.FindByUUID(id)
}

type FunctionInstanceFilter struct {
	StreamUUID       uuid.UUID
	FunctionTypeUUID uuid.UUID
	Status           string
	StatusIn         []string
	Limit            int
	Offset           int
}

func (r *FunctionInstanceRepository) List(filter FunctionInstanceFilter) ([]entity.FunctionInstance, int64, error) {
	query := r.db.Model(&entity.FunctionInstance{})
	if filter.StreamUUID != uuid.Nil {
		query = query.Where("stream_uuid = ?", filter.StreamUUID)
	}
	if filter.FunctionTypeUUID != uuid.Nil {
		query = query.Where("function_type_uuid = ?", filter.FunctionTypeUUID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.StatusIn) > 0 {
		query = query.Where("status IN ?", filter.StatusIn)
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

	var instances []entity.FunctionInstance
	err := query.Order("created_at DESC").Find(&instances).Error
	return instances, total, err
}
