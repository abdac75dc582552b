package controller

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/http/controller/dto"
	"github.com/scalade/scalade-api/repository"
	"github.com/scalade/scalade-api/utils"
)

// runtimeInstanceID returns the function instance uuid the worker token was
// issued for. The runtime auth middleware stores it under fi_uuid.
func runtimeInstanceID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("fi_uuid")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

// GetRuntimeContext serves a worker its own execution context: the instance
// record plus its input and output variables, each ascending by rank.
func (ctrl *Controller) GetRuntimeContext(c *gin.Context) {
	ctx := c.Request.Context()

	fiUUID, ok := runtimeInstanceID(c)
	if !ok {
		utils.JSON403(c, "Forbidden")
		return
	}

	instance, err := ctrl.Repository.FunctionInstanceRepo.FindByUUID(fiUUID)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON404(c, "Function instance not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to load instance %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to load function instance")
		return
	}

	inputs, err := ctrl.Repository.VariableRepo.ListByInstance(fiUUID, entity.VariableInput)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to load inputs of %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to load function instance context")
		return
	}
	outputs, err := ctrl.Repository.VariableRepo.ListByInstance(fiUUID, entity.VariableOutput)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to load outputs of %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to load function instance context")
		return
	}

	utils.JSON200(c, gin.H{
		"function_instance": dto.NewFunctionInstanceResponse(instance, nil),
		"inputs":            dto.NewVariableListResponse(inputs),
		"outputs":           dto.NewVariableListResponse(outputs),
	})
}

// CreateRuntimeLogMessage appends one log line to the worker's instance.
func (ctrl *Controller) CreateRuntimeLogMessage(c *gin.Context) {
	ctx := c.Request.Context()

	fiUUID, ok := runtimeInstanceID(c)
	if !ok {
		utils.JSON403(c, "Forbidden")
		return
	}

	var req dto.CreateLogMessageRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to bind log payload: %v", err)
		utils.JSON400(c, "Invalid log message payload")
		return
	}

	message, err := ctrl.Repository.LogMessageRepo.Append(fiUUID, req.LogMessage, entity.LogLevel(req.LogLevel))
	if err != nil {
		var validationErr *repository.ValidationError
		if errors.As(err, &validationErr) {
			utils.JSON400(c, gin.H{validationErr.Field: validationErr.Message})
			return
		}
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON403(c, "Forbidden")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to append log to %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to append log message")
		return
	}

	ctrl.publishLogAppended(c, fiUUID, string(message.LogLevel))
	utils.JSON200(c, dto.NewLogMessageResponse(message))
}

// UpdateRuntimeStatus applies a worker-requested transition. Only block and
// complete are valid methods, and both require the instance to be running;
// anything else conflicts.
func (ctrl *Controller) UpdateRuntimeStatus(c *gin.Context) {
	ctx := c.Request.Context()

	fiUUID, ok := runtimeInstanceID(c)
	if !ok {
		utils.JSON403(c, "Forbidden")
		return
	}

	var req dto.UpdateStatusRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid status payload")
		return
	}

	method, err := entity.ParseStatusMethod(req.StatusMethod)
	if err != nil {
		utils.JSON400(c, err.Error())
		return
	}

	instance, err := ctrl.Repository.FunctionInstanceRepo.UpdateStatus(fiUUID, method)
	if err != nil {
		var stateErr *entity.InconsistentStateChangeError
		if errors.As(err, &stateErr) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Runtime] Rejected transition of %s from '%s' to '%s'",
				fiUUID, stateErr.CurrentStatus, stateErr.UpdatedStatus)
			utils.JSON409(c, gin.H{
				"error":          stateErr.Error(),
				"current_status": stateErr.CurrentStatus,
				"updated_status": stateErr.UpdatedStatus,
			})
			return
		}
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON403(c, "Forbidden")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to update status of %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to update function instance status")
		return
	}

	ctrl.publishStatusChanged(c, instance)
	utils.JSON200(c, dto.NewFunctionInstanceResponse(instance, nil))
}

// CreateRuntimeOutput appends one output variable to the worker's instance.
// The payload travels as an opaque base64 envelope; a payload this service
// cannot decode is treated as an internal failure, not a caller error.
func (ctrl *Controller) CreateRuntimeOutput(c *gin.Context) {
	ctx := c.Request.Context()

	fiUUID, ok := runtimeInstanceID(c)
	if !ok {
		utils.JSON403(c, "Forbidden")
		return
	}

	var req dto.CreateOutputRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid output payload")
		return
	}

	payload, err := decodeOutputEnvelope(req.Output)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to decode output envelope for %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to process output payload")
		return
	}

	valueBytes, err := utils.DecodeB64(payload.Bytes)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to decode output bytes for %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to process output payload")
		return
	}

	variable, err := ctrl.Repository.VariableRepo.CreateOutput(fiUUID, repository.OutputSpec{
		IDName:  payload.IDName,
		Type:    payload.Type,
		Charset: payload.Charset,
		Bytes:   valueBytes,
	})
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON409(c, "Function instance no longer exists")
			return
		}
		var validationErr *repository.ValidationError
		if errors.As(err, &validationErr) {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Invalid output payload for %s: %v", fiUUID, err)
			utils.JSON500(c, "Failed to process output payload")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to create output for %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to create output")
		return
	}

	outputs, err := ctrl.Repository.VariableRepo.ListByInstance(fiUUID, entity.VariableOutput)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Runtime] Failed to reload outputs of %s: %v", fiUUID, err)
		utils.JSON500(c, "Failed to load outputs")
		return
	}

	ctrl.publishOutputCreated(c, fiUUID, variable.IDName)
	utils.JSON200(c, gin.H{"outputs": dto.NewVariableListResponse(outputs)})
}

// decodeOutputEnvelope unwraps the base64 envelope into the self-describing
// output payload it carries.
func decodeOutputEnvelope(envelope string) (*dto.OutputPayloadDTO, error) {
	raw, err := utils.DecodeB64(envelope)
	if err != nil {
		return nil, err
	}
	var payload dto.OutputPayloadDTO
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Event publication must never fail the request that triggered it.

func (ctrl *Controller) publishStatusChanged(c *gin.Context, instance *entity.FunctionInstance) {
	ctx := c.Request.Context()
	if ctrl.Infra.Produce == nil {
		return
	}
	err := ctrl.Infra.Produce.InstanceEvents.PublishStatusChanged(ctx,
		instance.UUID.String(), instance.StreamUUID.String(), string(instance.Status))
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Runtime] Failed to publish status event for %s: %v", instance.UUID, err)
	}
}

func (ctrl *Controller) publishLogAppended(c *gin.Context, fiUUID uuid.UUID, level string) {
	ctx := c.Request.Context()
	if ctrl.Infra.Produce == nil {
		return
	}
	if err := ctrl.Infra.Produce.InstanceEvents.PublishLogAppended(ctx, fiUUID.String(), level); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Runtime] Failed to publish log event for %s: %v", fiUUID, err)
	}
}

func (ctrl *Controller) publishOutputCreated(c *gin.Context, fiUUID uuid.UUID, idName string) {
	ctx := c.Request.Context()
	if ctrl.Infra.Produce == nil {
		return
	}
	if err := ctrl.Infra.Produce.InstanceEvents.PublishOutputCreated(ctx, fiUUID.String(), idName); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Runtime] Failed to publish output event for %s: %v", fiUUID, err)
	}
}
