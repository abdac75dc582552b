package controller

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scalade/scalade-api/http/controller/dto"
	"github.com/scalade/scalade-api/repository"
	"github.com/scalade/scalade-api/utils"
)

func (ctrl *Controller) ListFunctionInstances(c *gin.Context) {
	ctx := c.Request.Context()

	filter := repository.FunctionInstanceFilter{
		Status: c.Query("status"),
	}
	if stream := c.Query("stream"); stream != "" {
		streamUUID, err := uuid.Parse(stream)
		if err != nil {
			utils.JSON400(c, "Invalid stream uuid")
			return
		}
		filter.StreamUUID = streamUUID
	}
	if functionType := c.Query("function_type"); functionType != "" {
		functionTypeUUID, err := uuid.Parse(functionType)
		if err != nil {
			utils.JSON400(c, "Invalid function type uuid")
			return
		}
		filter.FunctionTypeUUID = functionTypeUUID
	}
	if statusIn := c.Query("status_in"); statusIn != "" {
		filter.StatusIn = strings.Split(statusIn, ",")
	}

	instances, total, err := ctrl.Repository.FunctionInstanceRepo.List(filter)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionInstance] Failed to list function instances: %v", err)
		utils.JSON500(c, "Failed to list function instances")
		return
	}

	items := make([]dto.FunctionInstanceResponseDTO, 0, len(instances))
	for i := range instances {
		items = append(items, dto.NewFunctionInstanceResponse(&instances[i], nil))
	}
	utils.JSON200(c, gin.H{"count": total, "results": items})
}

func (ctrl *Controller) GetFunctionInstance(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		utils.JSON400(c, "Invalid function instance uuid")
		return
	}

	instance, err := ctrl.Repository.FunctionInstanceRepo.FindByUUID(id)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON404(c, "Function instance not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionInstance] Failed to load instance %s: %v", id, err)
		utils.JSON500(c, "Failed to load function instance")
		return
	}

	variables, _, err := ctrl.Repository.VariableRepo.List(repository.VariableFilter{FunctionInstanceUUID: id})
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionInstance] Failed to load variables of %s: %v", id, err)
		utils.JSON500(c, "Failed to load function instance")
		return
	}

	utils.JSON200(c, dto.NewFunctionInstanceResponse(instance, variables))
}

func (ctrl *Controller) ListFunctionInstanceLogs(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		utils.JSON400(c, "Invalid function instance uuid")
		return
	}

	if _, err := ctrl.Repository.FunctionInstanceRepo.FindByUUID(id); err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON404(c, "Function instance not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionInstance] Failed to load instance %s: %v", id, err)
		utils.JSON500(c, "Failed to load function instance")
		return
	}

	messages, err := ctrl.Repository.LogMessageRepo.ListByInstance(id)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionInstance] Failed to list logs of %s: %v", id, err)
		utils.JSON500(c, "Failed to list log messages")
		return
	}

	items := make([]dto.LogMessageResponseDTO, 0, len(messages))
	for i := range messages {
		items = append(items, dto.NewLogMessageResponse(&messages[i]))
	}
	utils.JSON200(c, gin.H{"count": len(items), "results": items})
}

func (ctrl *Controller) ListVariables(c *gin.Context) {
	ctx := c.Request.Context()

	filter := repository.VariableFilter{
		IOT:  c.Query("iot"),
		Type: c.Query("type"),
	}
	if instance := c.Query("function_instance"); instance != "" {
		fiUUID, err := uuid.Parse(instance)
		if err != nil {
			utils.JSON400(c, "Invalid function instance uuid")
			return
		}
		filter.FunctionInstanceUUID = fiUUID
	}

	variables, total, err := ctrl.Repository.VariableRepo.List(filter)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Variable] Failed to list variables: %v", err)
		utils.JSON500(c, "Failed to list variables")
		return
	}

	items := make([]dto.VariableResponseDTO, 0, len(variables))
	for i := range variables {
		items = append(items, dto.NewVariableResponse(&variables[i]))
	}
	utils.JSON200(c, gin.H{"count": total, "results": items})
}

func (ctrl *Controller) GetVariable(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		utils.JSON400(c, "Invalid variable uuid")
		return
	}

	variable, err := ctrl.Repository.VariableRepo.FindByUUID(id)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON404(c, "Variable not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Variable] Failed to load variable %s: %v", id, err)
		utils.JSON500(c, "Failed to load variable")
		return
	}

	utils.JSON200(c, dto.NewVariableResponse(variable))
}
