package controller

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/http/controller/dto"
	"github.com/scalade/scalade-api/repository"
	"github.com/scalade/scalade-api/utils"
)

const functionTypeCacheTTL = 10 * time.Minute

func functionTypeCacheKey(id uuid.UUID) string {
	return "function_type:" + id.String()
}

func (ctrl *Controller) CreateFunctionType(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := utils.GetAccountIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionType] Missing account in context: %v", err)
		utils.JSON401(c, "Unauthorized")
		return
	}

	var req dto.CreateFunctionTypeRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionType] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	account, err := ctrl.Repository.AccountRepo.FindByUUID(accountID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionType] Failed to load account %s: %v", accountID, err)
		utils.JSON401(c, "Unauthorized")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[FunctionType] Registering function type '%s' for account: %s",
		req.Key, account.ShortID())

	functionType, err := ctrl.Repository.FunctionTypeRepo.Register(
		account, req.Key, req.VerboseName, req.Description,
		paramConfigsFromDTO(req.Inputs), paramConfigsFromDTO(req.Outputs))
	if err != nil {
		var validationErr *repository.ValidationError
		if errors.As(err, &validationErr) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[FunctionType] Rejected function type '%s': %v", req.Key, err)
			utils.JSON400(c, gin.H{validationErr.Field: validationErr.Message})
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionType] Failed to register function type: %v", err)
		utils.JSON500(c, "Failed to register function type")
		return
	}

	utils.JSON201(c, dto.NewFunctionTypeResponse(functionType))
}

func (ctrl *Controller) ListFunctionTypes(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := utils.GetAccountIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}

	filter := repository.FunctionTypeFilter{
		Key:         c.Query("key"),
		AccountUUID: accountID,
	}

	functionTypes, total, err := ctrl.Repository.FunctionTypeRepo.List(filter)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionType] Failed to list function types: %v", err)
		utils.JSON500(c, "Failed to list function types")
		return
	}

	items := make([]dto.FunctionTypeResponseDTO, 0, len(functionTypes))
	for i := range functionTypes {
		items = append(items, dto.NewFunctionTypeResponse(&functionTypes[i]))
	}
	utils.JSON200(c, gin.H{"count": total, "results": items})
}

// GetFunctionType serves one function type by uuid. Types never change
// after registration, so cache hits are always safe to serve.
func (ctrl *Controller) GetFunctionType(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		utils.JSON400(c, "Invalid function type uuid")
		return
	}

	var cached dto.FunctionTypeResponseDTO
	if err := ctrl.Infra.Redis.Get(ctx, functionTypeCacheKey(id), &cached); err == nil {
		utils.JSON200(c, cached)
		return
	}

	functionType, err := ctrl.Repository.FunctionTypeRepo.FindByUUID(id)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON404(c, "Function type not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[FunctionType] Failed to load function type %s: %v", id, err)
		utils.JSON500(c, "Failed to load function type")
		return
	}

	response := dto.NewFunctionTypeResponse(functionType)
	if err := ctrl.Infra.Redis.Set(ctx, functionTypeCacheKey(id), response, functionTypeCacheTTL); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[FunctionType] Failed to cache function type %s: %v", id, err)
	}
	utils.JSON200(c, response)
}

func paramConfigsFromDTO(params []dto.ParamConfigDTO) []entity.ParamConfig {
	configs := make([]entity.ParamConfig, 0, len(params))
	for _, p := range params {
		configs = append(configs, entity.ParamConfig{
			IDName:  p.IDName,
			Type:    entity.VariableType(p.Type),
			Options: p.Options,
		})
	}
	return configs
}
