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

func (ctrl *Controller) CreateStream(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := utils.GetAccountIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}

	var req dto.CreateStreamRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stream] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	account, err := ctrl.Repository.AccountRepo.FindByUUID(accountID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stream] Failed to load account %s: %v", accountID, err)
		utils.JSON401(c, "Unauthorized")
		return
	}

	workspace, err := ctrl.Repository.AccountRepo.FindWorkspaceByName(account.UUID, req.Metadata.Workspace)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON400(c, gin.H{"workspace": "'" + req.Metadata.Workspace + "' resource identifier not found"})
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stream] Failed to resolve workspace '%s': %v", req.Metadata.Workspace, err)
		utils.JSON500(c, "Failed to resolve workspace")
		return
	}

	specs, err := functionSpecsFromDTO(req.Spec.Functions)
	if err != nil {
		utils.JSON400(c, err.Error())
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Stream] Creating stream '%s' with %d functions in workspace '%s'",
		req.Spec.Name, len(specs), workspace.Name)

	stream, err := ctrl.Repository.StreamRepo.CreateWithFunctions(req.Spec.Name, account, workspace, specs)
	if err != nil {
		var validationErr *repository.ValidationError
		if errors.As(err, &validationErr) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Stream] Rejected stream '%s': %v", req.Spec.Name, err)
			utils.JSON400(c, gin.H{validationErr.Field: validationErr.Message})
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stream] Failed to create stream '%s': %v", req.Spec.Name, err)
		utils.JSON500(c, "Failed to create stream")
		return
	}

	utils.JSON201(c, dto.NewStreamResponse(stream))
}

func (ctrl *Controller) ListStreams(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := utils.GetAccountIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}

	filter := repository.StreamFilter{
		Name:        c.Query("name"),
		Status:      c.Query("status"),
		AccountUUID: accountID,
	}
	if statusIn := c.Query("status_in"); statusIn != "" {
		filter.StatusIn = strings.Split(statusIn, ",")
	}

	streams, total, err := ctrl.Repository.StreamRepo.List(filter)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stream] Failed to list streams: %v", err)
		utils.JSON500(c, "Failed to list streams")
		return
	}

	items := make([]dto.StreamResponseDTO, 0, len(streams))
	for i := range streams {
		items = append(items, dto.NewStreamResponse(&streams[i]))
	}
	utils.JSON200(c, gin.H{"count": total, "results": items})
}

func (ctrl *Controller) GetStream(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		utils.JSON400(c, "Invalid stream uuid")
		return
	}

	stream, err := ctrl.Repository.StreamRepo.FindByUUID(id)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON404(c, "Stream not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stream] Failed to load stream %s: %v", id, err)
		utils.JSON500(c, "Failed to load stream")
		return
	}

	utils.JSON200(c, dto.NewStreamResponse(stream))
}

// CancelStream drives a stream and every non-terminal child instance to
// the cancelled state. Repeating the call on an already cancelled stream
// is a no-op.
func (ctrl *Controller) CancelStream(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		utils.JSON400(c, "Invalid stream uuid")
		return
	}

	stream, err := ctrl.Repository.StreamRepo.Cancel(id)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			utils.JSON404(c, "Stream not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Stream] Failed to cancel stream %s: %v", id, err)
		utils.JSON500(c, "Failed to cancel stream")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Stream] Cancelled stream %s", id)
	utils.JSON200(c, dto.NewStreamResponse(stream))
}

func functionSpecsFromDTO(functions []dto.FunctionSpecDTO) ([]repository.FunctionSpec, error) {
	specs := make([]repository.FunctionSpec, 0, len(functions))
	for _, fn := range functions {
		functionTypeUUID, err := uuid.Parse(fn.FunctionType)
		if err != nil {
			return nil, errors.New("invalid function_type uuid '" + fn.FunctionType + "'")
		}

		inputs := make([]repository.InputSpec, 0, len(fn.Inputs))
		for _, input := range fn.Inputs {
			inputs = append(inputs, repository.InputSpec{
				IDName:  input.IDName,
				Type:    input.Type,
				Charset: input.Charset,
				Bytes:   input.Bytes,
			})
		}

		specs = append(specs, repository.FunctionSpec{
			FunctionType: functionTypeUUID,
			Position:     fn.Position,
			Inputs:       inputs,
		})
	}
	return specs, nil
}
