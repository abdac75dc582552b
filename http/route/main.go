package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/scalade/scalade-api/http/controller"
	middlewares "github.com/scalade/scalade-api/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	entityRoutes := r.Group("/api/v1/entities")
	{
		entityRoutes.Use(middles.AuthMiddleware)

		functionTypeRoutes := entityRoutes.Group("/function-types")
		{
			functionTypeRoutes.POST("/", ctrl.CreateFunctionType)
			functionTypeRoutes.GET("/", ctrl.ListFunctionTypes)
			functionTypeRoutes.GET("/:uuid", ctrl.GetFunctionType)
		}

		streamRoutes := entityRoutes.Group("/streams")
		{
			streamRoutes.POST("/", ctrl.CreateStream)
			streamRoutes.GET("/", ctrl.ListStreams)
			streamRoutes.GET("/:uuid", ctrl.GetStream)
			streamRoutes.DELETE("/:uuid", ctrl.CancelStream)
		}

		instanceRoutes := entityRoutes.Group("/function-instances")
		{
			instanceRoutes.GET("/", ctrl.ListFunctionInstances)
			instanceRoutes.GET("/:uuid", ctrl.GetFunctionInstance)
			instanceRoutes.GET("/:uuid/logs", ctrl.ListFunctionInstanceLogs)
		}

		variableRoutes := entityRoutes.Group("/variables")
		{
			variableRoutes.GET("/", ctrl.ListVariables)
			variableRoutes.GET("/:uuid", ctrl.GetVariable)
		}
	}

	runtimeRoutes := r.Group("/api/v1/runtime")
	{
		runtimeRoutes.Use(middles.RuntimeAuthMiddleware)

		runtimeRoutes.GET("/fi-context", ctrl.GetRuntimeContext)
		runtimeRoutes.POST("/fi-log", ctrl.CreateRuntimeLogMessage)
		runtimeRoutes.PATCH("/fi-status", ctrl.UpdateRuntimeStatus)
		runtimeRoutes.POST("/fi-output", ctrl.CreateRuntimeOutput)
	}

	return r
}
