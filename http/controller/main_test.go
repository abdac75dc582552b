package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scalade/scalade-api/config"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/http/controller"
	middlewares "github.com/scalade/scalade-api/http/middleware"
	infraPkg "github.com/scalade/scalade-api/infra"
	"github.com/scalade/scalade-api/repository"
	"github.com/scalade/scalade-api/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testHarness struct {
	ctrl      *controller.Controller
	router    *gin.Engine
	db        *gorm.DB
	cfg       *config.Config
	account   *entity.Account
	workspace *entity.Workspace
}

// newTestHarness wires a controller over an in-memory database with the
// runtime routes token-guarded and the entities routes bound to a fixed
// test account.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, infraPkg.AutoMigrate(db))

	envCfg := &config.EnvConfig{}
	envCfg.RuntimeToken.SecretKey = "test-secret"
	envCfg.RuntimeToken.Expire = 3600
	cfg := &config.Config{EnvConfig: envCfg}

	infra := &infraPkg.Infra{
		Logger: infraPkg.InitLoggerClient(envCfg),
	}
	repo := repository.NewRepository(db)
	ctrl := controller.NewController(cfg, infra, repo)

	account := &entity.Account{UUID: uuid.New(), Username: "tester"}
	require.NoError(t, db.Create(account).Error)
	workspace := &entity.Workspace{UUID: uuid.New(), Name: "default", AccountUUID: account.UUID}
	require.NoError(t, db.Create(workspace).Error)

	router := gin.New()

	entityRoutes := router.Group("/api/v1/entities")
	entityRoutes.Use(func(c *gin.Context) {
		c.Set("account_uuid", account.UUID.String())
		c.Next()
	})
	entityRoutes.POST("/function-types/", ctrl.CreateFunctionType)
	entityRoutes.GET("/function-types/", ctrl.ListFunctionTypes)
	entityRoutes.POST("/streams/", ctrl.CreateStream)
	entityRoutes.GET("/streams/:uuid", ctrl.GetStream)
	entityRoutes.DELETE("/streams/:uuid", ctrl.CancelStream)
	entityRoutes.GET("/function-instances/:uuid", ctrl.GetFunctionInstance)
	entityRoutes.GET("/function-instances/:uuid/logs", ctrl.ListFunctionInstanceLogs)

	runtimeRoutes := router.Group("/api/v1/runtime")
	runtimeRoutes.Use(middlewares.RuntimeAuthMiddleware(envCfg))
	runtimeRoutes.GET("/fi-context", ctrl.GetRuntimeContext)
	runtimeRoutes.POST("/fi-log", ctrl.CreateRuntimeLogMessage)
	runtimeRoutes.PATCH("/fi-status", ctrl.UpdateRuntimeStatus)
	runtimeRoutes.POST("/fi-output", ctrl.CreateRuntimeOutput)

	return &testHarness{
		ctrl:      ctrl,
		router:    router,
		db:        db,
		cfg:       cfg,
		account:   account,
		workspace: workspace,
	}
}

func (h *testHarness) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *testHarness) runtimeToken(t *testing.T, fiUUID uuid.UUID) string {
	t.Helper()
	token, err := utils.GenerateRuntimeToken(fiUUID, h.cfg.EnvConfig)
	require.NoError(t, err)
	return token
}

func (h *testHarness) seedFunctionType(t *testing.T, key string,
	inputs, outputs []entity.ParamConfig) *entity.FunctionType {
	t.Helper()
	functionType, err := h.ctrl.Repository.FunctionTypeRepo.Register(
		h.account, key, "Test "+key, "", inputs, outputs)
	require.NoError(t, err)
	return functionType
}

// seedRunningInstance creates a one-function stream and moves its instance
// to running so runtime transitions are legal.
func (h *testHarness) seedRunningInstance(t *testing.T) *entity.FunctionInstance {
	t.Helper()
	functionType := h.seedFunctionType(t, "worker-"+uuid.NewString()[:8],
		[]entity.ParamConfig{{IDName: "in", Type: entity.VariableTypeText}},
		[]entity.ParamConfig{{IDName: "out", Type: entity.VariableTypeText}})

	stream, err := h.ctrl.Repository.StreamRepo.CreateWithFunctions(
		"stream-"+uuid.NewString()[:8], h.account, h.workspace,
		[]repository.FunctionSpec{
			{
				FunctionType: functionType.UUID,
				Position:     map[string]int{"row": 0, "col": 0},
				Inputs: []repository.InputSpec{
					{IDName: "in", Bytes: utils.EncodeB64(entity.EncodeText("payload"))},
				},
			},
		})
	require.NoError(t, err)
	require.Len(t, stream.Functions, 1)

	instance, err := h.ctrl.Repository.FunctionInstanceRepo.MarkRunning(stream.Functions[0].UUID)
	require.NoError(t, err)
	return instance
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
