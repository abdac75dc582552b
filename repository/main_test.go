package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/infra"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite gives every pooled connection its own database;
	// keep a single connection so all queries see the same schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, infra.AutoMigrate(db))
	return db
}

func newTestRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewRepository(db), db
}

func seedAccount(t *testing.T, db *gorm.DB) (*entity.Account, *entity.Workspace) {
	t.Helper()
	account := &entity.Account{
		UUID:     uuid.New(),
		Username: "tester-" + uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(account).Error)

	workspace := &entity.Workspace{
		UUID:        uuid.New(),
		Name:        "default",
		AccountUUID: account.UUID,
	}
	require.NoError(t, db.Create(workspace).Error)
	return account, workspace
}

func seedFunctionType(t *testing.T, repo *Repository, account *entity.Account,
	key string, inputs, outputs []entity.ParamConfig) *entity.FunctionType {
	t.Helper()
	functionType, err := repo.FunctionTypeRepo.Register(account, key, "Test "+key, "", inputs, outputs)
	require.NoError(t, err)
	return functionType
}
