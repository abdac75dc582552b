package repository

import (
	"github.com/scalade/scalade-api/infra"
	"gorm.io/gorm"
)

type Repository struct {
	AccountRepo          *AccountRepository
	FunctionTypeRepo     *FunctionTypeRepository
	StreamRepo           *StreamRepository
	FunctionInstanceRepo *FunctionInstanceRepository
	VariableRepo         *VariableRepository
	LogMessageRepo       *LogMessageRepository
}

func InitRepository(infra *infra.Infra) *Repository {
	return NewRepository(infra.Postgres.DB)
}

// NewRepository builds the repository set over an already opened database
// handle.
func NewRepository(db *gorm.DB) *Repository {
	variableRepo := NewVariableRepository(db)
	return &Repository{
		AccountRepo:          NewAccountRepository(db),
		FunctionTypeRepo:     NewFunctionTypeRepository(db),
		StreamRepo:           NewStreamRepository(db, variableRepo),
		FunctionInstanceRepo: NewFunctionInstanceRepository(db),
		VariableRepo:         variableRepo,
		LogMessageRepo:       NewLogMessageRepository(db),
	}
}
