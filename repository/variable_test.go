package repository

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textInput(idName, value string) InputSpec {
	return InputSpec{
		IDName: idName,
		Bytes:  utils.EncodeB64(entity.EncodeText(value)),
	}
}

func textOutput(idName, value string) OutputSpec {
	return OutputSpec{
		IDName: idName,
		Type:   string(entity.VariableTypeText),
		Bytes:  entity.EncodeText(value),
	}
}

func TestCreateOutputRanks(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)

	first, err := repo.VariableRepo.CreateOutput(instance.UUID, textOutput("out_a", "a"))
	require.NoError(t, err)
	assert.Equal(t, 0, first.Rank)
	assert.Equal(t, entity.VariableOutput, first.IOT)
	assert.Equal(t, entity.DefaultCharset, first.Charset)

	second, err := repo.VariableRepo.CreateOutput(instance.UUID, textOutput("out_b", "b"))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Rank)

	third, err := repo.VariableRepo.CreateOutput(instance.UUID, textOutput("out_c", "c"))
	require.NoError(t, err)
	assert.Equal(t, 2, third.Rank)
}

func TestCreateOutputRanksIndependentPerInstance(t *testing.T) {
	repo, db := newTestRepository(t)
	instanceA := seedInstance(t, repo, db)
	instanceB := seedInstance(t, repo, db)

	a, err := repo.VariableRepo.CreateOutput(instanceA.UUID, textOutput("out", "a"))
	require.NoError(t, err)
	b, err := repo.VariableRepo.CreateOutput(instanceB.UUID, textOutput("out", "b"))
	require.NoError(t, err)

	assert.Equal(t, 0, a.Rank)
	assert.Equal(t, 0, b.Rank)
}

func TestCreateOutputConcurrentWritersKeepRanksContiguous(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.VariableRepo.CreateOutput(instance.UUID, textOutput("out", "x"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	outputs, err := repo.VariableRepo.ListByInstance(instance.UUID, entity.VariableOutput)
	require.NoError(t, err)
	require.Len(t, outputs, writers)
	for i, output := range outputs {
		assert.Equal(t, i, output.Rank, "ranks must be contiguous with no duplicates")
	}
}

func TestCreateOutputSeparateRepositoriesKeepRanksContiguous(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)

	// Two repository values over one database model the HTTP server and the
	// AMQP consumer: their in-process mutexes are independent, so only the
	// transaction's row lock serializes the rank reads.
	repoA := NewVariableRepository(db)
	repoB := NewVariableRepository(db)

	const perWriter = 4
	var wg sync.WaitGroup
	wg.Add(2)
	for _, writer := range []*VariableRepository{repoA, repoB} {
		go func(w *VariableRepository) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := w.CreateOutput(instance.UUID, textOutput("out", "x"))
				assert.NoError(t, err)
			}
		}(writer)
	}
	wg.Wait()

	outputs, err := repo.VariableRepo.ListByInstance(instance.UUID, entity.VariableOutput)
	require.NoError(t, err)
	require.Len(t, outputs, 2*perWriter)
	for i, output := range outputs {
		assert.Equal(t, i, output.Rank, "ranks must be contiguous with no duplicates")
	}
}

func TestCreateOutputValidation(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)

	_, err := repo.VariableRepo.CreateOutput(instance.UUID, OutputSpec{
		IDName: "bad name", Type: "text", Bytes: []byte("x"),
	})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "id_name", validationErr.Field)

	_, err = repo.VariableRepo.CreateOutput(instance.UUID, OutputSpec{
		IDName: "ok", Type: "float", Bytes: []byte("x"),
	})
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "type", validationErr.Field)
}

func TestCreateOutputMissingInstance(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.VariableRepo.CreateOutput(uuid.New(), textOutput("out", "x"))
	var notFoundErr *NotFoundError
	assert.True(t, errors.As(err, &notFoundErr))
}

func TestListByInstanceSplitsIOT(t *testing.T) {
	repo, db := newTestRepository(t)
	account, workspace := seedAccount(t, db)
	functionType := seedFunctionType(t, repo, account, "echo",
		[]entity.ParamConfig{{IDName: "in", Type: entity.VariableTypeText}},
		[]entity.ParamConfig{{IDName: "out", Type: entity.VariableTypeText}})

	stream, err := repo.StreamRepo.CreateWithFunctions("split", account, workspace, []FunctionSpec{
		{
			FunctionType: functionType.UUID,
			Position:     map[string]int{"row": 0, "col": 0},
			Inputs:       []InputSpec{textInput("in", "hello")},
		},
	})
	require.NoError(t, err)
	instance := stream.Functions[0]

	_, err = repo.VariableRepo.CreateOutput(instance.UUID, textOutput("out", "world"))
	require.NoError(t, err)

	inputs, err := repo.VariableRepo.ListByInstance(instance.UUID, entity.VariableInput)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "in", inputs[0].IDName)

	outputs, err := repo.VariableRepo.ListByInstance(instance.UUID, entity.VariableOutput)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "world", string(outputs[0].Bytes))
}

func TestVariableListFilters(t *testing.T) {
	repo, db := newTestRepository(t)
	instance := seedInstance(t, repo, db)

	_, err := repo.VariableRepo.CreateOutput(instance.UUID, textOutput("out_a", "a"))
	require.NoError(t, err)
	_, err = repo.VariableRepo.CreateOutput(instance.UUID, OutputSpec{
		IDName: "count", Type: string(entity.VariableTypeInteger), Bytes: entity.EncodeInteger(1),
	})
	require.NoError(t, err)

	byType, total, err := repo.VariableRepo.List(VariableFilter{
		FunctionInstanceUUID: instance.UUID,
		Type:                 string(entity.VariableTypeInteger),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, byType, 1)
	assert.Equal(t, "count", byType[0].IDName)
}
