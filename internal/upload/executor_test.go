package upload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"coach-hub/internal/common/errors"
	"coach-hub/internal/programcsv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProgramStore struct {
	mock.Mock
}

func (m *MockProgramStore) DeletePrograms(ctx context.Context, target Target, programType programcsv.ProgramType) error {
	args := m.Called(ctx, target, programType)
	return args.Error(0)
}

func (m *MockProgramStore) InsertPrograms(ctx context.Context, target Target, programType programcsv.ProgramType, rows []programcsv.ProgramRow) error {
	args := m.Called(ctx, target, programType, rows)
	return args.Error(0)
}

var target = Target{ActivityID: "act-1", CoachID: "coach-1"}

const fitnessCSV = "semana,Día,nombre_actividad,Duración (min),1RM\n" +
	"1,Miércoles,Sentadillas,30,80\n" +
	"55,Lunes,Zancadas,20,\n" +
	"2,domingo,Remo,,\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func operation(t *testing.T, mode programcsv.UploadMode) programcsv.Operation {
	return programcsv.Operation{
		Type: programcsv.Fitness,
		File: writeCSV(t, fitnessCSV),
		Mode: mode,
	}
}

func TestExecute_AppendMapsAndSkipsInvalid(t *testing.T) {
	store := new(MockProgramStore)
	expected := []programcsv.ProgramRow{
		{"semana": 1, "día": 3, "nombre_actividad": "Sentadillas", "duración": float64(30), "rm": float64(80)},
		{"semana": 2, "día": 7, "nombre_actividad": "Remo"},
	}
	store.On("InsertPrograms", mock.Anything, target, programcsv.Fitness, expected).Return(nil)

	res := NewExecutor(store, nil).Execute(context.Background(), operation(t, programcsv.ModeAppend), target)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.False(t, res.PriorRowsDeleted)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "DeletePrograms", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_ReplaceDeletesThenInserts(t *testing.T) {
	store := new(MockProgramStore)
	var order []string
	store.On("DeletePrograms", mock.Anything, target, programcsv.Fitness).
		Run(func(mock.Arguments) { order = append(order, "delete") }).Return(nil)
	store.On("InsertPrograms", mock.Anything, target, programcsv.Fitness, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "insert") }).Return(nil)

	res := NewExecutor(store, nil).Execute(context.Background(), operation(t, programcsv.ModeReplace), target)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"delete", "insert"}, order)
	store.AssertExpectations(t)
}

func TestExecute_ReplaceDeleteFailureSkipsInsert(t *testing.T) {
	store := new(MockProgramStore)
	store.On("DeletePrograms", mock.Anything, target, programcsv.Fitness).
		Return(errors.UpstreamError("permission denied for table programs", nil))

	res := NewExecutor(store, nil).Execute(context.Background(), operation(t, programcsv.ModeReplace), target)

	assert.False(t, res.Success)
	assert.Equal(t, "permission denied for table programs", res.Message)
	assert.False(t, res.PriorRowsDeleted)
	store.AssertNotCalled(t, "InsertPrograms", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_InsertFailureAfterDeleteIsFlagged(t *testing.T) {
	store := new(MockProgramStore)
	store.On("DeletePrograms", mock.Anything, target, programcsv.Fitness).Return(nil)
	store.On("InsertPrograms", mock.Anything, target, programcsv.Fitness, mock.Anything).
		Return(errors.UpstreamError("duplicate key value violates unique constraint", nil))

	res := NewExecutor(store, nil).Execute(context.Background(), operation(t, programcsv.ModeReplace), target)

	assert.False(t, res.Success)
	assert.True(t, res.PriorRowsDeleted)
	assert.Equal(t, "duplicate key value violates unique constraint", res.Message)
}

func TestExecute_AppendInsertFailureIsNotFlagged(t *testing.T) {
	store := new(MockProgramStore)
	store.On("InsertPrograms", mock.Anything, target, programcsv.Fitness, mock.Anything).
		Return(errors.UpstreamError("timeout", nil))

	res := NewExecutor(store, nil).Execute(context.Background(), operation(t, programcsv.ModeAppend), target)

	assert.False(t, res.Success)
	assert.False(t, res.PriorRowsDeleted)
}

func TestExecute_MissingFileTouchesNothing(t *testing.T) {
	store := new(MockProgramStore)
	op := programcsv.Operation{Type: programcsv.Fitness, File: filepath.Join(t.TempDir(), "gone.csv"), Mode: programcsv.ModeReplace}

	res := NewExecutor(store, nil).Execute(context.Background(), op, target)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
	store.AssertNotCalled(t, "DeletePrograms", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_MissingTarget(t *testing.T) {
	store := new(MockProgramStore)
	res := NewExecutor(store, nil).Execute(context.Background(), operation(t, programcsv.ModeAppend), Target{ActivityID: "act-1"})
	assert.False(t, res.Success)
	store.AssertNotCalled(t, "InsertPrograms", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_NoValidRows(t *testing.T) {
	store := new(MockProgramStore)
	op := programcsv.Operation{
		Type: programcsv.Fitness,
		File: writeCSV(t, "semana,dia,nombre_actividad\n99,Lunes,X\n"),
		Mode: programcsv.ModeAppend,
	}

	res := NewExecutor(store, nil).Execute(context.Background(), op, target)

	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	store.AssertNotCalled(t, "InsertPrograms", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
