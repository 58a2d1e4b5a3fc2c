// internal/records/records_test.go
package records

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/models"
)

// ==========================
// Memory Source
// ==========================

func TestMemorySource_Seed(t *testing.T) {
	ctx := context.Background()
	src := Seed(time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)) // a Wednesday

	employees, err := src.LoadAll(ctx, models.KindEmployees)
	require.NoError(t, err)
	require.NotEmpty(t, employees)

	found := false
	for _, r := range employees {
		e, ok := r.(models.Employee)
		require.True(t, ok)
		assert.Equal(t, models.KindEmployees, e.Kind())
		if e.Name == "Jordan Williams" {
			found = true
			assert.Equal(t, "E001", e.RecordID())
		}
	}
	assert.True(t, found, "seed dataset must contain Jordan Williams")

	shifts, err := src.LoadAll(ctx, models.KindShifts)
	require.NoError(t, err)
	assert.NotEmpty(t, shifts)
}

func TestMemorySource_UnknownKind(t *testing.T) {
	src := NewMemorySource()
	_, err := src.LoadAll(context.Background(), models.RecordKind("widgets"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataLoadFailed))
}

func TestMemorySource_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	src := NewMemorySource()
	src.Put(models.KindTasks, []models.Record{
		models.Task{ID: "T001", EmployeeID: "E001", Title: "a", Status: "pending"},
	})

	first, err := src.LoadAll(ctx, models.KindTasks)
	require.NoError(t, err)
	first[0] = models.Task{ID: "T999", EmployeeID: "E009", Title: "mutated", Status: "pending"}

	second, err := src.LoadAll(ctx, models.KindTasks)
	require.NoError(t, err)
	assert.Equal(t, "T001", second[0].RecordID(), "caller mutation must not leak into the source")
}

// ==========================
// File Source
// ==========================

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileSource_LoadValid(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "employees.json", `[
		{"id":"E001","name":"Jordan Williams","department":"Operations","role":"Shift Supervisor","status":"active"},
		{"id":"E002","name":"Maria Garcia","department":"Operations","role":"Store Manager","status":"active"}
	]`)

	src := NewFileSource(dir, logger.NewNoOpLogger())
	recs, err := src.LoadAll(context.Background(), models.KindEmployees)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	e, ok := recs[0].(models.Employee)
	require.True(t, ok)
	assert.Equal(t, "Jordan Williams", e.Name)
}

func TestFileSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		kind    models.RecordKind
	}{
		{
			name:  "missing file",
			setup: func(t *testing.T, dir string) {},
			kind:  models.KindEmployees,
		},
		{
			name: "invalid json",
			setup: func(t *testing.T, dir string) {
				writeFixture(t, dir, "employees.json", `{"not":"an array"`)
			},
			kind: models.KindEmployees,
		},
		{
			name: "schema violation: bad id format",
			setup: func(t *testing.T, dir string) {
				writeFixture(t, dir, "employees.json", `[{"id":"X1","name":"A","department":"Ops","role":"r","status":"active"}]`)
			},
			kind: models.KindEmployees,
		},
		{
			name: "schema violation: missing required field",
			setup: func(t *testing.T, dir string) {
				writeFixture(t, dir, "jobs.json", `[{"id":"J001","title":"Dev"}]`)
			},
			kind: models.KindJobs,
		},
		{
			name: "schema violation: unknown status enum",
			setup: func(t *testing.T, dir string) {
				writeFixture(t, dir, "jobs.json", `[{"id":"J001","title":"Dev","department":"Eng","status":"paused"}]`)
			},
			kind: models.KindJobs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			src := NewFileSource(dir, logger.NewNoOpLogger())
			_, err := src.LoadAll(context.Background(), tt.kind)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrDataLoadFailed))
			assert.Equal(t, apperrors.ErrCodeDataLoadFailed, apperrors.CodeOf(err))
		})
	}
}

// ==========================
// SQL Source
// ==========================

func TestSQLSource_LoadEmployees(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "department", "role", "email", "manager_id", "location", "skills", "status"}).
		AddRow("E001", "Jordan Williams", "Operations", "Shift Supervisor", "", "E002", "Downtown", "{scheduling,inventory}", "active").
		AddRow("E002", "Maria Garcia", "Operations", "Store Manager", "", "", "Downtown", "{}", "active")
	mock.ExpectQuery(`SELECT id, name, department, role.*FROM employees`).WillReturnRows(rows)

	src := NewSQLSource(db)
	recs, err := src.LoadAll(context.Background(), models.KindEmployees)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	e := recs[0].(models.Employee)
	assert.Equal(t, "E001", e.ID)
	assert.Equal(t, []string{"scheduling", "inventory"}, e.Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_LoadShifts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "employee_id", "date", "start_time", "end_time", "role", "status"}).
		AddRow("S001", "E001", "2025-06-02", "09:00", "17:00", "floor", "scheduled")
	mock.ExpectQuery(`SELECT id, employee_id, date.*FROM shifts`).WillReturnRows(rows)

	src := NewSQLSource(db)
	recs, err := src.LoadAll(context.Background(), models.KindShifts)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.KindShifts, recs[0].Kind())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, title, department.*FROM jobs`).WillReturnError(errors.New("connection reset"))

	src := NewSQLSource(db)
	_, err = src.LoadAll(context.Background(), models.KindJobs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataLoadFailed))
}
