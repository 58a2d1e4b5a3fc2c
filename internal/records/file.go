// internal/records/file.go
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"

	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/models"
)

// kindSchemas validates each collection file before unmarshal so malformed
// source data surfaces as DATA_LOAD_FAILED instead of silent zero values.
var kindSchemas = map[models.RecordKind]string{
	models.KindEmployees: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "name", "department", "role", "status"],
			"properties": {
				"id": {"type": "string", "pattern": "^E\\d{3}$"},
				"name": {"type": "string", "minLength": 1},
				"department": {"type": "string"},
				"role": {"type": "string"},
				"status": {"type": "string", "enum": ["active", "on_leave", "terminated"]}
			}
		}
	}`,
	models.KindJobs: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "title", "department", "status"],
			"properties": {
				"id": {"type": "string", "pattern": "^J\\d{3}$"},
				"title": {"type": "string", "minLength": 1},
				"status": {"type": "string", "enum": ["open", "on_hold", "closed"]}
			}
		}
	}`,
	models.KindCandidates: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "name", "stage"],
			"properties": {
				"id": {"type": "string", "pattern": "^C\\d{3}$"},
				"name": {"type": "string", "minLength": 1},
				"stage": {"type": "string", "enum": ["applied", "screening", "interview", "offer", "hired", "rejected"]}
			}
		}
	}`,
	models.KindShifts: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "employeeId", "date", "startTime", "endTime", "status"],
			"properties": {
				"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
			}
		}
	}`,
	models.KindTasks: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "employeeId", "title", "status"],
			"properties": {
				"status": {"type": "string", "enum": ["pending", "in_progress", "completed"]}
			}
		}
	}`,
	models.KindRecognitions: `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id", "employeeId", "message", "date"]
		}
	}`,
}

// FileSource reads one JSON file per kind from a fixture directory
// (<dir>/<kind>.json).
type FileSource struct {
	dir    string
	logger logger.Logger
}

func NewFileSource(dir string, log logger.Logger) *FileSource {
	return &FileSource{
		dir:    dir,
		logger: log.With(map[string]interface{}{"component": "records-file"}),
	}
}

func (s *FileSource) LoadAll(_ context.Context, kind models.RecordKind) ([]models.Record, error) {
	schema, ok := kindSchemas[kind]
	if !ok {
		return nil, apperrors.NewDataLoadError(string(kind), fmt.Errorf("unknown record kind"))
	}

	path := filepath.Join(s.dir, string(kind)+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(kind), err)
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, apperrors.NewDataLoadError(string(kind), err)
	}
	if !result.Valid() {
		first := ""
		if errs := result.Errors(); len(errs) > 0 {
			first = errs[0].String()
		}
		s.logger.Error("record file failed schema validation", map[string]interface{}{
			"kind":  string(kind),
			"path":  path,
			"error": first,
		})
		return nil, apperrors.NewDataLoadError(string(kind), fmt.Errorf("schema validation failed: %s", first))
	}

	return decodeCollection(kind, raw)
}

func decodeCollection(kind models.RecordKind, raw []byte) ([]models.Record, error) {
	wrap := func(err error) error { return apperrors.NewDataLoadError(string(kind), err) }

	switch kind {
	case models.KindEmployees:
		var rows []models.Employee
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, wrap(err)
		}
		return toRecords(rows), nil
	case models.KindJobs:
		var rows []models.Job
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, wrap(err)
		}
		return toRecords(rows), nil
	case models.KindCandidates:
		var rows []models.Candidate
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, wrap(err)
		}
		return toRecords(rows), nil
	case models.KindShifts:
		var rows []models.Shift
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, wrap(err)
		}
		return toRecords(rows), nil
	case models.KindTasks:
		var rows []models.Task
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, wrap(err)
		}
		return toRecords(rows), nil
	case models.KindRecognitions:
		var rows []models.Recognition
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, wrap(err)
		}
		return toRecords(rows), nil
	}
	return nil, wrap(fmt.Errorf("unknown record kind"))
}

func toRecords[T models.Record](rows []T) []models.Record {
	out := make([]models.Record, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
