package async

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/pipeline"
)

// Job is the wire payload for one media item, shared by the in-process queue,
// RabbitMQ and the submission tools.
type Job struct {
	MediaID       string    `json:"media_id"`
	FilePath      string    `json:"file_path"`
	UserID        string    `json:"user_id"`
	ContentType   string    `json:"content_type,omitempty"`
	ExportFormats []string  `json:"export_formats,omitempty"`
	Document      *bool     `json:"document,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at,omitempty"`
	TraceID       string    `json:"trace_id,omitempty"`
}

var jobSchema = map[string]any{
	"$schema":  "http://json-schema.org/draft-07/schema#",
	"type":     "object",
	"required": []string{"media_id", "file_path", "user_id"},
	"properties": map[string]any{
		"media_id":  map[string]any{"type": "string", "minLength": 1},
		"file_path": map[string]any{"type": "string", "minLength": 1},
		"user_id":   map[string]any{"type": "string", "minLength": 1, "maxLength": 128},
		"content_type": map[string]any{
			"type": "string",
		},
		"export_formats": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"document":     map[string]any{"type": "boolean"},
		"submitted_at": map[string]any{"type": "string"},
		"trace_id":     map[string]any{"type": "string"},
	},
	"additionalProperties": false,
}

var (
	schemaOnce sync.Once
	compiled   *jsonschema.Schema
	schemaErr  error
)

func jobSchemaCompiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(jobSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("job.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, schemaErr = compiler.Compile("job.json")
	})
	return compiled, schemaErr
}

// DecodeJob validates data against the job schema and the field rules.
func DecodeJob(data []byte) (Job, error) {
	schema, err := jobSchemaCompiled()
	if err != nil {
		return Job{}, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Job{}, fmt.Errorf("%w: unmarshal job: %v", common.ErrInvalidInput, err)
	}
	if err := schema.Validate(v); err != nil {
		return Job{}, fmt.Errorf("%w: job does not match schema: %v", common.ErrInvalidInput, err)
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("%w: decode job: %v", common.ErrInvalidInput, err)
	}
	if err := j.Validate(); err != nil {
		return Job{}, err
	}
	return j, nil
}

// Encode is the inverse of DecodeJob.
func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// Validate applies the semantic rules the schema cannot express.
func (j Job) Validate() error {
	cts := append(constants.ContentTypesAsStrings(), string(constants.Auto))
	v := common.NewValidator().
		Field("media_id", j.MediaID, common.Required, common.UUID).
		Field("file_path", j.FilePath, common.Required).
		Field("user_id", j.UserID, common.Required, common.MaxLength(128)).
		Field("content_type", strings.TrimSpace(j.ContentType), common.OneOf(cts...))
	return v.Error()
}

// Request converts the payload into an orchestrator request.
func (j Job) Request() (pipeline.Request, error) {
	id, err := uuid.Parse(j.MediaID)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("%w: media_id %q", common.ErrInvalidInput, j.MediaID)
	}
	doc := false
	if j.Document != nil {
		doc = *j.Document
	} else if kind, ok := constants.KindOf(j.FilePath); ok {
		doc = kind == constants.KindDocument
	}
	return pipeline.Request{
		MediaID:       id,
		FilePath:      j.FilePath,
		UserID:        j.UserID,
		ContentType:   j.ContentType,
		ExportFormats: j.ExportFormats,
		Document:      doc,
	}, nil
}
