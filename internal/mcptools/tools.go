// Package mcptools exposes job submission and status lookup as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/async"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

type Submitter interface {
	Submit(ctx context.Context, s async.Submission) (*entity.Media, error)
}

type MediaReader interface {
	GetByID(ctx context.Context, id string) (*entity.Media, error)
}

type ExportLister interface {
	ListByNote(ctx context.Context, noteID string) ([]*entity.Export, error)
}

type NoteReader interface {
	GetByMediaID(ctx context.Context, mediaID string) (*entity.Note, error)
}

type Tools struct {
	intake  Submitter
	media   MediaReader
	notes   NoteReader
	exports ExportLister
	logger  *slog.Logger
}

func New(intake Submitter, media MediaReader, notes NoteReader, exports ExportLister, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{intake: intake, media: media, notes: notes, exports: exports, logger: logger}
}

// Register adds submit_media and media_status to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("submit_media",
		mcp.WithDescription("Queue an audio, video or document file for note generation."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path of the source file")),
		mcp.WithString("user_id", mcp.Description("Owner recorded on the media row")),
		mcp.WithString("content_type",
			mcp.Description("Content type, or auto to classify"),
			mcp.Enum(append(constants.ContentTypesAsStrings(), string(constants.Auto))...),
		),
		mcp.WithArray("export_formats",
			mcp.Description("Export formats: pdf, docx, txt"),
			mcp.WithStringItems(),
		),
	), t.SubmitMedia)

	s.AddTool(mcp.NewTool("media_status",
		mcp.WithDescription("Report the processing status of a media file and its exports."),
		mcp.WithString("media_id", mcp.Required(), mcp.Description("Media id returned by submit_media")),
	), t.MediaStatus)
}

func (t *Tools) SubmitMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := t.intake.Submit(ctx, async.Submission{
		UserID:        req.GetString("user_id", "mcp"),
		FilePath:      path,
		ContentType:   req.GetString("content_type", string(constants.Auto)),
		ExportFormats: req.GetStringSlice("export_formats", nil),
	})
	if err != nil {
		t.logger.Warn("mcp.submit.rejected", "path", path, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"media_id": m.ID.String(), "status": m.Status})
}

type statusView struct {
	MediaID      string                `json:"media_id"`
	Status       constants.MediaStatus `json:"status"`
	ContentType  string                `json:"content_type,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
	NoteTitle    string                `json:"note_title,omitempty"`
	Exports      []exportView          `json:"exports,omitempty"`
}

type exportView struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

func (t *Tools) MediaStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("media_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := t.media.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return mcp.NewToolResultError("media not found: " + id), nil
		}
		return nil, err
	}
	view := statusView{MediaID: m.ID.String(), Status: m.Status, ContentType: m.ContentType}
	if m.ErrorMessage != nil {
		view.ErrorMessage = *m.ErrorMessage
	}
	if m.Status == constants.StatusCompleted {
		if n, err := t.notes.GetByMediaID(ctx, id); err == nil {
			view.NoteTitle = n.Title
			exports, err := t.exports.ListByNote(ctx, n.ID.String())
			if err != nil {
				return nil, err
			}
			for _, e := range exports {
				view.Exports = append(view.Exports, exportView{Format: string(e.Format), Path: e.FilePath})
			}
		}
	}
	return jsonResult(view)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
