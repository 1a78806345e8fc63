package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

type ExportRepository interface {
	Create(ctx context.Context, e *entity.Export) (*entity.Export, error)
	GetByID(ctx context.Context, id string) (*entity.Export, error)
	ListByNote(ctx context.Context, noteID string) ([]*entity.Export, error)
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteByFilePath removes every row pointing at path and returns how many went.
	DeleteByFilePath(ctx context.Context, path string) (int64, error)
}

type exportRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewExportRepository(db *DB, logger *slog.Logger) ExportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &exportRepo{db: db, logger: logger}
}

var exportColumns = []string{"id", "user_id", "note_id", "format", "file_path", "file_size", "created_at"}

func (r *exportRepo) Create(ctx context.Context, e *entity.Export) (*entity.Export, error) {
	row := *e
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	query, args := r.db.builder().Insert("exports").
		Columns(exportColumns...).
		Values(row.ID.String(), row.UserID, row.NoteID.String(), string(row.Format), row.FilePath, row.FileSize, row.CreatedAt).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create export", "note_id", row.NoteID, "format", row.Format, "error", err)
		return nil, dbErr(err)
	}
	return &row, nil
}

func (r *exportRepo) GetByID(ctx context.Context, id string) (*entity.Export, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	b := r.db.builder()
	query, args := b.Select(exportColumns...).
		From(b.Table("exports")).
		Where(entsql.EQ("id", uid.String())).
		Query()
	e, err := scanExport(r.db.SQL.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbErr(err)
	}
	return e, nil
}

func (r *exportRepo) ListByNote(ctx context.Context, noteID string) ([]*entity.Export, error) {
	uid, ok := parseID(noteID)
	if !ok {
		return nil, nil
	}
	b := r.db.builder()
	query, args := b.Select(exportColumns...).
		From(b.Table("exports")).
		Where(entsql.EQ("note_id", uid.String())).
		OrderBy("created_at").
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var out []*entity.Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		out = append(out, e)
	}
	return out, dbErr(rows.Err())
}

func (r *exportRepo) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "exports", id)
}

func (r *exportRepo) DeleteByFilePath(ctx context.Context, path string) (int64, error) {
	query, args := r.db.builder().Delete("exports").Where(entsql.EQ("file_path", path)).Query()
	res, err := r.db.SQL.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dbErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbErr(err)
	}
	return n, nil
}

func scanExport(s scanner) (*entity.Export, error) {
	var (
		e          entity.Export
		id, noteID string
		format     string
	)
	if err := s.Scan(&id, &e.UserID, &noteID, &format, &e.FilePath, &e.FileSize, &e.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if e.NoteID, err = uuid.Parse(noteID); err != nil {
		return nil, err
	}
	e.Format = constants.ExportFormat(format)
	return &e, nil
}
