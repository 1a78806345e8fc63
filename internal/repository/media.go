package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

type MediaRepository interface {
	Create(ctx context.Context, m *entity.Media) (*entity.Media, error)
	GetByID(ctx context.Context, id string) (*entity.Media, error)
	Update(ctx context.Context, id string, upd entity.MediaUpdate) (*entity.Media, error)
	UpdateStatus(ctx context.Context, id string, status constants.MediaStatus) (*entity.Media, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type mediaRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewMediaRepository(db *DB, logger *slog.Logger) MediaRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &mediaRepo{db: db, logger: logger}
}

var mediaColumns = []string{
	"id", "user_id", "filename", "file_path", "media_kind", "status",
	"content_type", "export_formats", "error_message", "created_at", "updated_at",
}

func (r *mediaRepo) Create(ctx context.Context, m *entity.Media) (*entity.Media, error) {
	row := *m
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = constants.StatusUploaded
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	formats, err := json.Marshal(nonNilStrings(row.ExportFormats))
	if err != nil {
		return nil, err
	}

	query, args := r.db.builder().Insert("media").
		Columns(mediaColumns...).
		Values(row.ID.String(), row.UserID, row.Filename, row.FilePath, string(row.Kind), string(row.Status),
			row.ContentType, string(formats), nullString(row.ErrorMessage), row.CreatedAt, row.UpdatedAt).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create media", "file_path", row.FilePath, "error", err)
		return nil, dbErr(err)
	}
	return &row, nil
}

func (r *mediaRepo) GetByID(ctx context.Context, id string) (*entity.Media, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	b := r.db.builder()
	query, args := b.Select(mediaColumns...).
		From(b.Table("media")).
		Where(entsql.EQ("id", uid.String())).
		Query()
	m, err := scanMedia(r.db.SQL.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbErr(err)
	}
	return m, nil
}

func (r *mediaRepo) Update(ctx context.Context, id string, upd entity.MediaUpdate) (*entity.Media, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	ub := r.db.builder().Update("media").Set("updated_at", time.Now().UTC())
	if upd.Status != nil {
		ub.Set("status", string(*upd.Status))
	}
	if upd.ContentType != nil {
		ub.Set("content_type", *upd.ContentType)
	}
	if upd.ExportFormats != nil {
		formats, err := json.Marshal(upd.ExportFormats)
		if err != nil {
			return nil, err
		}
		ub.Set("export_formats", string(formats))
	}
	if upd.ErrorMessage != nil {
		ub.Set("error_message", *upd.ErrorMessage)
	}
	query, args := ub.Where(entsql.EQ("id", uid.String())).Query()
	if err := execOne(ctx, r.db.SQL, query, args); err != nil {
		if err != common.ErrNotFound {
			r.logger.Error("failed to update media", "media_id", id, "error", err)
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *mediaRepo) UpdateStatus(ctx context.Context, id string, status constants.MediaStatus) (*entity.Media, error) {
	return r.Update(ctx, id, entity.MediaUpdate{Status: &status})
}

func (r *mediaRepo) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "media", id)
}

func scanMedia(s scanner) (*entity.Media, error) {
	var (
		m       entity.Media
		id      string
		kind    string
		status  string
		formats string
		errMsg  sql.NullString
	)
	if err := s.Scan(&id, &m.UserID, &m.Filename, &m.FilePath, &kind, &status,
		&m.ContentType, &formats, &errMsg, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if m.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	m.Kind = constants.MediaKind(kind)
	m.Status = constants.MediaStatus(status)
	if formats != "" {
		_ = json.Unmarshal([]byte(formats), &m.ExportFormats)
	}
	if errMsg.Valid {
		m.ErrorMessage = &errMsg.String
	}
	return &m, nil
}
