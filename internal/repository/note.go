package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

type NoteRepository interface {
	Create(ctx context.Context, n *entity.Note) (*entity.Note, error)
	GetByID(ctx context.Context, id string) (*entity.Note, error)
	GetByMediaID(ctx context.Context, mediaID string) (*entity.Note, error)
	Update(ctx context.Context, id string, upd entity.NoteUpdate) (*entity.Note, error)
	UpdateStatus(ctx context.Context, id, status string) (*entity.Note, error)
	Delete(ctx context.Context, id string) (bool, error)
	// List returns the most recent notes first; limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*entity.Note, error)
}

type noteRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewNoteRepository(db *DB, logger *slog.Logger) NoteRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &noteRepo{db: db, logger: logger}
}

var noteColumns = []string{
	"id", "user_id", "transcript_id", "media_id", "title", "content",
	"content_type", "generation_params", "status", "created_at", "updated_at",
}

func (r *noteRepo) Create(ctx context.Context, n *entity.Note) (*entity.Note, error) {
	row := *n
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = constants.NoteStatusDraft
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	params, err := json.Marshal(row.Params)
	if err != nil {
		return nil, err
	}

	query, args := r.db.builder().Insert("notes").
		Columns(noteColumns...).
		Values(row.ID.String(), row.UserID, row.TranscriptID.String(), row.MediaID.String(), row.Title, row.Content,
			row.ContentType, string(params), row.Status, row.CreatedAt, row.UpdatedAt).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create note", "media_id", row.MediaID, "error", err)
		return nil, dbErr(err)
	}
	return &row, nil
}

func (r *noteRepo) GetByID(ctx context.Context, id string) (*entity.Note, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.getOne(ctx, entsql.EQ("id", uid.String()))
}

func (r *noteRepo) GetByMediaID(ctx context.Context, mediaID string) (*entity.Note, error) {
	uid, ok := parseID(mediaID)
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.getOne(ctx, entsql.EQ("media_id", uid.String()))
}

func (r *noteRepo) getOne(ctx context.Context, p *entsql.Predicate) (*entity.Note, error) {
	b := r.db.builder()
	query, args := b.Select(noteColumns...).
		From(b.Table("notes")).
		Where(p).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()
	n, err := scanNote(r.db.SQL.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbErr(err)
	}
	return n, nil
}

func (r *noteRepo) Update(ctx context.Context, id string, upd entity.NoteUpdate) (*entity.Note, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	ub := r.db.builder().Update("notes").Set("updated_at", time.Now().UTC())
	if upd.Title != nil {
		ub.Set("title", *upd.Title)
	}
	if upd.Status != nil {
		ub.Set("status", *upd.Status)
	}
	query, args := ub.Where(entsql.EQ("id", uid.String())).Query()
	if err := execOne(ctx, r.db.SQL, query, args); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *noteRepo) UpdateStatus(ctx context.Context, id, status string) (*entity.Note, error) {
	return r.Update(ctx, id, entity.NoteUpdate{Status: &status})
}

func (r *noteRepo) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "notes", id)
}

func (r *noteRepo) List(ctx context.Context, limit int) ([]*entity.Note, error) {
	b := r.db.builder()
	sel := b.Select(noteColumns...).
		From(b.Table("notes")).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	var out []*entity.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		out = append(out, n)
	}
	return out, dbErr(rows.Err())
}

func scanNote(s scanner) (*entity.Note, error) {
	var (
		n            entity.Note
		id, tid, mid string
		params       string
	)
	if err := s.Scan(&id, &n.UserID, &tid, &mid, &n.Title, &n.Content,
		&n.ContentType, &params, &n.Status, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if n.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if n.TranscriptID, err = uuid.Parse(tid); err != nil {
		return nil, err
	}
	if n.MediaID, err = uuid.Parse(mid); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(params), &n.Params)
	return &n, nil
}
