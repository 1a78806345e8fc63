package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

type TranscriptRepository interface {
	Create(ctx context.Context, t *entity.Transcript) (*entity.Transcript, error)
	GetByID(ctx context.Context, id string) (*entity.Transcript, error)
	GetByMediaID(ctx context.Context, mediaID string) (*entity.Transcript, error)
	Update(ctx context.Context, id string, upd entity.TranscriptUpdate) (*entity.Transcript, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type transcriptRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTranscriptRepository(db *DB, logger *slog.Logger) TranscriptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &transcriptRepo{db: db, logger: logger}
}

var transcriptColumns = []string{
	"id", "media_id", "user_id", "raw_text", "refined_text", "segments",
	"language", "visual_context", "model", "created_at", "updated_at",
}

func (r *transcriptRepo) Create(ctx context.Context, t *entity.Transcript) (*entity.Transcript, error) {
	row := *t
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Segments == nil {
		row.Segments = []entity.Segment{}
	}
	now := time.Now().UTC()
	row.CreatedAt, row.UpdatedAt = now, now
	segs, err := json.Marshal(row.Segments)
	if err != nil {
		return nil, err
	}

	query, args := r.db.builder().Insert("transcripts").
		Columns(transcriptColumns...).
		Values(row.ID.String(), row.MediaID.String(), row.UserID, row.RawText, row.RefinedText, string(segs),
			row.Language, row.VisualContext, row.Model, row.CreatedAt, row.UpdatedAt).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create transcript", "media_id", row.MediaID, "error", err)
		return nil, dbErr(err)
	}
	return &row, nil
}

func (r *transcriptRepo) GetByID(ctx context.Context, id string) (*entity.Transcript, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.getOne(ctx, entsql.EQ("id", uid.String()))
}

func (r *transcriptRepo) GetByMediaID(ctx context.Context, mediaID string) (*entity.Transcript, error) {
	uid, ok := parseID(mediaID)
	if !ok {
		return nil, common.ErrNotFound
	}
	return r.getOne(ctx, entsql.EQ("media_id", uid.String()))
}

func (r *transcriptRepo) getOne(ctx context.Context, p *entsql.Predicate) (*entity.Transcript, error) {
	b := r.db.builder()
	query, args := b.Select(transcriptColumns...).
		From(b.Table("transcripts")).
		Where(p).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()
	t, err := scanTranscript(r.db.SQL.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbErr(err)
	}
	return t, nil
}

func (r *transcriptRepo) Update(ctx context.Context, id string, upd entity.TranscriptUpdate) (*entity.Transcript, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	ub := r.db.builder().Update("transcripts").Set("updated_at", time.Now().UTC())
	if upd.UserID != nil {
		ub.Set("user_id", *upd.UserID)
	}
	if upd.RefinedText != nil {
		ub.Set("refined_text", *upd.RefinedText)
	}
	if upd.VisualContext != nil {
		ub.Set("visual_context", *upd.VisualContext)
	}
	query, args := ub.Where(entsql.EQ("id", uid.String())).Query()
	if err := execOne(ctx, r.db.SQL, query, args); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *transcriptRepo) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, "transcripts", id)
}

func scanTranscript(s scanner) (*entity.Transcript, error) {
	var (
		t       entity.Transcript
		id, mid string
		segs    string
	)
	if err := s.Scan(&id, &mid, &t.UserID, &t.RawText, &t.RefinedText, &segs,
		&t.Language, &t.VisualContext, &t.Model, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if t.MediaID, err = uuid.Parse(mid); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(segs), &t.Segments); err != nil {
		return nil, err
	}
	return &t, nil
}
