package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", quietLogger())
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { db.Close(quietLogger()) })
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

// TestMigrateIsIdempotent verifies the bootstrap can run on every start.
func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}
}

// TestMediaLifecycle covers create, status updates, partial merge and delete.
func TestMediaLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMediaRepository(openTestDB(t), quietLogger())

	m, err := repo.Create(ctx, &entity.Media{
		UserID:        "user-1",
		Filename:      "lecture.mp4",
		FilePath:      "/tmp/lecture.mp4",
		Kind:          constants.KindVideo,
		Status:        constants.StatusProcessing,
		ExportFormats: []string{"pdf", "txt"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.UpdateStatus(ctx, m.ID.String(), constants.StatusTranscribing)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if got.Status != constants.StatusTranscribing {
		t.Fatalf("status = %q, want %q", got.Status, constants.StatusTranscribing)
	}

	msg := "boom"
	ct := "meeting"
	got, err = repo.Update(ctx, m.ID.String(), entity.MediaUpdate{ErrorMessage: &msg, ContentType: &ct})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "boom" || got.ContentType != "meeting" {
		t.Fatalf("Update() = %+v", got)
	}
	if got.Status != constants.StatusTranscribing {
		t.Fatalf("Update() clobbered status: %q", got.Status)
	}
	if len(got.ExportFormats) != 2 || got.ExportFormats[0] != "pdf" {
		t.Fatalf("export formats = %v", got.ExportFormats)
	}

	ok, err := repo.Delete(ctx, m.ID.String())
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	ok, err = repo.Delete(ctx, m.ID.String())
	if err != nil || ok {
		t.Fatalf("second Delete() = %v, %v", ok, err)
	}
}

// TestInvalidIDIsNotFound verifies malformed ids never reach the database.
func TestInvalidIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	media := NewMediaRepository(db, quietLogger())
	notes := NewNoteRepository(db, quietLogger())

	if _, err := media.GetByID(ctx, "not-a-uuid"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
	if _, err := media.UpdateStatus(ctx, "nope", constants.StatusFailed); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("UpdateStatus() error = %v, want ErrNotFound", err)
	}
	if _, err := notes.GetByID(ctx, uuid.NewString()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetByID(unknown) error = %v, want ErrNotFound", err)
	}
	if ok, err := notes.Delete(ctx, "??"); ok || err != nil {
		t.Fatalf("Delete(invalid) = %v, %v", ok, err)
	}
}

// TestClosedDatabaseIsDatabaseError verifies connectivity failures differ from not found.
func TestClosedDatabaseIsDatabaseError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewMediaRepository(db, quietLogger())
	_ = db.SQL.Close()

	_, err := repo.GetByID(ctx, uuid.NewString())
	if !errors.Is(err, common.ErrDatabase) {
		t.Fatalf("GetByID() error = %v, want ErrDatabase", err)
	}
	if errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetByID() error = %v must not be ErrNotFound", err)
	}
}

// TestTranscriptRoundTrip verifies segments survive persistence in order.
func TestTranscriptRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTranscriptRepository(openTestDB(t), quietLogger())
	mediaID := uuid.New()

	created, err := repo.Create(ctx, &entity.Transcript{
		MediaID:     mediaID,
		UserID:      "u",
		RawText:     "a\nb",
		RefinedText: "A\nB",
		Segments: []entity.Segment{
			{Start: 0, End: 1.5, Text: "a"},
			{Start: 600, End: 602, Text: "b", Speaker: "S1"},
		},
		Language: "fr",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByMediaID(ctx, mediaID.String())
	if err != nil {
		t.Fatalf("GetByMediaID() error = %v", err)
	}
	if got.ID != created.ID || len(got.Segments) != 2 || got.Segments[1].Speaker != "S1" || got.Segments[1].Start != 600 {
		t.Fatalf("GetByMediaID() = %+v", got)
	}

	user := "late-user"
	got, err = repo.Update(ctx, created.ID.String(), entity.TranscriptUpdate{UserID: &user})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.UserID != "late-user" || got.RefinedText != "A\nB" {
		t.Fatalf("Update() = %+v", got)
	}
}

// TestNotesAndExports verifies listing and the retention helper.
func TestNotesAndExports(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	notes := NewNoteRepository(db, quietLogger())
	exports := NewExportRepository(db, quietLogger())

	n, err := notes.Create(ctx, &entity.Note{
		UserID:       "u",
		TranscriptID: uuid.New(),
		MediaID:      uuid.New(),
		Title:        "Thermo",
		Content:      "# Thermo",
		ContentType:  "course",
		Params:       entity.GenerationParams{Model: "m", Visual: true, Source: "media"},
		Status:       constants.NoteStatusCompleted,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, f := range []constants.ExportFormat{constants.PDF, constants.TXT} {
		if _, err := exports.Create(ctx, &entity.Export{UserID: "u", NoteID: n.ID, Format: f, FilePath: "/x/" + string(f), FileSize: 10}); err != nil {
			t.Fatalf("Create(%s) error = %v", f, err)
		}
	}

	list, err := notes.List(ctx, 0)
	if err != nil || len(list) != 1 || !list[0].Params.Visual {
		t.Fatalf("List() = %v, %v", list, err)
	}

	ex, err := exports.ListByNote(ctx, n.ID.String())
	if err != nil || len(ex) != 2 {
		t.Fatalf("ListByNote() = %v, %v", ex, err)
	}

	removed, err := exports.DeleteByFilePath(ctx, "/x/pdf")
	if err != nil || removed != 1 {
		t.Fatalf("DeleteByFilePath() = %d, %v", removed, err)
	}
	ex, _ = exports.ListByNote(ctx, n.ID.String())
	if len(ex) != 1 || ex[0].Format != constants.TXT {
		t.Fatalf("ListByNote() after delete = %v", ex)
	}
}
