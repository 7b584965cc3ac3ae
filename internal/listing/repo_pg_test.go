package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoSaveInsertsAllFields(t *testing.T) {
	repo, mock := newMockRepo(t)

	entry := Entry{
		ID:                "e1",
		TranscribedText:   "veste en jean",
		CreationDate:      time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
		AudioRecordingKey: "recordings/rec-1.m4a",
		Title:             "Veste",
		Brand:             "Levi's",
		Price:             45,
		Images:            []string{"a.jpg"},
	}

	mock.ExpectExec("INSERT INTO entries").
		WithArgs(
			entry.ID,
			entry.TranscribedText,
			entry.CreationDate,
			entry.EmailSent,
			nil, // last_email_sent_date
			entry.AudioRecordingKey,
			entry.Title,
			entry.Brand,
			entry.Color,
			entry.ItemDescription,
			entry.IsUnisex,
			entry.MeasurementLength,
			entry.MeasurementWidth,
			entry.Price,
			entry.Size,
			entry.Status,
			sqlmock.AnyArg(), // images json
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), entry); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSaveMapsDuplicateKey(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO entries").
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "entries_pkey"`))

	if err := repo.Save(context.Background(), Entry{ID: "dup"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "transcribed_text", "creation_date", "email_sent", "last_email_sent_date",
		"audio_recording_key", "title", "brand", "color", "item_description", "is_unisex",
		"measurement_length", "measurement_width", "price", "size", "status", "images",
	})
}

func TestPGRepoFetchByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	sent := created.Add(time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("e1").
		WillReturnRows(entryRows().AddRow(
			"e1", "veste en jean", created, true, sent,
			"recordings/rec-1.m4a", "Veste", "Levi's", "bleu", "", false,
			0.0, 0.0, 45.0, "M", "", []byte(`["a.jpg"]`),
		))

	got, err := repo.FetchByID(context.Background(), "e1")
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if got.ID != "e1" || got.Title != "Veste" || got.Price != 45 {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if !got.EmailSent || got.LastEmailSentDate == nil || !got.LastEmailSentDate.Equal(sent) {
		t.Fatalf("send status not scanned: %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != "a.jpg" {
		t.Fatalf("images not decoded: %v", got.Images)
	}
}

func TestPGRepoFetchByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs("ghost").
		WillReturnRows(entryRows())

	if _, err := repo.FetchByID(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoFetchAllOrdersByCreation(t *testing.T) {
	repo, mock := newMockRepo(t)

	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("ORDER BY creation_date DESC, id ASC").
		WillReturnRows(entryRows().
			AddRow("new", "", base.Add(time.Hour), false, nil, "", "", "", "", "", false, 0.0, 0.0, 0.0, "", "", []byte(`[]`)).
			AddRow("old", "", base, false, nil, "", "", "", "", "", false, 0.0, 0.0, 0.0, "", "", []byte(`[]`)))

	all, err := repo.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 2 || all[0].ID != "new" || all[1].ID != "old" {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestPGRepoUpdateLocksRowAndNeverWritesIdentity(t *testing.T) {
	repo, mock := newMockRepo(t)

	sent := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{
		ID:                "e1",
		TranscribedText:   "veste en jean",
		EmailSent:         true,
		LastEmailSentDate: &sent,
		Title:             "Veste",
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM entries WHERE id = (.+) FOR UPDATE").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e1"))
	mock.ExpectExec("UPDATE entries").
		WithArgs(
			entry.ID,
			entry.TranscribedText,
			entry.EmailSent,
			entry.LastEmailSentDate,
			entry.AudioRecordingKey,
			entry.Title,
			entry.Brand,
			entry.Color,
			entry.ItemDescription,
			entry.IsUnisex,
			entry.MeasurementLength,
			entry.MeasurementWidth,
			entry.Price,
			entry.Size,
			entry.Status,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Update(context.Background(), entry); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM entries WHERE id = (.+) FOR UPDATE").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if err := repo.Update(context.Background(), Entry{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoDeleteNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM entries").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
