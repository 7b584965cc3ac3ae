package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, transcribed_text, creation_date, email_sent, last_email_sent_date,
		audio_recording_key, title, brand, color, item_description, is_unisex,
		measurement_length, measurement_width, price, size, status, images`

// Save inserts a new entry row.
func (r *PGRepo) Save(ctx context.Context, entry Entry) error {
	images, err := json.Marshal(entry.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		entry.ID,
		entry.TranscribedText,
		entry.CreationDate,
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
		images,
	)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicateID
	}
	return err
}

// FetchAll returns all entries ordered by creation date descending.
func (r *PGRepo) FetchAll(ctx context.Context) ([]Entry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		ORDER BY creation_date DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// FetchByID returns the entry with the given id.
func (r *PGRepo) FetchByID(ctx context.Context, id string) (Entry, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

// Update replaces the full record for the entry's id. The row lock serializes
// concurrent writers on the same id; id and creation_date are never written.
func (r *PGRepo) Update(ctx context.Context, entry Entry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM entries WHERE id = $1 FOR UPDATE`, entry.ID).Scan(&existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	images, err := json.Marshal(entry.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE entries
		SET transcribed_text = $2,
			email_sent = $3,
			last_email_sent_date = $4,
			audio_recording_key = $5,
			title = $6,
			brand = $7,
			color = $8,
			item_description = $9,
			is_unisex = $10,
			measurement_length = $11,
			measurement_width = $12,
			price = $13,
			size = $14,
			status = $15,
			images = $16
		WHERE id = $1`,
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
		images,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the entry with the given id.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry    Entry
		lastSent sql.NullTime
		images   []byte
	)
	err := row.Scan(
		&entry.ID,
		&entry.TranscribedText,
		&entry.CreationDate,
		&entry.EmailSent,
		&lastSent,
		&entry.AudioRecordingKey,
		&entry.Title,
		&entry.Brand,
		&entry.Color,
		&entry.ItemDescription,
		&entry.IsUnisex,
		&entry.MeasurementLength,
		&entry.MeasurementWidth,
		&entry.Price,
		&entry.Size,
		&entry.Status,
		&images,
	)
	if err != nil {
		return Entry{}, err
	}
	if lastSent.Valid {
		ts := lastSent.Time
		entry.LastEmailSentDate = &ts
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &entry.Images); err != nil {
			return Entry{}, fmt.Errorf("unmarshal images: %w", err)
		}
	}
	entry.CreationDate = entry.CreationDate.UTC()
	return entry, nil
}
