package riskrecords

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo backed by Postgres.
type PGRepo struct {
	db *sql.DB
}

// NewPGRepo creates a Postgres-backed repository.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

const recordColumns = `id, user_id, file_name, mime_type, size_bytes, storage_key, raw_text, features, risk_label, status, created_at`

// Create inserts the record with status Pending.
func (r *PGRepo) Create(ctx context.Context, rec *RiskRecord) error {
	rec.Status = StatusPending

	featuresJSON, err := json.Marshal(rec.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	query := `
		INSERT INTO risk_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.FileName,
		rec.MimeType,
		rec.SizeBytes,
		rec.StorageKey,
		rec.RawText,
		featuresJSON,
		rec.RiskLabel,
		string(rec.Status),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert risk record: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's records, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]RiskRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM risk_records
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list risk records: %w", err)
	}
	defer rows.Close()

	records := []RiskRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk records: %w", err)
	}
	return records, nil
}

// ListAll returns every record with the owner joined in, newest first.
func (r *PGRepo) ListAll(ctx context.Context) ([]AdminRecord, error) {
	query := `
		SELECT r.id, r.user_id, r.file_name, r.mime_type, r.size_bytes, r.storage_key,
		       r.raw_text, r.features, r.risk_label, r.status, r.created_at,
		       u.full_name, u.email
		FROM risk_records r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all risk records: %w", err)
	}
	defer rows.Close()

	records := []AdminRecord{}
	for rows.Next() {
		var (
			rec          RiskRecord
			featuresJSON []byte
			status       string
			ownerName    sql.NullString
			ownerEmail   sql.NullString
		)
		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.FileName,
			&rec.MimeType,
			&rec.SizeBytes,
			&rec.StorageKey,
			&rec.RawText,
			&featuresJSON,
			&rec.RiskLabel,
			&status,
			&rec.CreatedAt,
			&ownerName,
			&ownerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan risk record: %w", err)
		}
		if err := json.Unmarshal(featuresJSON, &rec.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features: %w", err)
		}
		rec.Status = Status(status)
		records = append(records, AdminRecord{
			RiskRecord: rec,
			OwnerName:  ownerName.String,
			OwnerEmail: ownerEmail.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk records: %w", err)
	}
	return records, nil
}

// GetByID returns the record or ErrNotFound.
func (r *PGRepo) GetByID(ctx context.Context, id string) (*RiskRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM risk_records
		WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateStatus performs the workflow check and the write as one conditional
// UPDATE, so concurrent updates cannot both succeed from the same Pending row.
// A zero-row result is disambiguated with a follow-up read.
func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) (*RiskRecord, error) {
	query := `
		UPDATE risk_records
		SET status = $1
		WHERE id = $2 AND (status = 'Pending' OR status = $1)
		RETURNING ` + recordColumns

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, string(status), id))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM risk_records WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read risk record status: %w", err)
	}
	return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, status)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*RiskRecord, error) {
	var (
		rec          RiskRecord
		featuresJSON []byte
		status       string
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.FileName,
		&rec.MimeType,
		&rec.SizeBytes,
		&rec.StorageKey,
		&rec.RawText,
		&featuresJSON,
		&rec.RiskLabel,
		&status,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scan risk record: %w", err)
	}
	if err := json.Unmarshal(featuresJSON, &rec.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features: %w", err)
	}
	rec.Status = Status(status)
	return &rec, nil
}

var _ Repo = (*PGRepo)(nil)
