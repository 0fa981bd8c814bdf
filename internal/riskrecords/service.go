package riskrecords

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"labrisk-backend/internal/extract"
	"labrisk-backend/internal/features"
	"labrisk-backend/internal/predict"
	"labrisk-backend/internal/shared/metrics"
	"labrisk-backend/internal/shared/storage/object"
	"labrisk-backend/internal/shared/telemetry"
)

// Service runs the screening pipeline and the review workflow.
type Service struct {
	repo      Repo
	store     object.ObjectStore
	schema    features.Schema
	Predictor predict.Predictor
}

// NewService wires the pipeline dependencies.
func NewService(repo Repo, store object.ObjectStore, schema features.Schema, predictor predict.Predictor) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		schema:    schema,
		Predictor: predictor,
	}
}

// Ingest screens one uploaded document: extract text, parse the feature
// vector, obtain a risk label, then persist object and record. Any failure
// before the record insert leaves nothing behind; a failed insert removes the
// just-saved object on a best-effort basis.
func (s *Service) Ingest(ctx context.Context, ownerID, fileName, declaredMime string, data []byte) (rec *RiskRecord, err error) {
	metrics.IncScreeningStarted()
	started := metrics.NowMillis()
	defer func() {
		metrics.ObserveScreeningDurationMs(metrics.NowMillis() - started)
		if err != nil {
			metrics.IncScreeningFailed()
		} else {
			metrics.IncScreeningCompleted()
		}
	}()

	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	text, err := extract.TextFromBytes(ctx, data, declaredMime, fileName)
	if err != nil {
		return nil, err
	}

	vec, err := s.schema.Parse(text)
	if err != nil {
		return nil, err
	}

	label, err := s.Predictor.Predict(ctx, vec)
	if err != nil {
		return nil, err
	}

	storageKey, sizeBytes, mimeType, err := s.store.Save(ctx, ownerID, fileName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	rec = &RiskRecord{
		ID:         uuid.NewString(),
		UserID:     ownerID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  sizeBytes,
		StorageKey: storageKey,
		RawText:    text,
		Features:   vec,
		RiskLabel:  label,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.removeObject(ctx, storageKey)
		return nil, fmt.Errorf("persist risk record: %w", err)
	}
	return rec, nil
}

// History returns the owner's records, newest first.
func (s *Service) History(ctx context.Context, ownerID string) ([]RiskRecord, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListAll returns every record with owner identity, newest first.
func (s *Service) ListAll(ctx context.Context) ([]AdminRecord, error) {
	return s.repo.ListAll(ctx)
}

// SetStatus moves a record through the review workflow.
func (s *Service) SetStatus(ctx context.Context, id string, to Status) (*RiskRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: record id is required", ErrInvalidInput)
	}
	return s.repo.UpdateStatus(ctx, id, to)
}

// File returns the record and a reader over the stored document bytes.
// The caller closes the reader.
func (s *Service) File(ctx context.Context, id string) (*RiskRecord, io.ReadCloser, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, rec.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open document: %w", err)
	}
	return rec, rc, nil
}

func (s *Service) removeObject(ctx context.Context, storageKey string) {
	remover, ok := s.store.(object.Remover)
	if !ok {
		return
	}
	if err := remover.Remove(ctx, storageKey); err != nil {
		telemetry.Error("riskrecords.cleanup_failed", map[string]any{
			"storage_key": storageKey,
			"error":       err.Error(),
		})
	}
}
