package riskrecords

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"labrisk-backend/internal/features"
	"labrisk-backend/internal/predict"
	"labrisk-backend/internal/shared/storage/object"
)

const wellFormedReport = "Pregnancies: 2 Glucose: 130 BloodPressure: 70 SkinThickness: 20 Insulin: 85 BMI: 28.5 DiabetesPedigreeFunction: 0.4 Age: 33"

func buildReportDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>`)
		doc.WriteString(p)
		doc.WriteString(`</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(doc.String())); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

type stubPredictor struct {
	label string
	err   error
}

func (p stubPredictor) Predict(ctx context.Context, vec features.Vector) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.label, nil
}

// memStore keeps saved objects in memory and records removals.
type memStore struct {
	objects map[string][]byte
	removed []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Save(ctx context.Context, userId string, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := fmt.Sprintf("%s/%d_%s", userId, len(s.objects), fileName)
	s.objects[key] = data
	return key, int64(len(data)), "application/zip", nil
}

func (s *memStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, fmt.Errorf("object %s not found", storageKey)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Remove(ctx context.Context, storageKey string) error {
	delete(s.objects, storageKey)
	s.removed = append(s.removed, storageKey)
	return nil
}

var (
	_ object.ObjectStore = (*memStore)(nil)
	_ object.Remover     = (*memStore)(nil)
)

type failingRepo struct {
	Repo
}

func (failingRepo) Create(ctx context.Context, rec *RiskRecord) error {
	return errors.New("insert failed")
}

func newTestService(repo Repo, store object.ObjectStore, p predict.Predictor) *Service {
	return NewService(repo, store, features.ReportSchema{}, p)
}

func TestIngestHappyPath(t *testing.T) {
	repo := NewMemoryRepo(nil)
	store := newMemStore()
	svc := newTestService(repo, store, stubPredictor{label: "High Risk"})

	data := buildReportDocx(t, "Lab Report", wellFormedReport)
	rec, err := svc.Ingest(context.Background(), "u1", "report.docx", "application/zip", data)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if rec.Status != StatusPending {
		t.Fatalf("expected new record Pending, got %s", rec.Status)
	}
	if rec.RiskLabel != "High Risk" {
		t.Fatalf("expected risk label, got %q", rec.RiskLabel)
	}
	if rec.Features.Glucose != 130 || rec.Features.DiabetesPedigreeFunction != 0.4 {
		t.Fatalf("unexpected features: %+v", rec.Features)
	}
	if rec.SizeBytes != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), rec.SizeBytes)
	}

	stored, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID after ingest: %v", err)
	}
	if stored.StorageKey == "" {
		t.Fatal("expected storage key persisted")
	}
	if _, ok := store.objects[stored.StorageKey]; !ok {
		t.Fatal("expected document bytes saved in object store")
	}
}

func TestIngestParseFailurePersistsNothing(t *testing.T) {
	repo := NewMemoryRepo(nil)
	store := newMemStore()
	svc := newTestService(repo, store, stubPredictor{label: "High Risk"})

	data := buildReportDocx(t, "No clinical fields here")
	_, err := svc.Ingest(context.Background(), "u1", "report.docx", "application/zip", data)
	if !errors.Is(err, features.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}

	if len(store.objects) != 0 {
		t.Fatal("expected no object saved on parse failure")
	}
	if records, _ := repo.ListByOwner(context.Background(), "u1"); len(records) != 0 {
		t.Fatal("expected no record persisted on parse failure")
	}
}

func TestIngestPredictionFailurePersistsNothing(t *testing.T) {
	repo := NewMemoryRepo(nil)
	store := newMemStore()
	svc := newTestService(repo, store, stubPredictor{err: fmt.Errorf("%w: down", predict.ErrUnavailable)})

	data := buildReportDocx(t, wellFormedReport)
	_, err := svc.Ingest(context.Background(), "u1", "report.docx", "application/zip", data)
	if !errors.Is(err, predict.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if len(store.objects) != 0 {
		t.Fatal("expected no object saved on prediction failure")
	}
	if records, _ := repo.ListByOwner(context.Background(), "u1"); len(records) != 0 {
		t.Fatal("expected no record persisted on prediction failure")
	}
}

func TestIngestInsertFailureRemovesObject(t *testing.T) {
	store := newMemStore()
	svc := newTestService(failingRepo{}, store, stubPredictor{label: "Low Risk"})

	data := buildReportDocx(t, wellFormedReport)
	if _, err := svc.Ingest(context.Background(), "u1", "report.docx", "application/zip", data); err == nil {
		t.Fatal("expected insert failure")
	}

	if len(store.removed) != 1 {
		t.Fatalf("expected one cleanup removal, got %d", len(store.removed))
	}
	if len(store.objects) != 0 {
		t.Fatal("expected saved object removed after failed insert")
	}
}

func TestIngestRejectsEmptyInput(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "Low Risk"})

	if _, err := svc.Ingest(context.Background(), "", "report.docx", "application/zip", []byte("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty owner, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), "u1", "", "application/zip", []byte("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty file name, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), "u1", "report.docx", "application/zip", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty payload, got %v", err)
	}
}

func TestFileReturnsStoredBytes(t *testing.T) {
	repo := NewMemoryRepo(nil)
	store := newMemStore()
	svc := newTestService(repo, store, stubPredictor{label: "Low Risk"})

	data := buildReportDocx(t, wellFormedReport)
	rec, err := svc.Ingest(context.Background(), "u1", "report.docx", "application/zip", data)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	got, rc, err := svc.File(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	defer rc.Close()

	if got.FileName != "report.docx" {
		t.Fatalf("expected file name preserved, got %q", got.FileName)
	}
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !bytes.Equal(body, data) {
		t.Fatal("expected original bytes returned")
	}
}
