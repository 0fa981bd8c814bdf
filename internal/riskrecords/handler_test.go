package riskrecords

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"labrisk-backend/internal/predict"
	"labrisk-backend/internal/shared/auth"
	"labrisk-backend/internal/shared/server/middleware"
	"labrisk-backend/internal/shared/server/respond"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.Sign(userID, userID+"@example.com", "Test User", auth.RoleUser)
	if err != nil {
		t.Fatalf("sign user token: %v", err)
	}
	return token
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.Sign("admin-1", "admin@example.com", "Admin", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("sign admin token: %v", err)
	}
	return token
}

func multipartUpload(t *testing.T, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, router *gin.Engine, token, fileName, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, bodyType := multipartUpload(t, fileName, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk-records", body)
	req.Header.Set("Content-Type", bodyType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp respond.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, w.Body.String())
	}
	return resp.Error.Code
}

func TestUploadCreatesPendingRecord(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "High Risk"})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, "Lab Report", wellFormedReport)
	w := doUpload(t, router, userToken(t, "u1"), "report.docx", "application/zip", data)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var rec RiskRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Status != StatusPending {
		t.Fatalf("expected Pending, got %s", rec.Status)
	}
	if rec.RiskLabel != "High Risk" {
		t.Fatalf("expected risk label, got %q", rec.RiskLabel)
	}
	if rec.Features.Age != 33 {
		t.Fatalf("expected parsed features in response, got %+v", rec.Features)
	}
	if strings.Contains(w.Body.String(), "storage") {
		t.Fatalf("storage key must not leak into response: %s", w.Body.String())
	}
}

func TestUploadRejectsNonUserRole(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "High Risk"})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, wellFormedReport)
	w := doUpload(t, router, adminToken(t), "report.docx", "application/zip", data)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "forbidden" {
		t.Fatalf("expected forbidden, got %q", code)
	}
}

func TestUploadRequiresToken(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "High Risk"})
	router := newTestRouter(t, svc)

	body, bodyType := multipartUpload(t, "report.docx", "application/zip", buildReportDocx(t, wellFormedReport))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk-records", body)
	req.Header.Set("Content-Type", bodyType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUploadUnreadableDocument(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "High Risk"})
	router := newTestRouter(t, svc)

	w := doUpload(t, router, userToken(t, "u1"), "report.pdf", "application/pdf", []byte("not a pdf"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "file_unreadable" {
		t.Fatalf("expected file_unreadable, got %q", code)
	}
}

func TestUploadMissingClinicalFields(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "High Risk"})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, "A perfectly readable report with no measurements")
	w := doUpload(t, router, userToken(t, "u1"), "report.docx", "application/zip", data)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "data_not_found" {
		t.Fatalf("expected data_not_found, got %q", code)
	}
}

func TestUploadPredictionUnavailable(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{err: fmt.Errorf("%w: down", predict.ErrUnavailable)})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, wellFormedReport)
	w := doUpload(t, router, userToken(t, "u1"), "report.docx", "application/zip", data)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "prediction_failed" {
		t.Fatalf("expected prediction_failed, got %q", code)
	}
}

func TestHistoryReturnsOwnRecords(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "Low Risk"})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, wellFormedReport)
	if w := doUpload(t, router, userToken(t, "u1"), "mine.docx", "application/zip", data); w.Code != http.StatusCreated {
		t.Fatalf("upload u1: %d", w.Code)
	}
	if w := doUpload(t, router, userToken(t, "u2"), "theirs.docx", "application/zip", data); w.Code != http.StatusCreated {
		t.Fatalf("upload u2: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/risk-records/history", nil)
	req.Header.Set("Authorization", "Bearer "+userToken(t, "u1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp recordListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].FileName != "mine.docx" {
		t.Fatalf("expected only own record, got %+v", resp.Records)
	}
}

func TestAdminListAttachesOwner(t *testing.T) {
	dir := &stubDirectory{owners: map[string]Owner{
		"u1": {Name: "Ada Mensah", Email: "ada@example.com"},
	}}
	svc := newTestService(NewMemoryRepo(dir), newMemStore(), stubPredictor{label: "Low Risk"})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, wellFormedReport)
	if w := doUpload(t, router, userToken(t, "u1"), "report.docx", "application/zip", data); w.Code != http.StatusCreated {
		t.Fatalf("upload: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/risk-records", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp adminListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].OwnerName != "Ada Mensah" {
		t.Fatalf("expected owner attached, got %+v", resp.Records)
	}
}

func TestAdminListForbiddenForUser(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "Low Risk"})
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/risk-records", nil)
	req.Header.Set("Authorization", "Bearer "+userToken(t, "u1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func patchStatus(t *testing.T, router *gin.Engine, token, id, status string) *httptest.ResponseRecorder {
	t.Helper()
	body := bytes.NewBufferString(fmt.Sprintf(`{"status":%q}`, status))
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk-records/"+id+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStatusUpdateWorkflow(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "High Risk"})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, wellFormedReport)
	w := doUpload(t, router, userToken(t, "u1"), "report.docx", "application/zip", data)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d", w.Code)
	}
	var rec RiskRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}

	// user cannot change status
	if w := patchStatus(t, router, userToken(t, "u1"), rec.ID, "Cleared"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user, got %d", w.Code)
	}

	w = patchStatus(t, router, adminToken(t), rec.ID, "Cleared")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated RiskRecord
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Status != StatusCleared {
		t.Fatalf("expected Cleared, got %s", updated.Status)
	}

	w = patchStatus(t, router, adminToken(t), rec.ID, "Referred")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", code)
	}

	// re-setting the same terminal value is an accepted no-op
	w = patchStatus(t, router, adminToken(t), rec.ID, "Cleared")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for same-value no-op, got %d", w.Code)
	}

	if w := patchStatus(t, router, adminToken(t), rec.ID, "Approved"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
	if w := patchStatus(t, router, adminToken(t), "missing", "Cleared"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing record, got %d", w.Code)
	}
}

func TestDownloadAnyAuthenticatedIdentity(t *testing.T) {
	svc := newTestService(NewMemoryRepo(nil), newMemStore(), stubPredictor{label: "Low Risk"})
	router := newTestRouter(t, svc)

	data := buildReportDocx(t, wellFormedReport)
	w := doUpload(t, router, userToken(t, "u1"), "report.docx", "application/zip", data)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d", w.Code)
	}
	var rec RiskRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/risk-records/"+rec.ID+"/file", nil)
	req.Header.Set("Authorization", "Bearer "+userToken(t, "u2"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "report.docx") {
		t.Fatalf("expected filename in Content-Disposition, got %q", cd)
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Fatal("expected original document bytes")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/risk-records/missing/file", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing record, got %d", w.Code)
	}
}
