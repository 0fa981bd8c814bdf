package riskrecords

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"labrisk-backend/internal/extract"
	"labrisk-backend/internal/features"
	"labrisk-backend/internal/predict"
	"labrisk-backend/internal/shared/auth"
	"labrisk-backend/internal/shared/server/middleware"
	"labrisk-backend/internal/shared/server/respond"
)

const maxUploadBytes = 10 << 20

// Handler exposes the risk-record routes.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP handler for risk records.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the risk-record routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/risk-records", middleware.RequireRole(auth.RoleUser), h.upload)
	rg.GET("/risk-records/history", middleware.RequireRole(auth.RoleUser), h.history)
	rg.GET("/risk-records", middleware.RequireRole(auth.RoleAdmin), h.listAll)
	rg.PATCH("/risk-records/:id/status", middleware.RequireRole(auth.RoleAdmin), h.setStatus)
	rg.GET("/risk-records/:id/file", h.download)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}

	rec, err := h.service.Ingest(c.Request.Context(), userID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set("recordId", rec.ID)
	respond.JSON(c, http.StatusCreated, rec)
}

func (h *Handler) history(c *gin.Context) {
	records, err := h.service.History(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, recordListResponse{Records: records})
}

func (h *Handler) listAll(c *gin.Context) {
	records, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, adminListResponse{Records: records})
}

func (h *Handler) setStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status is required", nil)
		return
	}

	status, err := ParseStatus(req.Status)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", fmt.Sprintf("unknown status %q", req.Status), nil)
		return
	}

	rec, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set("recordId", rec.ID)
	respond.OK(c, rec)
}

func (h *Handler) download(c *gin.Context) {
	rec, rc, err := h.service.File(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	c.Set("recordId", rec.ID)
	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", rec.FileName),
	}
	c.DataFromReader(http.StatusOK, rec.SizeBytes, rec.MimeType, rc, extraHeaders)
}

// writeError maps pipeline and workflow failures onto the error envelope.
// Unexpected failures stay generic so internals never leak.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extract.ErrUnreadable):
		respond.Error(c, http.StatusBadRequest, "file_unreadable", "could not extract text from document", nil)
	case errors.Is(err, features.ErrNoMatch):
		respond.Error(c, http.StatusBadRequest, "data_not_found", "required health data not found in document", nil)
	case errors.Is(err, predict.ErrUnavailable):
		respond.Error(c, http.StatusBadGateway, "prediction_failed", "risk prediction service unavailable", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "risk record not found", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", "status can no longer be changed", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}
