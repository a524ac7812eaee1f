package papers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"scholarai-backend/internal/shared/server/respond"
	"scholarai-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches paper routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/papers", h.upload)
	rg.GET("/papers", h.byDOI)
	rg.GET("/papers/:id", h.get)
	rg.GET("/papers/:id/download", h.download)
}

func (h *Handler) upload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	sourceURL := strings.TrimSpace(c.PostForm("sourceUrl"))

	paper, err := h.Svc.Upload(c.Request.Context(), file, fileHeader.Filename, fileHeader.Size, sourceURL)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrDuplicateDOI):
			respond.Error(c, http.StatusConflict, "duplicate_doi", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload paper", nil)
		}
		return
	}

	c.Set("paperId", paper.ID.String())
	respond.Created(c, toResponse(paper))
}

func (h *Handler) get(c *gin.Context) {
	id, err := ParsePaperID(c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid paper id", nil)
		return
	}

	paper, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "paper not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch paper", nil)
		}
		return
	}

	c.Set("paperId", paper.ID.String())
	respond.OK(c, toResponse(paper))
}

func (h *Handler) byDOI(c *gin.Context) {
	doi := strings.TrimSpace(c.Query("doi"))
	if doi == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "doi query parameter is required", nil)
		return
	}

	paper, found, err := h.Svc.GetByDOI(c.Request.Context(), doi)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch paper", nil)
		return
	}
	if !found {
		respond.Error(c, http.StatusNotFound, "not_found", "no paper with that doi", nil)
		return
	}

	respond.OK(c, toResponse(paper))
}

func (h *Handler) download(c *gin.Context) {
	id, err := ParsePaperID(c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid paper id", nil)
		return
	}

	content, fileName, err := h.Svc.Download(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "paper not found", nil)
		case errors.Is(err, ErrNoContent):
			respond.Error(c, http.StatusConflict, "no_content", "paper has no stored content", nil)
		case errors.Is(err, ErrStorageRead):
			respond.Error(c, http.StatusBadGateway, "storage_error", "failed to read stored content", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to download paper", nil)
		}
		return
	}
	defer content.Close()

	c.Set("paperId", id.String())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, content); err != nil {
		// Headers are already written, so log and move on.
		telemetry.Error("paper.download_stream", map[string]any{
			"paper_id": id.String(),
			"error":    err.Error(),
		})
	}
}
