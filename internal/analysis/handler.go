package analysis

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarai-backend/internal/papers"
	"scholarai-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/papers/:id/analyze", h.analyze)
	rg.GET("/papers/:id/analysis", h.get)
}

func (h *Handler) analyze(c *gin.Context) {
	id, err := papers.ParsePaperID(c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid paper id", nil)
		return
	}

	result, err := h.Svc.Analyze(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, papers.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "paper not found", nil)
		case errors.Is(err, ErrNoContent):
			respond.Error(c, http.StatusConflict, "no_content", "paper has no analyzable content", nil)
		case errors.Is(err, ErrAlreadyClaimed):
			respond.Error(c, http.StatusConflict, "already_claimed", "paper is not pending analysis", nil)
		case errors.Is(err, ErrConsistency):
			respond.Error(c, http.StatusUnprocessableEntity, "inconsistent_result", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "analysis failed", nil)
		}
		return
	}

	c.Set("paperId", id.String())
	respond.Created(c, toResponse(result))
}

func (h *Handler) get(c *gin.Context) {
	id, err := papers.ParsePaperID(c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid paper id", nil)
		return
	}

	result, err := h.Svc.GetForPaper(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no analysis for paper", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	c.Set("paperId", id.String())
	respond.OK(c, toResponse(result))
}
