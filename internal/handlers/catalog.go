package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/platebook-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/catalog/search?q=&limit=
func (h *CatalogHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	results, err := h.catalog.Search(c.Request.Context(), query, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "search_failed", err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

// POST /api/catalog/entries
func (h *CatalogHandler) CreateEntry(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req struct {
		Name     string     `json:"name"`
		ParentID *uuid.UUID `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	entry, err := h.catalog.CreateStub(c.Request.Context(), req.Name, req.ParentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCatalogNameRequired):
			RespondError(c, http.StatusBadRequest, "name_required", err)
		case errors.Is(err, services.ErrCatalogNameTaken):
			RespondError(c, http.StatusConflict, "catalog_name_taken", err)
		case errors.Is(err, services.ErrCatalogEntryNotFound):
			RespondError(c, http.StatusNotFound, "parent_not_found", err)
		default:
			RespondError(c, http.StatusInternalServerError, "create_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"entry": entry})
}
