package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/platebook-backend/internal/platform/ctxutil"
	"github.com/yungbote/platebook-backend/internal/services"
)

type SessionHandler struct {
	flows  *services.FlowService
	images services.ImageService
}

func NewSessionHandler(flows *services.FlowService, images services.ImageService) *SessionHandler {
	return &SessionHandler{flows: flows, images: images}
}

func requestUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusForbidden, "forbidden", errors.New("no authenticated user"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func (h *SessionHandler) flow(c *gin.Context) (*services.GuidedFlow, bool) {
	userID, ok := requestUser(c)
	if !ok {
		return nil, false
	}
	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return nil, false
	}
	flow, err := h.flows.Get(flowID, userID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "session_not_found", err)
		return nil, false
	}
	return flow, true
}

// respondFlow writes a view, translating the shared flow errors.
func (h *SessionHandler) respondFlow(c *gin.Context, view services.FlowView, err error) {
	if err == nil {
		RespondOK(c, gin.H{"session": view})
		return
	}
	var stepErr *services.StepValidationError
	switch {
	case errors.As(err, &stepErr):
		RespondFieldErrors(c, "step_invalid", stepErr.Fields, gin.H{
			"step":    stepErr.Step,
			"session": view,
		})
	case errors.Is(err, services.ErrFlowClosed):
		RespondError(c, http.StatusConflict, "session_closed", err)
	case errors.Is(err, services.ErrStepNotSkippable):
		RespondError(c, http.StatusBadRequest, "step_required", err)
	case errors.Is(err, services.ErrStepUnknown):
		RespondError(c, http.StatusBadRequest, "unknown_step", err)
	case errors.Is(err, services.ErrStepNotVisited):
		RespondError(c, http.StatusBadRequest, "step_not_visited", err)
	case errors.Is(err, services.ErrDishNotFound):
		RespondError(c, http.StatusNotFound, "dish_not_found", err)
	case errors.Is(err, services.ErrRemovalNeedsConfirm):
		RespondError(c, http.StatusConflict, "confirm_required", err)
	case errors.Is(err, services.ErrDishRatingOutOfRange):
		RespondError(c, http.StatusBadRequest, "dish_rating_out_of_range", err)
	case errors.Is(err, services.ErrCatalogEntryNotFound):
		RespondError(c, http.StatusNotFound, "catalog_entry_not_found", err)
	case errors.Is(err, services.ErrCatalogNameTaken):
		RespondError(c, http.StatusConflict, "catalog_name_taken", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

// POST /api/session/open
func (h *SessionHandler) Open(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	res, err := h.flows.Open(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "open_failed", err)
		return
	}
	if res.Prompt != nil {
		RespondOK(c, gin.H{"resume": res.Prompt})
		return
	}
	RespondOK(c, gin.H{"session": res.Flow.View()})
}

// POST /api/session/:id/resume — :id is the draft being answered.
func (h *SessionHandler) Resume(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_draft_id", err)
		return
	}
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	flow, err := h.flows.Resume(c.Request.Context(), userID, draftID, req.Accept)
	if err != nil && !errors.Is(err, services.ErrDraftGone) {
		RespondError(c, http.StatusInternalServerError, "resume_failed", err)
		return
	}
	body := gin.H{"session": flow.View()}
	if errors.Is(err, services.ErrDraftGone) {
		body["draftGone"] = true
	}
	RespondOK(c, body)
}

// GET /api/session/:id
func (h *SessionHandler) View(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	RespondOK(c, gin.H{"session": flow.View()})
}

// POST /api/session/:id/step
func (h *SessionHandler) PatchStep(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	var req struct {
		Fields services.StepFields `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := flow.PatchFields(req.Fields)
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/next
func (h *SessionHandler) Next(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	view, err := flow.GoNext(c.Request.Context())
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/back
func (h *SessionHandler) Back(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	view, err := flow.GoBack(c.Request.Context())
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/skip
func (h *SessionHandler) Skip(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	view, err := flow.Skip(c.Request.Context())
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/goto
func (h *SessionHandler) Goto(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	var req struct {
		Step services.StepID `json:"step"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := flow.GoToStep(c.Request.Context(), req.Step)
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/save
func (h *SessionHandler) Save(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	view, err := flow.Save(c.Request.Context())
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/dishes
func (h *SessionHandler) AddDish(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	dish, view, err := flow.AddDish()
	if err != nil {
		h.respondFlow(c, view, err)
		return
	}
	RespondOK(c, gin.H{"dish": dish, "session": view})
}

// PATCH /api/session/:id/dishes/:localId
func (h *SessionHandler) UpdateDish(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	localID, err := uuid.Parse(c.Param("localId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dish_id", err)
		return
	}
	var req struct {
		Name   string `json:"name"`
		Rating int    `json:"rating"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := flow.UpdateDish(localID, req.Name, req.Rating, req.Notes)
	h.respondFlow(c, view, err)
}

// DELETE /api/session/:id/dishes/:localId
func (h *SessionHandler) RemoveDish(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	localID, err := uuid.Parse(c.Param("localId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dish_id", err)
		return
	}
	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	// Body is optional for rows with no content.
	_ = c.ShouldBindJSON(&req)
	view, err := flow.RemoveDish(localID, req.Confirmed)
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/dishes/:localId/move
func (h *SessionHandler) MoveDish(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	localID, err := uuid.Parse(c.Param("localId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dish_id", err)
		return
	}
	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Direction != "up" && req.Direction != "down" {
		RespondError(c, http.StatusBadRequest, "invalid_direction", errors.New("direction must be up or down"))
		return
	}
	view, err := flow.MoveDish(localID, req.Direction == "up")
	h.respondFlow(c, view, err)
}

// PUT /api/session/:id/dishes/:localId/link
func (h *SessionHandler) LinkDish(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	localID, err := uuid.Parse(c.Param("localId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dish_id", err)
		return
	}
	var req struct {
		EntryID *uuid.UUID `json:"entryId"`
		// CreateName mints a placeholder entry and links it; CreateParentID
		// optionally files the stub under an existing entry.
		CreateName     string     `json:"createName"`
		CreateParentID *uuid.UUID `json:"createParentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	var view services.FlowView
	switch {
	case req.CreateName != "":
		view, err = flow.CreateAndLinkStub(c.Request.Context(), localID, req.CreateName, req.CreateParentID)
	case req.EntryID != nil && *req.EntryID != uuid.Nil:
		view, err = flow.LinkDish(c.Request.Context(), localID, *req.EntryID)
	default:
		view, err = flow.UnlinkDish(localID)
	}
	h.respondFlow(c, view, err)
}

// POST /api/session/:id/dishes/:localId/image
func (h *SessionHandler) UploadDishImage(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	localID, err := uuid.Parse(c.Param("localId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dish_id", err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_image", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_image", err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	rec, err := h.images.Upload(c.Request.Context(), flow.UserID, contentType, fileHeader.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageTypeNotAllowed):
			RespondError(c, http.StatusUnsupportedMediaType, "image_type_not_allowed", err)
		case errors.Is(err, services.ErrImageTooLarge):
			RespondError(c, http.StatusRequestEntityTooLarge, "image_too_large", err)
		case errors.Is(err, services.ErrImageStorageDown):
			RespondError(c, http.StatusServiceUnavailable, "image_storage_unavailable", err)
		default:
			RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		}
		return
	}

	view, err := flow.AttachImage(localID, services.ImageRef{
		RecordID:    rec.ID,
		URL:         rec.URL,
		ContentType: rec.ContentType,
	})
	if err != nil {
		h.respondFlow(c, view, err)
		return
	}
	RespondOK(c, gin.H{"image": rec, "session": view})
}

// POST /api/session/:id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	review, view, err := flow.Submit(c.Request.Context())
	if err != nil {
		var subErr *services.SubmissionError
		if errors.As(err, &subErr) {
			RespondFieldErrors(c, "submission_invalid", subErr.Fields, gin.H{
				"steps":   subErr.ByStep(),
				"session": view,
			})
			return
		}
		h.respondFlow(c, view, err)
		return
	}
	h.flows.Remove(flow.ID)
	RespondOK(c, gin.H{"review": review})
}

// POST /api/session/:id/close
func (h *SessionHandler) Close(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req struct {
		Discard bool `json:"discard"`
	}
	_ = c.ShouldBindJSON(&req)
	if err := h.flows.Close(c.Request.Context(), flowID, userID, req.Discard); err != nil {
		if errors.Is(err, services.ErrFlowNotFound) {
			RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "close_failed", err)
		return
	}
	RespondOK(c, gin.H{"closed": true})
}
