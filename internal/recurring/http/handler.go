package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/court-booking-scheduler/internal/auth"
	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/response"
	"github.com/nekogravitycat/court-booking-scheduler/internal/recurring"
)

type Handler struct {
	service recurring.Service
}

func NewHandler(service recurring.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req, err := body.ToCreateRequest(auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	snap, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewSessionResponse(snap))
}

// Get returns the session. With ?wait=true it holds the request until the
// pending availability check lands, or DefaultWait passes.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var q GetSessionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	wait := DefaultWait
	if !q.Wait {
		wait = 0
	}

	snap, err := h.service.Get(c.Request.Context(), uri.ID, auth.GetUserID(c), wait)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSessionResponse(snap))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var body UpdateSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	edit, err := body.ToEdit()
	if err != nil {
		response.Error(c, err)
		return
	}

	snap, err := h.service.Update(c.Request.Context(), uri.ID, auth.GetUserID(c), edit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSessionResponse(snap))
}

func (h *Handler) SetResolution(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var body ResolutionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	snap, err := h.service.SetResolutionMode(c.Request.Context(), uri.ID, auth.GetUserID(c), recurring.ResolutionMode(body.Mode))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSessionResponse(snap))
}

func (h *Handler) Recheck(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	snap, err := h.service.Recheck(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, NewSessionResponse(snap))
}

func (h *Handler) Plan(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	plan, err := h.service.Plan(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPlanResponse(plan))
}

// Submit books the planned dates. 201 when every item was created, 207 when
// some failed.
func (h *Handler) Submit(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}
	var body SubmitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	summary, err := h.service.Submit(c.Request.Context(), recurring.SubmitRequest{
		SessionID: uri.ID,
		Identity:  body.Identity(auth.GetUserID(c)),
		Notes:     body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if summary.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, NewSubmitResponse(summary))
}

func (h *Handler) Close(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid UUID", err)
		return
	}

	if err := h.service.Close(c.Request.Context(), uri.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
