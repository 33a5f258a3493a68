package handlers

import (
	"github.com/gin-gonic/gin"

	sr "stockledger/internal/domain/documents/scheduling_request"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// SchedulingRequestHandler serves delivery scheduling requests.
type SchedulingRequestHandler struct {
	*BaseHandler
	service *sr.Service
}

// NewSchedulingRequestHandler creates a new scheduling request handler.
func NewSchedulingRequestHandler(base *BaseHandler, service *sr.Service) *SchedulingRequestHandler {
	return &SchedulingRequestHandler{BaseHandler: base, service: service}
}

// Create handles POST /scheduling-requests
func (h *SchedulingRequestHandler) Create(c *gin.Context) {
	var req dto.CreateSchedulingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Scheduling request created", gin.H{"id": created.ID})
}

// List handles GET /scheduling-requests
func (h *SchedulingRequestHandler) List(c *gin.Context) {
	var q dto.SchedulingRequestListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	items, err := h.service.List(c.Request.Context(), h.OwnerID(c), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Scheduling requests retrieved", gin.H{"items": items})
}

// Get handles GET /scheduling-requests/:id
func (h *SchedulingRequestHandler) Get(c *gin.Context) {
	reqID, ok := h.PathID(c)
	if !ok {
		return
	}

	req, err := h.service.GetByID(c.Request.Context(), h.OwnerID(c), reqID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Scheduling request retrieved", gin.H{"scheduling_request": req})
}

// Approve handles POST /scheduling-requests/:id/approve
func (h *SchedulingRequestHandler) Approve(c *gin.Context) {
	reqID, ok := h.PathID(c)
	if !ok {
		return
	}

	ownerID := h.OwnerID(c)
	req, err := h.service.Approve(c.Request.Context(), ownerID, reqID, ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Scheduling request approved", gin.H{"delivery_order_number": req.DeliveryOrderNumber})
}

// Reject handles POST /scheduling-requests/:id/reject
func (h *SchedulingRequestHandler) Reject(c *gin.Context) {
	reqID, ok := h.PathID(c)
	if !ok {
		return
	}
	var body dto.RejectRequest
	if !h.BindJSON(c, &body) {
		return
	}

	req, err := h.service.Reject(c.Request.Context(), h.OwnerID(c), reqID, body.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Scheduling request rejected", gin.H{"status": req.Status})
}
