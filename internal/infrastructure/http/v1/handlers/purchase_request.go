package handlers

import (
	"github.com/gin-gonic/gin"

	pr "stockledger/internal/domain/documents/purchase_request"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// PurchaseRequestHandler serves the purchase request lifecycle.
type PurchaseRequestHandler struct {
	*BaseHandler
	service *pr.Service
}

// NewPurchaseRequestHandler creates a new purchase request handler.
func NewPurchaseRequestHandler(base *BaseHandler, service *pr.Service) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{BaseHandler: base, service: service}
}

// Create handles POST /purchase-requests
func (h *PurchaseRequestHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
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
	h.Message(c, "Purchase request created", gin.H{
		"id":   created.ID,
		"code": created.Code,
	})
}

// List handles GET /purchase-requests
func (h *PurchaseRequestHandler) List(c *gin.Context) {
	var q dto.PurchaseRequestListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), h.OwnerID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Purchase requests retrieved", gin.H{"items": items})
}

// Get handles GET /purchase-requests/:id
func (h *PurchaseRequestHandler) Get(c *gin.Context) {
	reqID, ok := h.PathID(c)
	if !ok {
		return
	}

	req, err := h.service.GetByID(c.Request.Context(), h.OwnerID(c), reqID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Purchase request retrieved", gin.H{"purchase_request": req})
}

// Approve handles POST /purchase-requests/:id/approve
func (h *PurchaseRequestHandler) Approve(c *gin.Context) {
	reqID, ok := h.PathID(c)
	if !ok {
		return
	}

	req, err := h.service.Approve(c.Request.Context(), h.OwnerID(c), reqID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Purchase request approved", gin.H{"status": req.Status})
}

// Reject handles POST /purchase-requests/:id/reject
func (h *PurchaseRequestHandler) Reject(c *gin.Context) {
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
	h.Message(c, "Purchase request rejected", gin.H{"status": req.Status})
}

// AttachDocument handles POST /purchase-requests/:id/document
func (h *PurchaseRequestHandler) AttachDocument(c *gin.Context) {
	reqID, ok := h.PathID(c)
	if !ok {
		return
	}
	var body dto.AttachDocumentRequest
	if !h.BindJSON(c, &body) {
		return
	}

	req, err := h.service.AttachDocument(c.Request.Context(), h.OwnerID(c), reqID, body.DocumentURL)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Document attached", gin.H{"status": req.Status})
}

// Close handles POST /purchase-requests/close
func (h *PurchaseRequestHandler) Close(c *gin.Context) {
	var req dto.ClosePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.Close(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Purchase request closed and stock received", gin.H{
		"code":      res.Request.Code,
		"new_stock": res.NewStock,
	})
}
