package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents/invoice"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Invoice created", gin.H{
		"id":           inv.ID,
		"number":       inv.Number,
		"total_amount": inv.TotalAmount,
	})
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var q dto.InvoiceListQuery
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
	h.Message(c, "Invoices retrieved", gin.H{"items": items})
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.PathID(c)
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), h.OwnerID(c), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Invoice retrieved", gin.H{"invoice": inv})
}
