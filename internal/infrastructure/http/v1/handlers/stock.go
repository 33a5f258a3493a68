package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock movements, balances and the ledger.
type StockHandler struct {
	*BaseHandler
	service  *stock.Service
	products *product.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service, products *product.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		products:    products,
	}
}

// Transaction handles POST /stock/transactions
func (h *StockHandler) Transaction(c *gin.Context) {
	var req dto.TransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.ApplyTransaction(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Stock transaction recorded successfully", gin.H{"new_stock": res.NewStock})
}

// Transfer handles POST /stock/transfers
func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.Transfer(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Stock transferred successfully", gin.H{
		"from_stock": res.FromStock,
		"to_stock":   res.ToStock,
	})
}

// Adjust handles POST /stock/adjustments
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.Adjust(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	message := "Stock adjusted successfully"
	if !res.Changed {
		message = "Stock already matches the counted quantity"
	}
	h.Message(c, message, gin.H{
		"old_stock": res.OldStock,
		"new_stock": res.NewStock,
	})
}

// Inventory handles GET /stock/inventory
func (h *StockHandler) Inventory(c *gin.Context) {
	var q dto.InventoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.Inventory(c.Request.Context(), h.OwnerID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Inventory retrieved", gin.H{"items": items})
}

// Ledger handles GET /stock/ledger
func (h *StockHandler) Ledger(c *gin.Context) {
	var q dto.LedgerQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.service.Ledger(c.Request.Context(), h.OwnerID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Ledger retrieved", gin.H{
		"items":  entries,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Reconcile handles GET /stock/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	var q dto.ReconcileQuery
	if !h.BindQuery(c, &q) {
		return
	}
	productID, err := dto.ParseOptionalID("product_id", q.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.Reconcile(c.Request.Context(), h.OwnerID(c), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Reconciliation completed", gin.H{"items": items})
}

// LowStock handles GET /stock/low-stock
func (h *StockHandler) LowStock(c *gin.Context) {
	items, err := h.products.LowStock(c.Request.Context(), h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Low stock report", gin.H{"items": items})
}
