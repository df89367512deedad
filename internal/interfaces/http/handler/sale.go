package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/leadpipe/backend/internal/application/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// SaleHandler handles transfer and sale pipeline API endpoints
type SaleHandler struct {
	BaseHandler
	transferService *crmapp.TransferService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(transferService *crmapp.TransferService) *SaleHandler {
	return &SaleHandler{transferService: transferService}
}

// Transfer handles POST /crm/leads/:id/transfer. On success the lead is
// terminal and a sale exists, both from the same transaction.
func (h *SaleHandler) Transfer(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.TransferLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ChangedBy = getChangedBy(c, req.ChangedBy)

	result, err := h.transferService.Transfer(c.Request.Context(), leadID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID handles GET /crm/sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	sale, err := h.transferService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// GetByLead handles GET /crm/leads/:id/sale
func (h *SaleHandler) GetByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	sale, err := h.transferService.GetSaleByLead(c.Request.Context(), leadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// List handles GET /crm/sales
func (h *SaleHandler) List(c *gin.Context) {
	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil && pageSize > 0 && pageSize <= 100 {
		filter.PageSize = pageSize
	}
	if stage := c.Query("stage"); stage != "" {
		filter.Filters["stage"] = stage
	}

	sales, total, err := h.transferService.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, sales, total, filter.Page, filter.PageSize)
}

// Advance handles POST /crm/sales/:id/transition
func (h *SaleHandler) Advance(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req crmapp.AdvanceSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ChangedBy = getChangedBy(c, req.ChangedBy)

	sale, err := h.transferService.AdvanceSale(c.Request.Context(), saleID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// History handles GET /crm/sales/:id/history
func (h *SaleHandler) History(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	records, err := h.transferService.SaleHistory(c.Request.Context(), saleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, records)
}
