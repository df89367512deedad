package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/leadpipe/backend/internal/application/crm"
)

// LeadHandler handles lead pipeline API endpoints
type LeadHandler struct {
	BaseHandler
	leadService  *crmapp.LeadService
	overdueAfter time.Duration
	staleAfter   time.Duration
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService *crmapp.LeadService, overdueAfter, staleAfter time.Duration) *LeadHandler {
	return &LeadHandler{
		leadService:  leadService,
		overdueAfter: overdueAfter,
		staleAfter:   staleAfter,
	}
}

// Create handles POST /crm/leads
func (h *LeadHandler) Create(c *gin.Context) {
	var req crmapp.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	lead, err := h.leadService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, lead)
}

// GetByID handles GET /crm/leads/:id
func (h *LeadHandler) GetByID(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	lead, err := h.leadService.Get(c.Request.Context(), leadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// List handles GET /crm/leads
func (h *LeadHandler) List(c *gin.Context) {
	var filter crmapp.LeadListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	leads, total, err := h.leadService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, leads, total, filter.Page, filter.PageSize)
}

// Update handles PUT /crm/leads/:id
func (h *LeadHandler) Update(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	lead, err := h.leadService.Update(c.Request.Context(), leadID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// Transition handles POST /crm/leads/:id/transition
func (h *LeadHandler) Transition(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.TransitionLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ChangedBy = getChangedBy(c, req.ChangedBy)

	lead, err := h.leadService.Transition(c.Request.Context(), leadID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// Rollback handles POST /crm/leads/:id/rollback
func (h *LeadHandler) Rollback(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.RollbackLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ChangedBy = getChangedBy(c, req.ChangedBy)

	lead, err := h.leadService.Rollback(c.Request.Context(), leadID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// RecordAnalysis handles POST /crm/leads/:id/analysis
func (h *LeadHandler) RecordAnalysis(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.RecordAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	lead, err := h.leadService.RecordAnalysis(c.Request.Context(), leadID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// Analyze handles POST /crm/leads/:id/analyze
func (h *LeadHandler) Analyze(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	lead, err := h.leadService.Analyze(c.Request.Context(), leadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// IncrementMessages handles POST /crm/leads/:id/messages
func (h *LeadHandler) IncrementMessages(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.IncrementMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	lead, err := h.leadService.IncrementMessages(c.Request.Context(), leadID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// Nurture handles POST /crm/leads/:id/nurture
func (h *LeadHandler) Nurture(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.NurtureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ChangedBy = getChangedBy(c, req.ChangedBy)

	if err := h.leadService.Nurture(c.Request.Context(), leadID, req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete handles DELETE /crm/leads/:id
func (h *LeadHandler) Delete(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	if err := h.leadService.SoftDelete(c.Request.Context(), leadID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// History handles GET /crm/leads/:id/history
func (h *LeadHandler) History(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	records, err := h.leadService.History(c.Request.Context(), leadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, records)
}

// Overdue handles GET /crm/leads/overdue
func (h *LeadHandler) Overdue(c *gin.Context) {
	leads, err := h.leadService.OverdueUnassigned(c.Request.Context(), h.overdueAfter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, leads)
}

// Stale handles GET /crm/leads/stale
func (h *LeadHandler) Stale(c *gin.Context) {
	leads, err := h.leadService.Stale(c.Request.Context(), h.staleAfter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, leads)
}
