package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/leadpipe/backend/internal/application/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
)

// AgentHandler handles agent and assignment API endpoints
type AgentHandler struct {
	BaseHandler
	assignmentService *crmapp.AssignmentService
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(assignmentService *crmapp.AssignmentService) *AgentHandler {
	return &AgentHandler{assignmentService: assignmentService}
}

// Create handles POST /crm/agents
func (h *AgentHandler) Create(c *gin.Context) {
	var req crmapp.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	agent, err := h.assignmentService.CreateAgent(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, agent)
}

// GetByID handles GET /crm/agents/:id
func (h *AgentHandler) GetByID(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	agent, err := h.assignmentService.GetAgent(c.Request.Context(), agentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, agent)
}

// List handles GET /crm/agents
func (h *AgentHandler) List(c *gin.Context) {
	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil && pageSize > 0 && pageSize <= 100 {
		filter.PageSize = pageSize
	}

	agents, err := h.assignmentService.ListAgents(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, agents)
}

// Update handles PUT /crm/agents/:id
func (h *AgentHandler) Update(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	var req crmapp.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	agent, err := h.assignmentService.UpdateAgent(c.Request.Context(), agentID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, agent)
}

// Assign handles POST /crm/leads/:id/assign
func (h *AgentHandler) Assign(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	var req crmapp.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	lead, err := h.assignmentService.Assign(c.Request.Context(), leadID, req.AgentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// Unassign handles POST /crm/leads/:id/unassign
func (h *AgentHandler) Unassign(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	lead, err := h.assignmentService.Unassign(c.Request.Context(), leadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lead)
}

// AutoAssignResponse reports the outcome of an auto-assignment attempt
type AutoAssignResponse struct {
	Assigned bool                 `json:"assigned"`
	Lead     *crmapp.LeadResponse `json:"lead,omitempty"`
}

// AutoAssign handles POST /crm/leads/:id/auto-assign. Exhausting the
// candidate pool is not an error: the lead simply stays unassigned.
func (h *AgentHandler) AutoAssign(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lead ID format")
		return
	}

	lead, err := h.assignmentService.AutoAssign(c.Request.Context(), leadID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, AutoAssignResponse{
		Assigned: lead != nil,
		Lead:     lead,
	})
}
