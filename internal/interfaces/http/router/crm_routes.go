package router

import (
	"github.com/gin-gonic/gin"
	"github.com/leadpipe/backend/internal/interfaces/http/handler"
)

// CRMRoutes wires the lead pipeline endpoints
type CRMRoutes struct {
	leadHandler  *handler.LeadHandler
	saleHandler  *handler.SaleHandler
	agentHandler *handler.AgentHandler
}

// NewCRMRoutes creates the CRM route registrar
func NewCRMRoutes(leadHandler *handler.LeadHandler, saleHandler *handler.SaleHandler, agentHandler *handler.AgentHandler) *CRMRoutes {
	return &CRMRoutes{
		leadHandler:  leadHandler,
		saleHandler:  saleHandler,
		agentHandler: agentHandler,
	}
}

// RegisterRoutes implements RouteRegistrar
func (r *CRMRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	crm := rg.Group("/crm")

	leads := crm.Group("/leads")
	{
		leads.POST("", r.leadHandler.Create)
		leads.GET("", r.leadHandler.List)
		// Static paths before the :id wildcard
		leads.GET("/overdue", r.leadHandler.Overdue)
		leads.GET("/stale", r.leadHandler.Stale)
		leads.GET("/:id", r.leadHandler.GetByID)
		leads.PUT("/:id", r.leadHandler.Update)
		leads.DELETE("/:id", r.leadHandler.Delete)
		leads.POST("/:id/transition", r.leadHandler.Transition)
		leads.POST("/:id/rollback", r.leadHandler.Rollback)
		leads.POST("/:id/analysis", r.leadHandler.RecordAnalysis)
		leads.POST("/:id/analyze", r.leadHandler.Analyze)
		leads.POST("/:id/messages", r.leadHandler.IncrementMessages)
		leads.POST("/:id/nurture", r.leadHandler.Nurture)
		leads.GET("/:id/history", r.leadHandler.History)
		leads.POST("/:id/transfer", r.saleHandler.Transfer)
		leads.GET("/:id/sale", r.saleHandler.GetByLead)
		leads.POST("/:id/assign", r.agentHandler.Assign)
		leads.POST("/:id/unassign", r.agentHandler.Unassign)
		leads.POST("/:id/auto-assign", r.agentHandler.AutoAssign)
	}

	sales := crm.Group("/sales")
	{
		sales.GET("", r.saleHandler.List)
		sales.GET("/:id", r.saleHandler.GetByID)
		sales.POST("/:id/transition", r.saleHandler.Advance)
		sales.GET("/:id/history", r.saleHandler.History)
	}

	agents := crm.Group("/agents")
	{
		agents.POST("", r.agentHandler.Create)
		agents.GET("", r.agentHandler.List)
		agents.GET("/:id", r.agentHandler.GetByID)
		agents.PUT("/:id", r.agentHandler.Update)
	}
}
