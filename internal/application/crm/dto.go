package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// ==================== Lead DTOs ====================

// CreateLeadRequest represents a request to create a lead
type CreateLeadRequest struct {
	Source         string `json:"source" binding:"required,oneof=SCANNER PARTNER MANUAL"`
	FullName       string `json:"full_name" binding:"omitempty,max=200"`
	Phone          string `json:"phone" binding:"omitempty,max=32"`
	Email          string `json:"email" binding:"omitempty,email,max=200"`
	ExternalHandle string `json:"external_handle" binding:"omitempty,max=100"`
	BusinessDomain string `json:"business_domain" binding:"omitempty,oneof=FIRST SECOND THIRD"`
}

// UpdateLeadRequest represents a request to update lead contact data
type UpdateLeadRequest struct {
	FullName       *string `json:"full_name" binding:"omitempty,max=200"`
	Phone          *string `json:"phone" binding:"omitempty,max=32"`
	Email          *string `json:"email" binding:"omitempty,email,max=200"`
	ExternalHandle *string `json:"external_handle" binding:"omitempty,max=100"`
	BusinessDomain *string `json:"business_domain" binding:"omitempty,oneof=FIRST SECOND THIRD"`
}

// TransitionLeadRequest represents a request to move a lead forward
type TransitionLeadRequest struct {
	TargetStage string  `json:"target_stage" binding:"required"`
	LostReason  *string `json:"lost_reason"`
	ChangedBy   string  `json:"changed_by"`
}

// RollbackLeadRequest represents a request to reverse the last forward step
type RollbackLeadRequest struct {
	Reason    string `json:"reason" binding:"required"`
	ChangedBy string `json:"changed_by"`
}

// RecordAnalysisRequest represents a manually supplied advisory result
type RecordAnalysisRequest struct {
	Score          float64 `json:"score" binding:"min=0,max=1"`
	Recommendation string  `json:"recommendation" binding:"required,oneof=transfer_to_sales continue_nurturing lost"`
	Reason         string  `json:"reason" binding:"omitempty,max=1000"`
}

// IncrementMessagesRequest represents an activity counter update
type IncrementMessagesRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

// NurtureLeadRequest represents an automated touch that leaves the stage unchanged
type NurtureLeadRequest struct {
	Note      string `json:"note" binding:"required,min=1,max=500"`
	ChangedBy string `json:"changed_by"`
}

// LeadListFilter represents filter options for the lead list
type LeadListFilter struct {
	Search        string     `form:"search"`
	Stage         *string    `form:"stage"`
	Source        *string    `form:"source"`
	AssignedAgent *uuid.UUID `form:"assigned_agent"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LeadResponse represents a lead in API responses
type LeadResponse struct {
	ID               uuid.UUID  `json:"id"`
	Source           string     `json:"source"`
	Stage            string     `json:"stage"`
	FullName         string     `json:"full_name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	ExternalHandle   string     `json:"external_handle,omitempty"`
	BusinessDomain   string     `json:"business_domain,omitempty"`
	LostReason       *string    `json:"lost_reason,omitempty"`
	AssignedAgent    *uuid.UUID `json:"assigned_agent,omitempty"`
	MessageCount     int        `json:"message_count"`
	AIScore          *float64   `json:"ai_score,omitempty"`
	AIRecommendation string     `json:"ai_recommendation,omitempty"`
	AIReason         string     `json:"ai_reason,omitempty"`
	AIAnalyzedAt     *time.Time `json:"ai_analyzed_at,omitempty"`
	QualityTier      *string    `json:"quality_tier,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int        `json:"version"`
}

// ToLeadResponse converts a domain lead to a response DTO
func ToLeadResponse(lead *crm.Lead) LeadResponse {
	resp := LeadResponse{
		ID:               lead.ID,
		Source:           string(lead.Source),
		Stage:            string(lead.Stage),
		FullName:         lead.FullName,
		Phone:            lead.Phone,
		Email:            lead.Email,
		ExternalHandle:   lead.ExternalHandle,
		BusinessDomain:   string(lead.BusinessDomain),
		AssignedAgent:    lead.AssignedAgent,
		MessageCount:     lead.MessageCount,
		AIScore:          lead.AIScore,
		AIRecommendation: string(lead.AIRecommendation),
		AIReason:         lead.AIReason,
		AIAnalyzedAt:     lead.AIAnalyzedAt,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
		Version:          lead.Version,
	}
	if lead.LostReason != nil {
		reason := string(*lead.LostReason)
		resp.LostReason = &reason
	}
	if tier := lead.QualityTier(); tier != nil {
		t := string(*tier)
		resp.QualityTier = &t
	}
	return resp
}

// ToLeadResponses converts a slice of domain leads to response DTOs
func ToLeadResponses(leads []crm.Lead) []LeadResponse {
	responses := make([]LeadResponse, len(leads))
	for i := range leads {
		responses[i] = ToLeadResponse(&leads[i])
	}
	return responses
}

// ==================== Transfer / Sale DTOs ====================

// TransferLeadRequest represents a request to hand a lead to the sales team
type TransferLeadRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	ChangedBy string           `json:"changed_by"`
}

// AdvanceSaleRequest represents a request to move a sale forward
type AdvanceSaleRequest struct {
	TargetStage string           `json:"target_stage" binding:"required"`
	Amount      *decimal.Decimal `json:"amount"`
	ChangedBy   string           `json:"changed_by"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID        uuid.UUID        `json:"id"`
	LeadID    uuid.UUID        `json:"lead_id"`
	Stage     string           `json:"stage"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Version   int              `json:"version"`
}

// ToSaleResponse converts a domain sale to a response DTO
func ToSaleResponse(sale *crm.Sale) SaleResponse {
	return SaleResponse{
		ID:        sale.ID,
		LeadID:    sale.LeadID,
		Stage:     string(sale.Stage),
		Amount:    sale.Amount,
		Notes:     sale.Notes,
		CreatedAt: sale.CreatedAt,
		UpdatedAt: sale.UpdatedAt,
		Version:   sale.Version,
	}
}

// TransferResponse represents the outcome of a successful transfer
type TransferResponse struct {
	Lead LeadResponse `json:"lead"`
	Sale SaleResponse `json:"sale"`
}

// ==================== Agent / Assignment DTOs ====================

// CreateAgentRequest represents a request to register an agent
type CreateAgentRequest struct {
	Name     string   `json:"name" binding:"required,min=1,max=200"`
	Email    string   `json:"email" binding:"omitempty,email,max=200"`
	MaxLeads int      `json:"max_leads" binding:"required,min=1"`
	Domains  []string `json:"domains" binding:"omitempty,dive,oneof=FIRST SECOND THIRD"`
}

// UpdateAgentRequest represents a request to update an agent
type UpdateAgentRequest struct {
	Active   *bool    `json:"active"`
	MaxLeads *int     `json:"max_leads" binding:"omitempty,min=1"`
	Domains  []string `json:"domains" binding:"omitempty,dive,oneof=FIRST SECOND THIRD"`
}

// AssignLeadRequest represents a manual assignment request
type AssignLeadRequest struct {
	AgentID uuid.UUID `json:"agent_id" binding:"required"`
}

// AgentResponse represents an agent in API responses
type AgentResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Active       bool      `json:"active"`
	MaxLeads     int       `json:"max_leads"`
	CurrentLeads int       `json:"current_leads"`
	Domains      []string  `json:"domains"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToAgentResponse converts a domain agent to a response DTO
func ToAgentResponse(agent *crm.Agent) AgentResponse {
	domains := make([]string, len(agent.Domains))
	for i, d := range agent.Domains {
		domains[i] = string(d)
	}
	return AgentResponse{
		ID:           agent.ID,
		Name:         agent.Name,
		Email:        agent.Email,
		Active:       agent.Active,
		MaxLeads:     agent.MaxLeads,
		CurrentLeads: agent.CurrentLeads,
		Domains:      domains,
		CreatedAt:    agent.CreatedAt,
		UpdatedAt:    agent.UpdatedAt,
	}
}

// ToAgentResponses converts a slice of domain agents to response DTOs
func ToAgentResponses(agents []crm.Agent) []AgentResponse {
	responses := make([]AgentResponse, len(agents))
	for i := range agents {
		responses[i] = ToAgentResponse(&agents[i])
	}
	return responses
}

// ==================== History DTOs ====================

// HistoryRecordResponse represents one ledger entry in API responses
type HistoryRecordResponse struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	OldStage   string    `json:"old_stage"`
	NewStage   string    `json:"new_stage"`
	ChangedBy  string    `json:"changed_by"`
	Reason     string    `json:"reason"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToHistoryRecordResponses converts ledger records to response DTOs
func ToHistoryRecordResponses(records []crm.HistoryRecord) []HistoryRecordResponse {
	responses := make([]HistoryRecordResponse, len(records))
	for i := range records {
		r := &records[i]
		responses[i] = HistoryRecordResponse{
			ID:         r.ID,
			EntityType: string(r.EntityType),
			EntityID:   r.EntityID,
			OldStage:   r.OldStage,
			NewStage:   r.NewStage,
			ChangedBy:  r.ChangedBy,
			Reason:     r.Reason,
			Kind:       string(r.Kind()),
			CreatedAt:  r.CreatedAt,
		}
	}
	return responses
}
