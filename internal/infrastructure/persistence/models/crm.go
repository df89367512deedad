package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/shopspring/decimal"
)

// LeadModel is the persistence model for crm.Lead
type LeadModel struct {
	AggregateModel
	Source           string     `gorm:"type:varchar(20);not null;index"`
	Stage            string     `gorm:"type:varchar(20);not null;index"`
	FullName         string     `gorm:"type:varchar(200)"`
	Phone            string     `gorm:"type:varchar(32);index"`
	Email            string     `gorm:"type:varchar(200);index"`
	ExternalHandle   string     `gorm:"type:varchar(100)"`
	BusinessDomain   string     `gorm:"type:varchar(20)"`
	LostReason       *string    `gorm:"type:varchar(30)"`
	AssignedAgent    *uuid.UUID `gorm:"type:uuid;index"`
	MessageCount     int        `gorm:"not null;default:0"`
	AIScore          *float64
	AIRecommendation string `gorm:"type:varchar(30)"`
	AIReason         string `gorm:"type:text"`
	AIAnalyzedAt     *time.Time
	DeletedAt        *time.Time `gorm:"index"`
}

// TableName returns the table name for LeadModel
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts LeadModel to domain Lead
func (m *LeadModel) ToDomain() *crm.Lead {
	lead := &crm.Lead{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Source:            crm.LeadSource(m.Source),
		Stage:             crm.LeadStage(m.Stage),
		FullName:          m.FullName,
		Phone:             m.Phone,
		Email:             m.Email,
		ExternalHandle:    m.ExternalHandle,
		BusinessDomain:    crm.BusinessDomain(m.BusinessDomain),
		AssignedAgent:     m.AssignedAgent,
		MessageCount:      m.MessageCount,
		AIScore:           m.AIScore,
		AIRecommendation:  crm.Recommendation(m.AIRecommendation),
		AIReason:          m.AIReason,
		AIAnalyzedAt:      m.AIAnalyzedAt,
		DeletedAt:         m.DeletedAt,
	}
	if m.LostReason != nil {
		reason := crm.LostReason(*m.LostReason)
		lead.LostReason = &reason
	}
	return lead
}

// LeadModelFromDomain converts domain Lead to LeadModel
func LeadModelFromDomain(lead *crm.Lead) *LeadModel {
	m := &LeadModel{
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
		DeletedAt:        lead.DeletedAt,
	}
	m.FromDomainAggregateRoot(lead.BaseAggregateRoot)
	if lead.LostReason != nil {
		reason := string(*lead.LostReason)
		m.LostReason = &reason
	}
	return m
}

// SaleModel is the persistence model for crm.Sale
type SaleModel struct {
	AggregateModel
	LeadID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	Stage  string           `gorm:"type:varchar(20);not null;index"`
	Amount *decimal.Decimal `gorm:"type:decimal(20,2)"`
	Notes  string           `gorm:"type:text"`
}

// TableName returns the table name for SaleModel
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts SaleModel to domain Sale
func (m *SaleModel) ToDomain() *crm.Sale {
	return &crm.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		LeadID:            m.LeadID,
		Stage:             crm.SaleStage(m.Stage),
		Amount:            m.Amount,
		Notes:             m.Notes,
	}
}

// SaleModelFromDomain converts domain Sale to SaleModel
func SaleModelFromDomain(sale *crm.Sale) *SaleModel {
	m := &SaleModel{
		LeadID: sale.LeadID,
		Stage:  string(sale.Stage),
		Amount: sale.Amount,
		Notes:  sale.Notes,
	}
	m.FromDomainAggregateRoot(sale.BaseAggregateRoot)
	return m
}

// AgentModel is the persistence model for crm.Agent. Domain skills are
// stored as a comma-separated list to stay portable across postgres and
// the sqlite test driver.
type AgentModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(200);not null"`
	Email        string `gorm:"type:varchar(200)"`
	Active       bool   `gorm:"not null;default:true;index"`
	MaxLeads     int    `gorm:"not null"`
	CurrentLeads int    `gorm:"not null;default:0"`
	Domains      string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for AgentModel
func (AgentModel) TableName() string {
	return "agents"
}

// ToDomain converts AgentModel to domain Agent
func (m *AgentModel) ToDomain() *crm.Agent {
	agent := &crm.Agent{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		Active:            m.Active,
		MaxLeads:          m.MaxLeads,
		CurrentLeads:      m.CurrentLeads,
		Domains:           make([]crm.BusinessDomain, 0),
	}
	if m.Domains != "" {
		for _, d := range strings.Split(m.Domains, ",") {
			agent.Domains = append(agent.Domains, crm.BusinessDomain(d))
		}
	}
	return agent
}

// AgentModelFromDomain converts domain Agent to AgentModel
func AgentModelFromDomain(agent *crm.Agent) *AgentModel {
	domains := make([]string, len(agent.Domains))
	for i, d := range agent.Domains {
		domains[i] = string(d)
	}
	m := &AgentModel{
		Name:         agent.Name,
		Email:        agent.Email,
		Active:       agent.Active,
		MaxLeads:     agent.MaxLeads,
		CurrentLeads: agent.CurrentLeads,
		Domains:      strings.Join(domains, ","),
	}
	m.FromDomainAggregateRoot(agent.BaseAggregateRoot)
	return m
}

// HistoryModel is the persistence model for crm.HistoryRecord.
// Rows are insert-only.
type HistoryModel struct {
	BaseModel
	EntityType string    `gorm:"type:varchar(10);not null;index:idx_history_entity"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_history_entity"`
	OldStage   string    `gorm:"type:varchar(20);not null"`
	NewStage   string    `gorm:"type:varchar(20);not null"`
	ChangedBy  string    `gorm:"type:varchar(200);not null"`
	Reason     string    `gorm:"type:text"`
}

// TableName returns the table name for HistoryModel
func (HistoryModel) TableName() string {
	return "stage_history"
}

// ToDomain converts HistoryModel to domain HistoryRecord
func (m *HistoryModel) ToDomain() *crm.HistoryRecord {
	return &crm.HistoryRecord{
		BaseEntity: m.BaseModel.ToDomain(),
		EntityType: crm.HistoryEntityType(m.EntityType),
		EntityID:   m.EntityID,
		OldStage:   m.OldStage,
		NewStage:   m.NewStage,
		ChangedBy:  m.ChangedBy,
		Reason:     m.Reason,
	}
}

// HistoryModelFromDomain converts domain HistoryRecord to HistoryModel
func HistoryModelFromDomain(record *crm.HistoryRecord) *HistoryModel {
	m := &HistoryModel{
		EntityType: string(record.EntityType),
		EntityID:   record.EntityID,
		OldStage:   record.OldStage,
		NewStage:   record.NewStage,
		ChangedBy:  record.ChangedBy,
		Reason:     record.Reason,
	}
	m.FromDomainBaseEntity(record.BaseEntity)
	return m
}
