package crm

import (
	"time"

	"github.com/leadpipe/backend/internal/domain/shared"
)

// Agent represents a manager who works assigned leads. CurrentLeads is a
// denormalized mirror of the live assigned-lead count; it is refreshed from
// a fresh recount after every assignment mutation and is never used as the
// source of truth for capacity checks.
type Agent struct {
	shared.BaseAggregateRoot
	Name         string
	Email        string
	Active       bool
	MaxLeads     int
	CurrentLeads int
	Domains      []BusinessDomain
}

// NewAgent creates an active agent with the given capacity
func NewAgent(name string, maxLeads int) (*Agent, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Agent name cannot be empty")
	}
	if maxLeads <= 0 {
		return nil, shared.NewDomainError("INVALID_CAPACITY", "Agent capacity must be positive")
	}

	return &Agent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Active:            true,
		MaxLeads:          maxLeads,
		Domains:           make([]BusinessDomain, 0),
	}, nil
}

// Activate marks the agent as able to receive leads
func (a *Agent) Activate() {
	a.Active = true
	a.UpdatedAt = time.Now()
}

// Deactivate stops the agent from receiving new leads. Existing
// assignments are untouched.
func (a *Agent) Deactivate() {
	a.Active = false
	a.UpdatedAt = time.Now()
}

// SetCapacity updates the maximum number of concurrently assigned leads
func (a *Agent) SetCapacity(maxLeads int) error {
	if maxLeads <= 0 {
		return shared.NewDomainError("INVALID_CAPACITY", "Agent capacity must be positive")
	}
	a.MaxLeads = maxLeads
	a.UpdatedAt = time.Now()
	return nil
}

// AddDomain adds a business domain to the agent's skill set
func (a *Agent) AddDomain(domain BusinessDomain) error {
	if !domain.IsValid() {
		return shared.NewDomainError("INVALID_DOMAIN", "Unknown business domain: "+string(domain))
	}
	for _, d := range a.Domains {
		if d == domain {
			return nil
		}
	}
	a.Domains = append(a.Domains, domain)
	a.UpdatedAt = time.Now()
	return nil
}

// HasDomain reports whether the agent's skill set contains the domain
func (a *Agent) HasDomain(domain BusinessDomain) bool {
	for _, d := range a.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

// RefreshLoad sets the denormalized counter to a freshly computed live
// count. The counter is always overwritten, never incremented, so it
// cannot drift under concurrent writers.
func (a *Agent) RefreshLoad(liveCount int64) {
	a.CurrentLeads = int(liveCount)
	a.UpdatedAt = time.Now()
}

// HasSpareCapacity reports whether the mirror counter is below capacity.
// Used only to narrow auto-assign candidates; the authoritative check is
// the live recount at assignment time.
func (a *Agent) HasSpareCapacity() bool {
	return a.Active && a.CurrentLeads < a.MaxLeads
}
