package crm

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type assignmentFixture struct {
	svc       *AssignmentService
	leadRepo  *memory.LeadRepo
	agentRepo *memory.AgentRepo
}

func newAssignmentFixture() *assignmentFixture {
	leadRepo := memory.NewLeadRepo()
	agentRepo := memory.NewAgentRepo()
	svc := NewAssignmentService(leadRepo, agentRepo, memory.NewTxManager(), zap.NewNop())
	return &assignmentFixture{svc: svc, leadRepo: leadRepo, agentRepo: agentRepo}
}

func (f *assignmentFixture) createAgent(t *testing.T, name string, maxLeads int, domains ...string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.CreateAgent(context.Background(), CreateAgentRequest{
		Name:     name,
		MaxLeads: maxLeads,
		Domains:  domains,
	})
	require.NoError(t, err)
	return resp.ID
}

func TestAssignmentCreateAgent(t *testing.T) {
	f := newAssignmentFixture()

	resp, err := f.svc.CreateAgent(context.Background(), CreateAgentRequest{
		Name:     "Alex",
		MaxLeads: 5,
		Domains:  []string{"FIRST", "SECOND"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Active)
	assert.Equal(t, 5, resp.MaxLeads)
	assert.Equal(t, 0, resp.CurrentLeads)
	assert.ElementsMatch(t, []string{"FIRST", "SECOND"}, resp.Domains)

	_, err = f.svc.CreateAgent(context.Background(), CreateAgentRequest{Name: "Bad", MaxLeads: 0})
	require.Error(t, err)
}

func TestAssignmentAssignAndUnassign(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	agentID := f.createAgent(t, "Alex", 5)
	lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)

	resp, err := f.svc.Assign(ctx, lead.ID, agentID)
	require.NoError(t, err)
	require.NotNil(t, resp.AssignedAgent)
	assert.Equal(t, agentID, *resp.AssignedAgent)

	agent, err := f.svc.GetAgent(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, 1, agent.CurrentLeads)

	resp, err = f.svc.Unassign(ctx, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.AssignedAgent)

	agent, err = f.svc.GetAgent(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, 0, agent.CurrentLeads)

	// Unassigning an unassigned lead is a no-op
	_, err = f.svc.Unassign(ctx, lead.ID)
	require.NoError(t, err)
}

func TestAssignmentRejectsInactiveAgent(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	agentID := f.createAgent(t, "Alex", 5)

	inactive := false
	_, err := f.svc.UpdateAgent(ctx, agentID, UpdateAgentRequest{Active: &inactive})
	require.NoError(t, err)

	lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
	_, err = f.svc.Assign(ctx, lead.ID, agentID)
	var inactiveErr *crm.AgentInactiveError
	require.ErrorAs(t, err, &inactiveErr)
	assert.Equal(t, agentID, inactiveErr.AgentID)
}

func TestAssignmentRejectsTerminalLead(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	agentID := f.createAgent(t, "Alex", 5)

	lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageContacted)
	reason := crm.LostReasonNotInterested
	require.NoError(t, lead.Transition(crm.LeadStageLost, &reason))
	require.NoError(t, f.leadRepo.Save(ctx, lead))

	_, err := f.svc.Assign(ctx, lead.ID, agentID)
	var locked *crm.TerminalStageLockedError
	require.ErrorAs(t, err, &locked)
}

func TestAssignmentEnforcesCapacityByLiveRecount(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	agentID := f.createAgent(t, "Alex", 2)

	for i := 0; i < 2; i++ {
		lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
		_, err := f.svc.Assign(ctx, lead.ID, agentID)
		require.NoError(t, err)
	}

	extra := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
	_, err := f.svc.Assign(ctx, extra.ID, agentID)
	var capacity *crm.CapacityExceededError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, int64(2), capacity.Current)
	assert.Equal(t, 2, capacity.MaxLeads)
}

func TestAssignmentReassignToSameAgentAtCapacity(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	agentID := f.createAgent(t, "Alex", 2)

	var first *crm.Lead
	for i := 0; i < 2; i++ {
		lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
		if first == nil {
			first = lead
		}
		_, err := f.svc.Assign(ctx, lead.ID, agentID)
		require.NoError(t, err)
	}

	// The lead occupies one of the agent's slots; repeating the assignment
	// must not count it against the remaining capacity.
	resp, err := f.svc.Reassign(ctx, first.ID, agentID)
	require.NoError(t, err)
	require.NotNil(t, resp.AssignedAgent)
	assert.Equal(t, agentID, *resp.AssignedAgent)

	agent, err := f.svc.GetAgent(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, 2, agent.CurrentLeads)
}

func TestAssignmentReassignRefreshesBothAgents(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	first := f.createAgent(t, "Alex", 5)
	second := f.createAgent(t, "Blake", 5)
	lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)

	_, err := f.svc.Assign(ctx, lead.ID, first)
	require.NoError(t, err)

	resp, err := f.svc.Reassign(ctx, lead.ID, second)
	require.NoError(t, err)
	require.NotNil(t, resp.AssignedAgent)
	assert.Equal(t, second, *resp.AssignedAgent)

	firstAgent, err := f.svc.GetAgent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 0, firstAgent.CurrentLeads)

	secondAgent, err := f.svc.GetAgent(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, secondAgent.CurrentLeads)
}

func TestAutoAssignPrefersDomainMatchAndLeastLoaded(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()

	generalist := f.createAgent(t, "Generalist", 10)
	specialist := f.createAgent(t, "Specialist", 10, "FIRST")

	// Load the generalist so the tie-break would favor it only without the
	// domain narrowing
	for i := 0; i < 2; i++ {
		lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
		_, err := f.svc.Assign(ctx, lead.ID, specialist)
		require.NoError(t, err)
	}

	lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
	resp, err := f.svc.AutoAssign(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotNil(t, resp.AssignedAgent)
	// Domain FIRST narrows to the specialist despite its higher load
	assert.Equal(t, specialist, *resp.AssignedAgent)

	// A lead with no domain goes to the least loaded candidate
	plain := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
	plain.BusinessDomain = ""
	require.NoError(t, f.leadRepo.Save(ctx, plain))

	resp, err = f.svc.AutoAssign(ctx, plain.ID)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotNil(t, resp.AssignedAgent)
	assert.Equal(t, generalist, *resp.AssignedAgent)
}

func TestAutoAssignReturnsNilWhenPoolExhausted(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	agentID := f.createAgent(t, "Alex", 1)

	lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
	_, err := f.svc.Assign(ctx, lead.ID, agentID)
	require.NoError(t, err)

	unlucky := seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew)
	resp, err := f.svc.AutoAssign(ctx, unlucky.ID)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestAssignmentConcurrentNeverExceedsCapacity(t *testing.T) {
	f := newAssignmentFixture()
	ctx := context.Background()
	const maxLeads = 3
	const workers = 20
	agentID := f.createAgent(t, "Alex", maxLeads)

	leadIDs := make([]uuid.UUID, workers)
	for i := range leadIDs {
		leadIDs[i] = seedLeadAtStage(t, f.leadRepo, crm.LeadStageNew).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Assign(ctx, leadIDs[i], agentID)
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var capacity *crm.CapacityExceededError
		require.ErrorAs(t, err, &capacity)
		rejected++
	}
	assert.Equal(t, maxLeads, succeeded)
	assert.Equal(t, workers-maxLeads, rejected)

	count, err := f.leadRepo.CountAssigned(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, int64(maxLeads), count)

	agent, err := f.svc.GetAgent(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, maxLeads, agent.CurrentLeads)
}
