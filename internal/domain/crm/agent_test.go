package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgent(t *testing.T) {
	t.Run("creates an active agent", func(t *testing.T) {
		agent, err := NewAgent("Dana", 10)
		require.NoError(t, err)

		assert.True(t, agent.Active)
		assert.Equal(t, 10, agent.MaxLeads)
		assert.Zero(t, agent.CurrentLeads)
		assert.Empty(t, agent.Domains)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewAgent("", 10)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		_, err := NewAgent("Dana", 0)
		assert.Error(t, err)
		_, err = NewAgent("Dana", -3)
		assert.Error(t, err)
	})
}

func TestAgent_ActivateDeactivate(t *testing.T) {
	agent, err := NewAgent("Dana", 5)
	require.NoError(t, err)

	agent.Deactivate()
	assert.False(t, agent.Active)
	assert.False(t, agent.HasSpareCapacity())

	agent.Activate()
	assert.True(t, agent.Active)
	assert.True(t, agent.HasSpareCapacity())
}

func TestAgent_SetCapacity(t *testing.T) {
	agent, err := NewAgent("Dana", 5)
	require.NoError(t, err)

	require.NoError(t, agent.SetCapacity(2))
	assert.Equal(t, 2, agent.MaxLeads)

	assert.Error(t, agent.SetCapacity(0))
	assert.Equal(t, 2, agent.MaxLeads)
}

func TestAgent_Domains(t *testing.T) {
	agent, err := NewAgent("Dana", 5)
	require.NoError(t, err)

	require.NoError(t, agent.AddDomain(BusinessDomainFirst))
	assert.True(t, agent.HasDomain(BusinessDomainFirst))
	assert.False(t, agent.HasDomain(BusinessDomainSecond))

	// Adding twice is a no-op
	require.NoError(t, agent.AddDomain(BusinessDomainFirst))
	assert.Len(t, agent.Domains, 1)

	assert.Error(t, agent.AddDomain(BusinessDomain("FOURTH")))
}

func TestAgent_RefreshLoad(t *testing.T) {
	agent, err := NewAgent("Dana", 3)
	require.NoError(t, err)

	// The mirror is always overwritten from the live count
	agent.RefreshLoad(2)
	assert.Equal(t, 2, agent.CurrentLeads)
	assert.True(t, agent.HasSpareCapacity())

	agent.RefreshLoad(3)
	assert.Equal(t, 3, agent.CurrentLeads)
	assert.False(t, agent.HasSpareCapacity())

	agent.RefreshLoad(1)
	assert.Equal(t, 1, agent.CurrentLeads)
}
