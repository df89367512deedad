package crm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSale(t *testing.T) *Sale {
	amount := decimal.NewFromInt(5000)
	sale, err := NewSale(uuid.New(), &amount)
	require.NoError(t, err)
	return sale
}

func saleAtStage(t *testing.T, stage SaleStage) *Sale {
	sale := createTestSale(t)
	switch stage {
	case SaleStageNew:
	case SaleStageKYC:
		require.NoError(t, sale.Transition(SaleStageKYC, nil))
	case SaleStageAgreement:
		require.NoError(t, sale.Transition(SaleStageKYC, nil))
		require.NoError(t, sale.Transition(SaleStageAgreement, nil))
	case SaleStagePaid:
		require.NoError(t, sale.Transition(SaleStageKYC, nil))
		require.NoError(t, sale.Transition(SaleStageAgreement, nil))
		require.NoError(t, sale.Transition(SaleStagePaid, nil))
	case SaleStageLost:
		require.NoError(t, sale.Transition(SaleStageLost, nil))
	}
	return sale
}

func TestSaleStage_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     SaleStage
		to       SaleStage
		canTrans bool
	}{
		{SaleStageNew, SaleStageKYC, true},
		{SaleStageNew, SaleStageLost, true},
		{SaleStageNew, SaleStageAgreement, false},
		{SaleStageNew, SaleStagePaid, false},
		{SaleStageKYC, SaleStageAgreement, true},
		{SaleStageKYC, SaleStageLost, true},
		{SaleStageKYC, SaleStagePaid, false},
		{SaleStageKYC, SaleStageNew, false},
		{SaleStageAgreement, SaleStagePaid, true},
		{SaleStageAgreement, SaleStageLost, true},
		{SaleStageAgreement, SaleStageKYC, false},
		{SaleStagePaid, SaleStageLost, false},
		{SaleStageLost, SaleStageNew, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSaleStage_IsTerminal(t *testing.T) {
	assert.False(t, SaleStageNew.IsTerminal())
	assert.False(t, SaleStageKYC.IsTerminal())
	assert.False(t, SaleStageAgreement.IsTerminal())
	assert.True(t, SaleStagePaid.IsTerminal())
	assert.True(t, SaleStageLost.IsTerminal())
}

func TestNewSale(t *testing.T) {
	t.Run("creates sale in NEW", func(t *testing.T) {
		leadID := uuid.New()
		amount := decimal.NewFromFloat(1250.50)

		sale, err := NewSale(leadID, &amount)
		require.NoError(t, err)

		assert.Equal(t, SaleStageNew, sale.Stage)
		assert.Equal(t, leadID, sale.LeadID)
		require.NotNil(t, sale.Amount)
		assert.True(t, amount.Equal(*sale.Amount))
		assert.Len(t, sale.GetDomainEvents(), 1)
	})

	t.Run("amount is optional", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), nil)
		require.NoError(t, err)
		assert.Nil(t, sale.Amount)
	})

	t.Run("rejects nil lead reference", func(t *testing.T) {
		_, err := NewSale(uuid.Nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		amount := decimal.NewFromInt(-10)
		_, err := NewSale(uuid.New(), &amount)
		assert.Error(t, err)
	})
}

func TestSale_Transition(t *testing.T) {
	t.Run("moves one step forward", func(t *testing.T) {
		sale := createTestSale(t)

		require.NoError(t, sale.Transition(SaleStageKYC, nil))
		assert.Equal(t, SaleStageKYC, sale.Stage)
	})

	t.Run("rejects skipping a stage", func(t *testing.T) {
		sale := createTestSale(t)

		err := sale.Transition(SaleStageAgreement, nil)
		var skipErr *StageSkipError
		require.ErrorAs(t, err, &skipErr)
		assert.Equal(t, SaleStageNew.String(), skipErr.Current)
		assert.Equal(t, SaleStageAgreement.String(), skipErr.Target)
		assert.Equal(t, CodeStageSkip, skipErr.Code())
		assert.Equal(t, SaleStageNew, sale.Stage)
	})

	t.Run("rejects jumping straight to PAID", func(t *testing.T) {
		sale := createTestSale(t)

		err := sale.Transition(SaleStagePaid, nil)
		var skipErr *StageSkipError
		assert.ErrorAs(t, err, &skipErr)
		assert.Equal(t, SaleStageNew, sale.Stage)
	})

	t.Run("LOST needs no reason", func(t *testing.T) {
		for _, stage := range []SaleStage{SaleStageNew, SaleStageKYC, SaleStageAgreement} {
			sale := saleAtStage(t, stage)
			require.NoError(t, sale.Transition(SaleStageLost, nil), "from stage %s", stage)
			assert.Equal(t, SaleStageLost, sale.Stage)
		}
	})

	t.Run("terminal stages are locked", func(t *testing.T) {
		for _, stage := range []SaleStage{SaleStagePaid, SaleStageLost} {
			sale := saleAtStage(t, stage)

			err := sale.Transition(SaleStageKYC, nil)
			var lockedErr *TerminalStageLockedError
			assert.ErrorAs(t, err, &lockedErr, "stage %s", stage)
		}
	})

	t.Run("amount update travels with the transition", func(t *testing.T) {
		sale := createTestSale(t)
		final := decimal.NewFromInt(7500)

		require.NoError(t, sale.Transition(SaleStageKYC, &final))
		require.NotNil(t, sale.Amount)
		assert.True(t, final.Equal(*sale.Amount))
	})

	t.Run("rejects negative amount update", func(t *testing.T) {
		sale := createTestSale(t)
		bad := decimal.NewFromInt(-1)

		err := sale.Transition(SaleStageKYC, &bad)
		assert.Error(t, err)
		assert.Equal(t, SaleStageNew, sale.Stage)
	})

	t.Run("reaching PAID emits a paid event", func(t *testing.T) {
		sale := saleAtStage(t, SaleStageAgreement)
		sale.ClearDomainEvents()

		require.NoError(t, sale.Transition(SaleStagePaid, nil))

		events := sale.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeSaleStageChanged, events[0].EventType())
		assert.Equal(t, EventTypeSalePaid, events[1].EventType())
	})
}

func TestSale_SetNotes(t *testing.T) {
	sale := createTestSale(t)
	sale.SetNotes("client asked for an invoice split")
	assert.Equal(t, "client asked for an invoice split", sale.Notes)
}
