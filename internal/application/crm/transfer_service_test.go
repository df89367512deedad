package crm

import (
	"context"
	"testing"
	"time"

	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/domain/shared"
	"github.com/leadpipe/backend/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type transferFixture struct {
	svc         *TransferService
	leadRepo    *memory.LeadRepo
	saleRepo    *memory.SaleRepo
	historyRepo *memory.HistoryRepo
}

func newTransferFixture(config TransferConfig) *transferFixture {
	leadRepo := memory.NewLeadRepo()
	saleRepo := memory.NewSaleRepo()
	historyRepo := memory.NewHistoryRepo()
	svc := NewTransferService(leadRepo, saleRepo, historyRepo, memory.NewTxManager(), config, zap.NewNop())
	return &transferFixture{svc: svc, leadRepo: leadRepo, saleRepo: saleRepo, historyRepo: historyRepo}
}

// seedTransferableLead stores a qualified lead that passes the whole gate
// at minScore 0.6
func seedTransferableLead(t *testing.T, repo *memory.LeadRepo) *crm.Lead {
	t.Helper()
	lead := seedLeadAtStage(t, repo, crm.LeadStageQualified)
	require.NoError(t, lead.RecordAnalysis(0.8, crm.RecommendTransfer, "strong signals"))
	lead.ClearDomainEvents()
	require.NoError(t, repo.Save(context.Background(), lead))
	return lead
}

func TestTransferCreatesSaleAndLedgerEntry(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6})
	ctx := context.Background()
	lead := seedTransferableLead(t, f.leadRepo)

	amount := decimal.NewFromInt(1500)
	resp, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{
		Amount:    &amount,
		ChangedBy: "agent-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRANSFERRED", resp.Lead.Stage)
	assert.Equal(t, "NEW", resp.Sale.Stage)
	assert.Equal(t, lead.ID, resp.Sale.LeadID)
	require.NotNil(t, resp.Sale.Amount)
	assert.True(t, amount.Equal(*resp.Sale.Amount))

	records, err := f.historyRepo.FindByEntity(ctx, crm.HistoryEntityLead, lead.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "QUALIFIED", records[0].OldStage)
	assert.Equal(t, "TRANSFERRED", records[0].NewStage)
	assert.Equal(t, "agent-1", records[0].ChangedBy)
}

func TestTransferGateRejectionsLeaveNothingBehind(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		seed func(t *testing.T, f *transferFixture) *crm.Lead
		want crm.TransferFailure
	}{
		{
			name: "not qualified",
			seed: func(t *testing.T, f *transferFixture) *crm.Lead {
				return seedLeadAtStage(t, f.leadRepo, crm.LeadStageContacted)
			},
			want: crm.TransferNotQualified,
		},
		{
			name: "score missing",
			seed: func(t *testing.T, f *transferFixture) *crm.Lead {
				return seedLeadAtStage(t, f.leadRepo, crm.LeadStageQualified)
			},
			want: crm.TransferScoreMissing,
		},
		{
			name: "score below threshold",
			seed: func(t *testing.T, f *transferFixture) *crm.Lead {
				lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageQualified)
				require.NoError(t, lead.RecordAnalysis(0.59, crm.RecommendNurture, "not yet"))
				require.NoError(t, f.leadRepo.Save(ctx, lead))
				return lead
			},
			want: crm.TransferScoreBelowMinimum,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTransferFixture(TransferConfig{MinScore: 0.6})
			lead := tc.seed(t, f)

			_, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
			var gateErr *crm.TransferPreconditionError
			require.ErrorAs(t, err, &gateErr)
			assert.Equal(t, tc.want, gateErr.Kind)

			// Rejection leaves no sale and no ledger entry
			_, err = f.saleRepo.FindByLeadID(ctx, lead.ID)
			require.ErrorIs(t, err, shared.ErrNotFound)
			records, err := f.historyRepo.FindByEntity(ctx, crm.HistoryEntityLead, lead.ID)
			require.NoError(t, err)
			assert.Empty(t, records)

			got, err := f.leadRepo.FindByID(ctx, lead.ID)
			require.NoError(t, err)
			assert.NotEqual(t, crm.LeadStageTransferred, got.Stage)
		})
	}
}

func TestTransferScoreExactlyAtThresholdPasses(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6})
	ctx := context.Background()
	lead := seedLeadAtStage(t, f.leadRepo, crm.LeadStageQualified)
	require.NoError(t, lead.RecordAnalysis(0.6, crm.RecommendTransfer, "boundary"))
	require.NoError(t, f.leadRepo.Save(ctx, lead))

	resp, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
	require.NoError(t, err)
	assert.Equal(t, "TRANSFERRED", resp.Lead.Stage)
}

func TestTransferRejectsStaleScore(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6, MaxScoreAge: time.Hour})
	ctx := context.Background()
	lead := seedTransferableLead(t, f.leadRepo)

	old := time.Now().Add(-2 * time.Hour)
	lead.AIAnalyzedAt = &old
	require.NoError(t, f.leadRepo.Save(ctx, lead))

	_, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
	var gateErr *crm.TransferPreconditionError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, crm.TransferScoreMissing, gateErr.Kind)
}

func TestTransferIsIdempotentGuarded(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6})
	ctx := context.Background()
	lead := seedTransferableLead(t, f.leadRepo)

	_, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
	require.NoError(t, err)

	_, err = f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
	var gateErr *crm.TransferPreconditionError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, crm.TransferAlreadyTransferred, gateErr.Kind)

	// Still exactly one sale for the lead
	sale, err := f.saleRepo.FindByLeadID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.SaleStageNew, sale.Stage)
}

func TestAdvanceSaleThroughPipeline(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6})
	ctx := context.Background()
	lead := seedTransferableLead(t, f.leadRepo)

	resp, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
	require.NoError(t, err)
	saleID := resp.Sale.ID

	for _, stage := range []string{"KYC", "AGREEMENT"} {
		sale, err := f.svc.AdvanceSale(ctx, saleID, AdvanceSaleRequest{TargetStage: stage})
		require.NoError(t, err)
		assert.Equal(t, stage, sale.Stage)
	}

	amount := decimal.NewFromInt(2500)
	sale, err := f.svc.AdvanceSale(ctx, saleID, AdvanceSaleRequest{
		TargetStage: "PAID",
		Amount:      &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", sale.Stage)
	require.NotNil(t, sale.Amount)
	assert.True(t, amount.Equal(*sale.Amount))

	history, err := f.svc.SaleHistory(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// Newest first
	assert.Equal(t, "PAID", history[0].NewStage)
	assert.Equal(t, "NEW", history[2].OldStage)
}

func TestAdvanceSaleRejectsSkipAndTerminal(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6})
	ctx := context.Background()
	lead := seedTransferableLead(t, f.leadRepo)

	resp, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
	require.NoError(t, err)
	saleID := resp.Sale.ID

	_, err = f.svc.AdvanceSale(ctx, saleID, AdvanceSaleRequest{TargetStage: "PAID"})
	require.Error(t, err)

	_, err = f.svc.AdvanceSale(ctx, saleID, AdvanceSaleRequest{TargetStage: "LOST"})
	require.NoError(t, err)

	_, err = f.svc.AdvanceSale(ctx, saleID, AdvanceSaleRequest{TargetStage: "KYC"})
	var locked *crm.TerminalStageLockedError
	require.ErrorAs(t, err, &locked)
}

func TestGetSaleByLead(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6})
	ctx := context.Background()
	lead := seedTransferableLead(t, f.leadRepo)

	resp, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
	require.NoError(t, err)

	sale, err := f.svc.GetSaleByLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Sale.ID, sale.ID)
	assert.Equal(t, lead.ID, sale.LeadID)
}

func TestListSales(t *testing.T) {
	f := newTransferFixture(TransferConfig{MinScore: 0.6})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		lead := seedTransferableLead(t, f.leadRepo)
		_, err := f.svc.Transfer(ctx, lead.ID, TransferLeadRequest{})
		require.NoError(t, err)
	}

	sales, total, err := f.svc.ListSales(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sales, 3)
}
