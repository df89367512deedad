package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/leadpipe/backend/internal/application/crm"
	"github.com/leadpipe/backend/internal/domain/crm"
	"github.com/leadpipe/backend/internal/infrastructure/memory"
	"github.com/leadpipe/backend/internal/interfaces/http/dto"
	"github.com/leadpipe/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type apiFixture struct {
	engine *gin.Engine
}

func newAPIFixture() *apiFixture {
	leadRepo := memory.NewLeadRepo()
	saleRepo := memory.NewSaleRepo()
	agentRepo := memory.NewAgentRepo()
	historyRepo := memory.NewHistoryRepo()
	txManager := memory.NewTxManager()
	log := zap.NewNop()

	leadSvc := crmapp.NewLeadService(leadRepo, historyRepo, txManager, log)
	transferSvc := crmapp.NewTransferService(leadRepo, saleRepo, historyRepo, txManager,
		crmapp.TransferConfig{MinScore: 0.6}, log)
	assignmentSvc := crmapp.NewAssignmentService(leadRepo, agentRepo, txManager, log)

	leadHandler := NewLeadHandler(leadSvc, 24*time.Hour, 72*time.Hour)
	saleHandler := NewSaleHandler(transferSvc)
	agentHandler := NewAgentHandler(assignmentSvc)

	engine := gin.New()
	api := engine.Group("/api/v1")
	leads := api.Group("/crm/leads")
	leads.POST("", leadHandler.Create)
	leads.GET("", leadHandler.List)
	leads.GET("/overdue", leadHandler.Overdue)
	leads.GET("/:id", leadHandler.GetByID)
	leads.POST("/:id/transition", leadHandler.Transition)
	leads.POST("/:id/rollback", leadHandler.Rollback)
	leads.POST("/:id/analysis", leadHandler.RecordAnalysis)
	leads.POST("/:id/transfer", saleHandler.Transfer)
	leads.POST("/:id/assign", agentHandler.Assign)
	leads.GET("/:id/history", leadHandler.History)
	leads.DELETE("/:id", leadHandler.Delete)

	return &apiFixture{engine: engine}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (f *apiFixture) createLead(t *testing.T, body gin.H) uuid.UUID {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/crm/leads", body)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var lead crmapp.LeadResponse
	require.NoError(t, json.Unmarshal(data, &lead))
	return lead.ID
}

func TestLeadAPICreate(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodPost, "/api/v1/crm/leads", gin.H{
		"source": "PARTNER",
		"phone":  "+15550100",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	// Unknown source fails field validation with per-field details
	w = f.do(t, http.MethodPost, "/api/v1/crm/leads", gin.H{"source": "BILLBOARD"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp = decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "source", resp.Error.Details[0].Field)
}

func TestLeadAPIDuplicateConflict(t *testing.T) {
	f := newAPIFixture()
	body := gin.H{"source": "SCANNER", "email": "dana@example.com"}
	f.createLead(t, body)

	w := f.do(t, http.MethodPost, "/api/v1/crm/leads", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, crm.CodeDuplicateLead, resp.Error.Code)
}

func TestLeadAPIGetNotFound(t *testing.T) {
	f := newAPIFixture()

	w := f.do(t, http.MethodGet, "/api/v1/crm/leads/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/crm/leads/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadAPITransitionRuleViolations(t *testing.T) {
	f := newAPIFixture()
	leadID := f.createLead(t, gin.H{"source": "SCANNER", "phone": "+15550100"})

	// Skipping a stage is a 422 with the rule code
	w := f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/transition",
		gin.H{"target_stage": "QUALIFIED"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, crm.CodeStageSkip, resp.Error.Code)

	// One step forward is accepted
	w = f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/transition",
		gin.H{"target_stage": "CONTACTED"})
	assert.Equal(t, http.StatusOK, w.Code)

	// LOST without a reason
	w = f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/transition",
		gin.H{"target_stage": "LOST"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp = decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, crm.CodeLostReasonRequired, resp.Error.Code)
}

func TestLeadAPIRollbackReasonTooShort(t *testing.T) {
	f := newAPIFixture()
	leadID := f.createLead(t, gin.H{"source": "SCANNER", "phone": "+15550100"})

	w := f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/transition",
		gin.H{"target_stage": "CONTACTED"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/rollback",
		gin.H{"reason": "oops"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, crm.CodeRollbackReasonTooShort, resp.Error.Code)
}

func TestLeadAPITransferGateBlocked(t *testing.T) {
	f := newAPIFixture()
	leadID := f.createLead(t, gin.H{"source": "SCANNER", "phone": "+15550100"})

	w := f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/transfer", gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, crm.CodeTransferBlocked, resp.Error.Code)
}

func TestLeadAPITransferSuccess(t *testing.T) {
	f := newAPIFixture()
	leadID := f.createLead(t, gin.H{
		"source":          "PARTNER",
		"full_name":       "Dana Smith",
		"phone":           "+15550100",
		"business_domain": "FIRST",
	})

	for _, stage := range []string{"CONTACTED", "QUALIFIED"} {
		w := f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/transition",
			gin.H{"target_stage": stage})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/analysis",
		gin.H{"score": 0.9, "recommendation": "transfer_to_sales", "reason": "ready"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/transfer",
		gin.H{"amount": "2500"})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	// History now records the full path
	w = f.do(t, http.MethodGet, "/api/v1/crm/leads/"+leadID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLeadAPIListPagination(t *testing.T) {
	f := newAPIFixture()
	for i := 0; i < 3; i++ {
		f.createLead(t, gin.H{"source": "MANUAL"})
	}

	w := f.do(t, http.MethodGet, "/api/v1/crm/leads?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.PageSize)
	assert.Equal(t, 2, resp.Meta.TotalPages)
}

func TestLeadAPIDelete(t *testing.T) {
	f := newAPIFixture()
	leadID := f.createLead(t, gin.H{"source": "MANUAL", "phone": "+15550100"})

	w := f.do(t, http.MethodDelete, "/api/v1/crm/leads/"+leadID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/crm/leads/"+leadID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadAPIRecordAnalysisValidation(t *testing.T) {
	f := newAPIFixture()
	leadID := f.createLead(t, gin.H{"source": "SCANNER", "phone": "+15550100"})

	// Binding rejects scores outside [0, 1]
	w := f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/analysis",
		gin.H{"score": 1.5, "recommendation": "transfer_to_sales"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/crm/leads/"+leadID.String()+"/analysis",
		gin.H{"score": 0.5, "recommendation": "continue_nurturing", "reason": "keep warm"})
	assert.Equal(t, http.StatusOK, w.Code)
}
