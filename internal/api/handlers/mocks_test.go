package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"greendrake/blast/internal/models"
)

// --- Mocks ---

// MockVerificationService
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) VerifyAgent(ctx context.Context, mlsID, agentID string) (models.AgentSummary, error) {
	args := m.Called(ctx, mlsID, agentID)
	return args.Get(0).(models.AgentSummary), args.Error(1)
}

func (m *MockVerificationService) SendCode(ctx context.Context, agentID string, method models.VerificationMethod) (string, error) {
	args := m.Called(ctx, agentID, method)
	return args.String(0), args.Error(1)
}

func (m *MockVerificationService) VerifyCode(ctx context.Context, agentID, code string) error {
	args := m.Called(ctx, agentID, code)
	return args.Error(0)
}

// MockCampaignService
type MockCampaignService struct {
	mock.Mock
}

func (m *MockCampaignService) CreateCampaign(ctx context.Context, req models.CreateCampaignRequest) (models.Campaign, int, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Campaign), args.Int(1), args.Error(2)
}

func (m *MockCampaignService) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Campaign), args.Error(1)
}

// MockCheckoutService
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) ProcessCheckout(ctx context.Context, req models.CheckoutRequest) (models.Order, models.CampaignStatus, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Order), args.Get(1).(models.CampaignStatus), args.Error(2)
}
