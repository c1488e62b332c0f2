package client

import (
	"context"
	"net/url"

	"greendrake/blast/internal/models"
)

// MLSAPI covers providers, agents and agent verification.
type MLSAPI struct{ c *Client }

func (a *MLSAPI) Providers(ctx context.Context) ([]models.MLSProvider, error) {
	var out []models.MLSProvider
	err := a.c.get(ctx, "/mls_providers", nil, &out)
	return out, err
}

// Agents lists agents, optionally narrowed to a provider and a name query.
func (a *MLSAPI) Agents(ctx context.Context, mlsID, query string) ([]models.Agent, error) {
	q := url.Values{}
	if mlsID != "" {
		q.Set("mlsId", mlsID)
	}
	if query != "" {
		q.Set("q", query)
	}
	var out []models.Agent
	err := a.c.get(ctx, "/agents", q, &out)
	return out, err
}

func (a *MLSAPI) VerifyAgent(ctx context.Context, req models.VerifyAgentRequest) (*models.VerifyAgentResponse, error) {
	var out models.VerifyAgentResponse
	if err := a.c.post(ctx, "/mls/verify-agent", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *MLSAPI) SendVerificationCode(ctx context.Context, req models.SendVerificationCodeRequest) (*models.SendVerificationCodeResponse, error) {
	var out models.SendVerificationCodeResponse
	if err := a.c.post(ctx, "/mls/send-verification-code", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *MLSAPI) VerifyCode(ctx context.Context, req models.VerifyCodeRequest) (*models.VerifyCodeResponse, error) {
	var out models.VerifyCodeResponse
	if err := a.c.post(ctx, "/mls/verify-code", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
