package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greendrake/blast/internal/client"
	"greendrake/blast/internal/models"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

// stubServer answers every request with status and body and records it.
func stubServer(t *testing.T, status int, body string) (*client.Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*rec = recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(b), header: r.Header.Clone()}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL+"/api/", 5*time.Second), rec
}

func TestMLSAPI(t *testing.T) {
	ctx := context.Background()

	c, rec := stubServer(t, http.StatusOK, `[{"id":"crmls","name":"California Regional MLS","code":"CRMLS","active":true}]`)
	providers, err := c.MLS.Providers(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "/api/mls_providers", rec.path)

	c, rec = stubServer(t, http.StatusOK, `[]`)
	_, err = c.MLS.Agents(ctx, "crmls", "chris")
	require.NoError(t, err)
	assert.Equal(t, "mlsId=crmls&q=chris", rec.query)

	c, rec = stubServer(t, http.StatusOK, `{"success":true,"message":"Verification code sent via email","code":"48213"}`)
	resp, err := c.MLS.SendVerificationCode(ctx, models.SendVerificationCodeRequest{AgentID: "agent_002", Method: models.VerificationMethodEmail})
	require.NoError(t, err)
	assert.Equal(t, "48213", resp.Code)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/mls/send-verification-code", rec.path)
	assert.JSONEq(t, `{"agentId":"agent_002","method":"email"}`, rec.body)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
}

func TestAPIError(t *testing.T) {
	c, _ := stubServer(t, http.StatusNotFound, `{"success":false,"message":"Agent not found"}`)

	_, err := c.MLS.VerifyAgent(context.Background(), models.VerifyAgentRequest{MLSID: "x", AgentID: "y"})
	require.Error(t, err)
	assert.Equal(t, "API Error: 404 Not Found: Agent not found", err.Error())
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "Agent not found", client.Message(err))

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Not Found", apiErr.Status)
}

func TestAPIError_FieldsAndPlainBodies(t *testing.T) {
	c, _ := stubServer(t, http.StatusBadRequest, `{"success":false,"message":"Invalid request","errors":[{"field":"code","message":"is required"}]}`)
	_, err := c.MLS.VerifyCode(context.Background(), models.VerifyCodeRequest{AgentID: "agent_001"})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, []models.FieldError{{Field: "code", Message: "is required"}}, apiErr.Fields)

	c, _ = stubServer(t, http.StatusBadGateway, `upstream exploded`)
	_, err = c.Packages.List(context.Background())
	assert.Equal(t, "API Error: 502 Bad Gateway", err.Error())
	assert.Equal(t, "API Error: 502 Bad Gateway", client.Message(err))
}

func TestListingsAndGeo(t *testing.T) {
	ctx := context.Background()

	c, rec := stubServer(t, http.StatusOK, `{"success":true,"listings":[],"total":0}`)
	res, err := c.Listings.Search(ctx, models.ListingFilter{AgentID: "agent_001", ZipCode: "90045"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Equal(t, "agentId=agent_001&zipCode=90045", rec.query)

	c, rec = stubServer(t, http.StatusOK, `{"id":"listing_001"}`)
	l, err := c.Listings.Get(ctx, "listing_001")
	require.NoError(t, err)
	assert.Equal(t, "listing_001", l.ID)
	assert.Equal(t, "/api/listings/listing_001", rec.path)

	c, rec = stubServer(t, http.StatusOK, `{"success":true,"valid":false,"message":"Zipcode not found"}`)
	zip, err := c.Geo.ValidateZipcode(ctx, "00000")
	require.NoError(t, err)
	assert.False(t, zip.Valid)
	assert.Equal(t, "/api/zipcodes/00000/validate", rec.path)
}

func TestCampaignsAndCheckout_IdempotencyKey(t *testing.T) {
	ctx := context.Background()

	c, rec := stubServer(t, http.StatusOK, `{"success":true,"campaign":{"id":"campaign_1","finalAmount":343.14},"estimatedViews":1000}`)
	created, err := c.Campaigns.Create(ctx, models.CreateCampaignRequest{PackageType: models.PackageTypeZipcode}, client.WithIdempotencyKey("k-1"))
	require.NoError(t, err)
	assert.Equal(t, 343.14, created.Campaign.FinalAmount)
	assert.Equal(t, "k-1", rec.header.Get("Idempotency-Key"))

	c, rec = stubServer(t, http.StatusOK, `{"success":true,"orderId":"order_1","campaignStatus":"active"}`)
	paid, err := c.Checkout.Process(ctx, models.CheckoutRequest{CampaignID: "campaign_1", TermsAccepted: true})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, paid.CampaignStatus)
	assert.Empty(t, rec.header.Get("Idempotency-Key"))

	var sent models.CheckoutRequest
	require.NoError(t, json.Unmarshal([]byte(rec.body), &sent))
	assert.True(t, sent.TermsAccepted)
}

type failingTransport struct{}

func (failingTransport) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTransportFailure(t *testing.T) {
	c := client.New("", time.Second, client.WithHTTPClient(failingTransport{}))

	_, err := c.Packages.Durations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, client.IsStatus(err, http.StatusInternalServerError))
}

func TestDecodeFailure(t *testing.T) {
	c, _ := stubServer(t, http.StatusOK, `not json`)
	_, err := c.Packages.Durations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode GET /campaign_durations")
}
