package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"greendrake/blast/internal/api"
	"greendrake/blast/internal/api/middleware"
	"greendrake/blast/internal/config"
	"greendrake/blast/internal/email"
	"greendrake/blast/internal/fixtures"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/services"
	"greendrake/blast/internal/store"
	"greendrake/blast/internal/tasks"
)

type smsOutbox struct {
	mu   sync.Mutex
	sent map[string]string
}

func (o *smsOutbox) SendSMS(_ context.Context, to, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[to] = body
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins:          []string{"http://localhost:3000"},
		VerificationCodeTTL:     10 * time.Minute,
		VerificationMaxAttempts: 5,
		ExposeVerificationCodes: true,
		BcryptCost:              bcrypt.MinCost,
		TaxRate:                 0.0859,
		DefaultUserID:           "user_001",
		RateLimitBucketSize:     1000,
		RateLimitRefillRate:     1000,
		SmtpFromAddress:         "noreply@blast.example.com",
	}
}

func newServer(t *testing.T) (*httptest.Server, *smsOutbox) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testConfig()
	fx := fixtures.MustEmbedded()
	outbox := &smsOutbox{sent: map[string]string{}}
	processor := tasks.NewTaskProcessor(cfg, &email.LoggingSender{}, outbox)
	dispatcher := tasks.NewInlineDispatcher(processor)
	campaigns := store.NewMemoryCampaignStore()

	router := api.SetupRouter(ctx, api.Deps{
		Config:       cfg,
		Catalog:      services.NewCatalogService(fx),
		Verification: services.NewVerificationService(cfg, fx, store.NewMemoryCodeStore(), dispatcher),
		Campaigns:    services.NewCampaignService(cfg, fx, campaigns),
		Checkout:     services.NewCheckoutService(campaigns, dispatcher),
		Idempotency:  store.NewMemoryIdempotencyStore(ctx, time.Minute),
		Delay:        middleware.NoDelay,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, outbox
}

func call(t *testing.T, srv *httptest.Server, method, path, body string, headers map[string]string, out interface{}) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequest(method, srv.URL+path, reader)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestWizardFlow(t *testing.T) {
	srv, outbox := newServer(t)

	var verified models.VerifyAgentResponse
	resp := call(t, srv, http.MethodPost, "/api/mls/verify-agent", `{"mlsId":"crmls","agentId":"5084612"}`, nil, &verified)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "agent_001", verified.Agent.ID)

	var sent models.SendVerificationCodeResponse
	resp = call(t, srv, http.MethodPost, "/api/mls/send-verification-code", `{"agentId":"agent_001","method":"phone"}`, nil, &sent)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Verification code sent via phone", sent.Message)
	require.Len(t, sent.Code, 5)
	assert.Equal(t, email.VerificationSMS(sent.Code), outbox.sent["+1-310-555-0142"])

	var checked models.VerifyCodeResponse
	resp = call(t, srv, http.MethodPost, "/api/mls/verify-code", `{"agentId":"agent_001","code":"`+sent.Code+`"}`, nil, &checked)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, checked.Success)

	// Single use.
	resp = call(t, srv, http.MethodPost, "/api/mls/verify-code", `{"agentId":"agent_001","code":"`+sent.Code+`"}`, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var created models.CreateCampaignResponse
	resp = call(t, srv, http.MethodPost, "/api/campaigns/create",
		`{"packageType":"zipcode","targetType":"zipcode","targetValue":"53202","duration":"4weeks","paymentMode":"onetime"}`,
		map[string]string{middleware.HeaderIdempotencyKey: "create-1"}, &created)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 316.0, created.Campaign.TotalCost)
	assert.Equal(t, 27.14, created.Campaign.Taxes)
	assert.Equal(t, 343.14, created.Campaign.FinalAmount)
	assert.Equal(t, models.CampaignStatusPending, created.Campaign.Status)

	var again models.CreateCampaignResponse
	resp = call(t, srv, http.MethodPost, "/api/campaigns/create",
		`{"packageType":"zipcode","targetType":"zipcode","targetValue":"53202","duration":"4weeks","paymentMode":"onetime"}`,
		map[string]string{middleware.HeaderIdempotencyKey: "create-1"}, &again)
	assert.Equal(t, "true", resp.Header.Get(middleware.HeaderReplayed))
	assert.Equal(t, created.Campaign.ID, again.Campaign.ID)

	resp = call(t, srv, http.MethodPost, "/api/campaigns/create",
		`{"packageType":"zipcode","targetType":"zipcode","targetValue":"53202","duration":"1weeks","paymentMode":"onetime"}`,
		map[string]string{middleware.HeaderIdempotencyKey: "create-1"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	checkout := `{"campaignId":"` + created.Campaign.ID + `",
		"personalInfo":{"firstName":"Alexander","lastName":"Alexander","email":"Alexander@lofty.com"},
		"paymentInfo":{"paymentMethod":"Credit & Debit Cards","accountHolderName":"Danny Gray"},
		"billingAddress":{"countryRegion":"United States","address":"456 Elm Street"},
		"termsAccepted":true}`
	var paid, paidAgain models.CheckoutResponse
	resp = call(t, srv, http.MethodPost, "/api/checkout/process", checkout, map[string]string{middleware.HeaderIdempotencyKey: "pay-1"}, &paid)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.CampaignStatusActive, paid.CampaignStatus)
	assert.Regexp(t, `^order_`, paid.OrderID)

	call(t, srv, http.MethodPost, "/api/checkout/process", checkout, map[string]string{middleware.HeaderIdempotencyKey: "pay-1"}, &paidAgain)
	assert.Equal(t, paid.OrderID, paidAgain.OrderID)
}

func TestRouter_Ambient(t *testing.T) {
	srv, _ := newServer(t)

	resp := call(t, srv, http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/nope", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, srv, http.MethodOptions, "/api/campaigns/create", "", map[string]string{"Origin": "http://localhost:3000"}, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	call(t, srv, http.MethodGet, "/api/packages", "", nil, nil)
	metricsResp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	var sb bytes.Buffer
	_, _ = sb.ReadFrom(metricsResp.Body)
	assert.Contains(t, sb.String(), `blast_http_requests_total{method="GET",route="/api/packages",status="200"}`)
}

func TestDelayFromConfig(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Zero(t, api.DelayFromConfig(&config.Config{LatencyEnabled: false, LatencyMin: time.Second, LatencyMax: 2 * time.Second})(req))

	d := api.DelayFromConfig(&config.Config{LatencyEnabled: true, LatencyMin: 100 * time.Millisecond, LatencyMax: 600 * time.Millisecond})(req)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.LessOrEqual(t, d, 600*time.Millisecond)
}

func TestServiceRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sender := email.NewRedisSender(rdb, "noreply@blast.example.com")
	require.NoError(t, sender.SendSMS(context.Background(), "+1-310-555-0142", email.VerificationSMS("12345")))

	shutdown := make(chan struct{}, 1)
	r := api.SetupServiceRouter(rdb, shutdown)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"method":"getTestMessage","arguments":["sms","+1-310-555-0142"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "12345")
	assert.False(t, mr.Exists(email.MockSMSKey("+1-310-555-0142")))

	w = post(`{"method":"getTestMessage","arguments":["sms"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(`{"method":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post(`{"method":"shutdown"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case <-shutdown:
	default:
		t.Fatal("shutdown was not signaled")
	}

	noRedis := api.SetupServiceRouter(nil, shutdown)
	w = httptest.NewRecorder()
	noRedis.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{"method":"getTestMessage","arguments":["sms","1"]}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
