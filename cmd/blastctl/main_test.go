package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"greendrake/blast/internal/api"
	"greendrake/blast/internal/api/middleware"
	"greendrake/blast/internal/client"
	"greendrake/blast/internal/config"
	"greendrake/blast/internal/email"
	"greendrake/blast/internal/fixtures"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/services"
	"greendrake/blast/internal/store"
	"greendrake/blast/internal/tasks"
	"greendrake/blast/internal/wizard"
)

type harness struct {
	apiURL    string
	stateFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
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
	fx := fixtures.MustEmbedded()
	dispatcher := tasks.NewInlineDispatcher(tasks.NewTaskProcessor(cfg, &email.LoggingSender{}, email.LoggingSMSSender{}))
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

	return &harness{
		apiURL:    srv.URL + "/api",
		stateFile: filepath.Join(t.TempDir(), "wizard.json"),
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--api-url", h.apiURL, "--state-file", h.stateFile}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCatalogCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "providers")
	require.NoError(t, err)
	var providers []models.MLSProvider
	require.NoError(t, json.Unmarshal([]byte(out), &providers))
	assert.Len(t, providers, 5)

	out, err = h.run(t, "", "agents", "--mls", "crmls")
	require.NoError(t, err)
	assert.Contains(t, out, "Chris Trapani")
	assert.NotContains(t, out, "Brian Evans")

	out, err = h.run(t, "", "verify-agent", "crmls", "5084612")
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)

	_, err = h.run(t, "", "verify-agent", "crmls", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), services.MsgAgentNotFound)

	out, err = h.run(t, "", "listings", "search", "--zip", "53202")
	require.NoError(t, err)
	assert.Contains(t, out, "listing_003")

	out, err = h.run(t, "", "listings", "get", "listing_004")
	require.NoError(t, err)
	assert.Contains(t, out, "Bothell")

	out, err = h.run(t, "", "zipcode", "validate", "00000")
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": false`)

	out, err = h.run(t, "", "packages")
	require.NoError(t, err)
	assert.Contains(t, out, "package_listing")

	out, err = h.run(t, "", "durations")
	require.NoError(t, err)
	assert.Contains(t, out, "4weeks")

	_, err = h.run(t, "", "verify-agent", "crmls")
	assert.Error(t, err, "argument count is enforced")
}

func TestVerificationCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "send-code", "agent_002", "--method", "email")
	require.NoError(t, err)
	var sent models.SendVerificationCodeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &sent))
	require.Len(t, sent.Code, 5)

	out, err = h.run(t, "", "verify-code", "agent_002", sent.Code)
	require.NoError(t, err)
	assert.Contains(t, out, services.MsgCodeVerified)

	_, err = h.run(t, "", "verify-code", "agent_002", sent.Code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestCampaignAndCheckoutCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "campaign", "create", "--target", "53202", "--idempotency-key", "k1")
	require.NoError(t, err)
	var created models.CreateCampaignResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, 343.14, created.Campaign.FinalAmount)

	out, err = h.run(t, "", "campaign", "create", "--target", "53202", "--idempotency-key", "k1")
	require.NoError(t, err)
	var replayed models.CreateCampaignResponse
	require.NoError(t, json.Unmarshal([]byte(out), &replayed))
	assert.Equal(t, created.Campaign.ID, replayed.Campaign.ID)

	_, err = h.run(t, "", "campaign", "create")
	assert.Error(t, err, "--target is required")

	_, err = h.run(t, "", "checkout", created.Campaign.ID, "--accept-terms=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), services.MsgTermsNotAccepted)

	out, err = h.run(t, "", "checkout", created.Campaign.ID, "--email", "buyer@example.com")
	require.NoError(t, err)
	var order models.CheckoutResponse
	require.NoError(t, json.Unmarshal([]byte(out), &order))
	assert.Equal(t, "buyer@example.com", order.ConfirmationEmail)
	assert.Equal(t, models.CampaignStatusActive, order.CampaignStatus)
}

func TestWizardCommand(t *testing.T) {
	h := newHarness(t)

	// Stop after the first step; the answers must survive.
	out, err := h.run(t, "crmls\n5084612\n\nn\n", "wizard")
	require.Error(t, err)
	assert.Contains(t, out, "Step 1 of 4: mls-verification")
	assert.Contains(t, out, "Step 2 of 4: ads-preview")

	out, err = h.run(t, "", "wizard", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Next step: ads-preview (50%)")
	assert.Contains(t, out, `"agentName": "Chris Trapani"`)

	// Resume: pick a bad ad, then go back and forward again, then finish.
	script := strings.Join([]string{
		"", "7", // platform, invalid ad
		":back",                       // back to step 1
		"", "", "", "n",               // keep saved MLS answers
		"pc", "2",                     // ad preview
		"", "", "", "",                // package defaults
		"", "",                        // checkout defaults
	}, "\n") + "\n"
	out, err = h.run(t, script, "wizard")
	require.NoError(t, err)
	assert.Contains(t, out, "Please choose one of the previews")
	assert.Contains(t, out, "$316.00 + $27.14 tax = $343.14")
	assert.Contains(t, out, "is active; a confirmation goes to Alexander@lofty.com")

	raw, ok, err := wizard.NewFileStore(h.stateFile).Get(wizard.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var saved wizard.FormData
	require.NoError(t, json.Unmarshal(raw, &saved))
	assert.True(t, saved.Done())
	assert.Equal(t, "pc", saved.AdPlatform)
	assert.Equal(t, 2, saved.AdVariant)

	out, err = h.run(t, "", "wizard")
	require.NoError(t, err)
	assert.Contains(t, out, "already placed")

	out, err = h.run(t, "", "wizard", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")

	out, err = h.run(t, "", "wizard", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Next step: mls-verification (25%)")
}

// lostResponseTransport delivers the first campaign create to the server and
// then drops the response, as a client timeout would.
type lostResponseTransport struct {
	mu        sync.Mutex
	dropped   bool
	committed models.CreateCampaignResponse
	keys      []string
}

func (l *lostResponseTransport) Do(req *http.Request) (*http.Response, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil || req.Method != http.MethodPost || !strings.HasSuffix(req.URL.Path, "/campaigns/create") {
		return resp, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, req.Header.Get(middleware.HeaderIdempotencyKey))
	if l.dropped {
		return resp, nil
	}
	l.dropped = true
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&l.committed); err != nil {
		return nil, err
	}
	return nil, errors.New("read: connection reset by peer")
}

func TestRunWizard_RetryAfterLostResponseReusesCampaign(t *testing.T) {
	h := newHarness(t)
	transport := &lostResponseTransport{}
	c := client.New(h.apiURL, 5*time.Second, client.WithHTTPClient(transport))

	coord := wizard.NewBlastCoordinator(wizard.NewMemoryStore())
	require.NoError(t, coord.UpdateFormData(wizard.Patch{
		"mlsId":         "crmls",
		"agentId":       "5084612",
		"agentRecordId": "agent_001",
		"agentVerified": true,
		"adVariant":     1,
	}))
	require.True(t, coord.GoToStep(2))

	script := strings.Repeat("\n", 4) + // package defaults, lost response
		strings.Repeat("\n", 4) + // same answers again
		strings.Repeat("\n", 2) // checkout defaults
	var out bytes.Buffer
	require.NoError(t, runWizard(context.Background(), c, coord, newPrompter(strings.NewReader(script), &out)))

	assert.Contains(t, out.String(), "connection reset by peer")
	require.Len(t, transport.keys, 2)
	assert.NotEmpty(t, transport.keys[0])
	assert.Equal(t, transport.keys[0], transport.keys[1])

	require.NotEmpty(t, transport.committed.Campaign.ID)
	d := coord.Data()
	assert.Equal(t, transport.committed.Campaign.ID, d.CampaignID)
	assert.Equal(t, models.CampaignStatusActive, d.CampaignStatus)
	assert.True(t, d.Done())
}
