package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"greendrake/blast/internal/api/handlers"
	"greendrake/blast/internal/api/middleware"
	"greendrake/blast/internal/config"
	"greendrake/blast/internal/email"
	"greendrake/blast/internal/services"
	"greendrake/blast/internal/store"
)

// Deps are the collaborators of the public router.
type Deps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Catalog      services.ICatalogService
	Verification services.IVerificationService
	Campaigns    services.ICampaignService
	Checkout     services.ICheckoutService
	Idempotency  store.IdempotencyStore
	// Delay overrides the latency strategy derived from Config.
	Delay middleware.DelayStrategy
}

// DelayFromConfig returns the latency strategy selected by cfg.
func DelayFromConfig(cfg *config.Config) middleware.DelayStrategy {
	if !cfg.LatencyEnabled {
		return middleware.NoDelay
	}
	return middleware.UniformDelay(cfg.LatencyMin, cfg.LatencyMax)
}

// SetupRouter configures and returns the main Gin engine. Background
// housekeeping of the middleware stops when ctx is done.
func SetupRouter(ctx context.Context, deps Deps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	delay := deps.Delay
	if delay == nil {
		delay = DelayFromConfig(cfg)
	}

	mlsHandler := handlers.NewMLSHandler(deps.Catalog, deps.Verification, cfg.ExposeVerificationCodes)
	listingHandler := handlers.NewListingHandler(deps.Catalog)
	campaignHandler := handlers.NewCampaignHandler(deps.Catalog, deps.Campaigns, deps.Checkout)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg.RateLimitBucketSize, cfg.RateLimitRefillRate)
	idempotent := middleware.Idempotency(deps.Idempotency)

	v := r.Group("/api")
	v.Use(rateLimiter.Limit())
	v.Use(middleware.Latency(delay))
	{
		v.GET("/mls_providers", mlsHandler.Providers)
		v.GET("/agents", mlsHandler.Agents)
		v.POST("/mls/verify-agent", mlsHandler.VerifyAgent)
		v.POST("/mls/send-verification-code", mlsHandler.SendVerificationCode)
		v.POST("/mls/verify-code", mlsHandler.VerifyCode)

		v.GET("/listings", listingHandler.Listings)
		v.GET("/listings/search", listingHandler.SearchListings)
		v.GET("/listings/:id", listingHandler.GetListing)
		v.GET("/zipcodes/:code/validate", listingHandler.ValidateZipcode)

		v.GET("/packages", campaignHandler.Packages)
		v.GET("/campaign_durations", campaignHandler.Durations)
		v.POST("/campaigns/create", idempotent, campaignHandler.CreateCampaign)
		v.POST("/checkout/process", idempotent, campaignHandler.ProcessCheckout)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
	})
	return r
}

// SetupServiceRouter configures the internal service Gin engine used by test
// harnesses: it can stop the process and read back mock messages. rdb may be
// nil when mock messages are not kept in Redis.
func SetupServiceRouter(rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			slog.Info("received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				slog.Warn("shutdown channel already signaled")
			}
		case "getTestMessage":
			getTestMessage(c, rdb, req.Arguments)
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestMessage expects arguments [kind, address]. Kind "sms" reads the last
// text sent to a phone number, any other kind the last email of that kind.
func getTestMessage(c *gin.Context, rdb *redis.Client, raw json.RawMessage) {
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Mock messages are not stored"})
		return
	}
	var args []string
	if err := json.Unmarshal(raw, &args); err != nil || len(args) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, address]"})
		return
	}

	redisKey := email.MockEmailKey(args[1], email.Kind(args[0]))
	if args[0] == "sms" {
		redisKey = email.MockSMSKey(args[1])
	}

	// Delivery may still be queued, so poll briefly.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	var data string
	var err error
	for i := 0; i < 10; i++ {
		data, err = rdb.GetDel(ctx, redisKey).Result()
		if err == nil {
			break
		}
		if !errors.Is(err, redis.Nil) {
			slog.ErrorContext(ctx, "service API: redis read failed", "key", redisKey, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test message not found in Redis for key %s", redisKey)})
		return
	}

	var message map[string]interface{}
	if err := json.Unmarshal([]byte(data), &message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": message})
}
