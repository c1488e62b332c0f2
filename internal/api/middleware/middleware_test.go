package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greendrake/blast/internal/api/middleware"
	"greendrake/blast/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/x", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	w = perform(r, http.MethodGet, "/x", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodOptions, "/x", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := middleware.NewRateLimiterMiddleware(ctx, 2, 1)
	r := gin.New()
	r.Use(rl.Limit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", nil).Code)

	w := perform(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Rate limit exceeded"}`, w.Body.String())
}

func TestUniformDelay(t *testing.T) {
	strategy := middleware.UniformDelay(100*time.Millisecond, 600*time.Millisecond)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for i := 0; i < 500; i++ {
		d := strategy(req)
		require.GreaterOrEqual(t, d, 100*time.Millisecond)
		require.LessOrEqual(t, d, 600*time.Millisecond)
	}
	assert.Equal(t, 50*time.Millisecond, middleware.UniformDelay(50*time.Millisecond, 50*time.Millisecond)(req))
	assert.Zero(t, middleware.NoDelay(req))
}

func TestLatency_UsesStrategy(t *testing.T) {
	var seen atomic.Int32
	r := gin.New()
	r.Use(middleware.Latency(func(*http.Request) time.Duration {
		seen.Add(1)
		return 20 * time.Millisecond
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	start := time.Now()
	w := perform(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int32(1), seen.Load())
}

func TestLatency_CancelledRequestIsAborted(t *testing.T) {
	var handled atomic.Bool
	r := gin.New()
	r.Use(middleware.Latency(func(*http.Request) time.Duration { return time.Hour }))
	r.GET("/x", func(c *gin.Context) { handled.Store(true) })

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(httptest.NewRecorder(), req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("latency middleware ignored cancellation")
	}
	assert.False(t, handled.Load())
}

func idempotentRouter(t *testing.T) (*gin.Engine, *atomic.Int32) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var calls atomic.Int32
	r := gin.New()
	r.Use(middleware.Idempotency(store.NewMemoryIdempotencyStore(ctx, time.Minute)))
	r.POST("/orders", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"call": n})
	})
	r.POST("/other", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"call": n})
	})
	r.POST("/fails", func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
	})
	return r, &calls
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	r, calls := idempotentRouter(t)
	key := map[string]string{middleware.HeaderIdempotencyKey: "k1"}

	first := perform(r, http.MethodPost, "/orders", key)
	second := perform(r, http.MethodPost, "/orders", key)

	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(middleware.HeaderReplayed))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, int32(1), calls.Load())

	// Same key on another route is a different request.
	perform(r, http.MethodPost, "/other", key)
	assert.Equal(t, int32(2), calls.Load())

	// No key, no deduplication.
	perform(r, http.MethodPost, "/orders", nil)
	perform(r, http.MethodPost, "/orders", nil)
	assert.Equal(t, int32(4), calls.Load())
}

func TestIdempotency_FailuresAreNotCached(t *testing.T) {
	r, calls := idempotentRouter(t)
	key := map[string]string{middleware.HeaderIdempotencyKey: "k2"}

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/fails", key).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/fails", key).Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_SameKeyDifferentBodyIsRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	r := gin.New()
	r.Use(middleware.Idempotency(store.NewMemoryIdempotencyStore(ctx, time.Minute)))
	r.POST("/campaigns", func(c *gin.Context) {
		calls.Add(1)
		body, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.Data(http.StatusOK, "application/json", body)
	})
	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(body))
		req.Header.Set(middleware.HeaderIdempotencyKey, "k3")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send(`{"duration":"4weeks"}`)
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"duration":"4weeks"}`, first.Body.String())

	changed := send(`{"duration":"1weeks"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, changed.Code)
	assert.Contains(t, changed.Body.String(), middleware.MsgKeyReused)
	assert.Empty(t, changed.Header().Get(middleware.HeaderReplayed))

	again := send(`{"duration":"4weeks"}`)
	assert.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get(middleware.HeaderReplayed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf strings.Builder
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log))
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.RID(c.Request.Context()))
	})

	w := perform(r, http.MethodGet, "/x", nil)
	rid := w.Header().Get(middleware.HeaderRequestID)
	assert.Len(t, rid, 16)
	body, _ := io.ReadAll(w.Body)
	assert.Equal(t, rid, string(body))
	assert.Contains(t, buf.String(), `"rid":"`+rid+`"`)
	assert.Contains(t, buf.String(), `"status":200`)

	w = perform(r, http.MethodGet, "/x", map[string]string{middleware.HeaderRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(middleware.HeaderRequestID))
}
