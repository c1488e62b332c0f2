package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"greendrake/blast/internal/metrics"
	"greendrake/blast/internal/store"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// responseCapture wraps gin.ResponseWriter to capture the response body.
type responseCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

func (rc *responseCapture) WriteString(s string) (int, error) {
	rc.body.WriteString(s)
	return rc.ResponseWriter.WriteString(s)
}

// MsgKeyReused answers a known Idempotency-Key sent with a different request.
const MsgKeyReused = "Idempotency-Key was already used for a different request"

// fingerprint identifies a request by method, path and body.
func fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func rejectReusedKey(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"success": false, "message": MsgKeyReused})
}

// Idempotency ensures that mutating requests carrying an Idempotency-Key
// header are processed once per key and route. Repeats of the same request,
// including ones that arrive while the first is still running, receive the
// first response. A different request under a known key gets 422. Only 2xx
// responses are cached, so a failed request may be retried with its key.
func Idempotency(idem store.IdempotencyStore) gin.HandlerFunc {
	var inflight singleflight.Group

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		key = c.FullPath() + "|" + key
		ctx := c.Request.Context()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": "Failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		fp := fingerprint(c.Request.Method, c.Request.URL.Path, body)

		if cached, ok := idem.Check(ctx, key); ok {
			if cached.Fingerprint != fp {
				rejectReusedKey(c)
				return
			}
			replay(c, cached)
			return
		}

		leader := false
		v, _, _ := inflight.Do(key, func() (interface{}, error) {
			leader = true
			capture := &responseCapture{ResponseWriter: c.Writer}
			c.Writer = capture
			c.Next()

			resp := &store.CachedResponse{
				StatusCode:  capture.Status(),
				Headers:     capture.Header().Clone(),
				Body:        capture.body.Bytes(),
				Fingerprint: fp,
				CachedAt:    time.Now(),
			}
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				idem.Set(ctx, key, *resp)
			}
			return resp, nil
		})
		if leader {
			return
		}

		resp := v.(*store.CachedResponse)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// The first attempt failed, so this one runs on its own.
			c.Next()
			return
		}
		if resp.Fingerprint != fp {
			rejectReusedKey(c)
			return
		}
		replay(c, resp)
	}
}

func replay(c *gin.Context, cached *store.CachedResponse) {
	metrics.IdempotentReplays.Inc()
	for k, vals := range cached.Headers {
		if k == HeaderRequestID {
			continue
		}
		for _, v := range vals {
			c.Writer.Header().Set(k, v)
		}
	}
	c.Header(HeaderReplayed, "true")
	c.Data(cached.StatusCode, c.Writer.Header().Get("Content-Type"), cached.Body)
	c.Abort()
}
