package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	errs "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/server/response"
	"github.com/gin-gonic/gin"
)

func limitRateBySender(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: rateLimitErrorHandler,
		KeyFunc:      keyFunc,
	})
}

func rateLimitErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", info.ResetTime.UTC().Format(http.TimeFormat))
	respondAndAbort(c, "", http.StatusTooManyRequests, nil, errs.New("too many requests, try again later", http.StatusTooManyRequests))
}

// rateKey holds the body fields that identify who is writing.
type rateKey struct {
	Sender    string `json:"sender"`
	UserEmail string `json:"userEmail"`
}

// keyFunc limits by the sender or userEmail in the body, falling back to the
// client IP. The body is restored for the handler.
func keyFunc(c *gin.Context) string {
	buf, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return c.ClientIP()
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(buf))

	var key rateKey
	if err := json.Unmarshal(buf, &key); err != nil {
		return c.ClientIP()
	}
	switch {
	case strings.TrimSpace(key.Sender) != "":
		return strings.ToLower(strings.TrimSpace(key.Sender))
	case strings.TrimSpace(key.UserEmail) != "":
		return strings.ToLower(strings.TrimSpace(key.UserEmail))
	}
	return c.ClientIP()
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e *errs.Error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}
