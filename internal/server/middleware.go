package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// ipHasher turns client addresses into stable, salted pseudonyms so access
// logs never hold raw IPs. The salt lives for the process only.
type ipHasher struct {
	salt string
}

func newIPHasher() ipHasher {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return ipHasher{salt: hex.EncodeToString(b)}
}

func (h ipHasher) hash(ip string) string {
	sum := sha256.Sum256([]byte(ip + h.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// accessLog writes one structured line per request. Clients sending DNT get
// no client field at all.
func accessLog(log *slog.Logger, hasher ipHasher) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if c.GetHeader("DNT") != "1" {
			attrs = append(attrs, "client", hasher.hash(c.ClientIP()))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("Request failed", attrs...)
		case c.Writer.Status() >= 400:
			log.Warn("Request rejected", attrs...)
		default:
			log.Info("Request served", attrs...)
		}
	}
}
