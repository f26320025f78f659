// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger. Every customer on this API is keyed
// by phone number, and order lookups carry emails and addresses, so raw
// access logs would be a PII dump. The logger scrubs request metadata before
// it reaches zerolog:
//
//   - Request and response bodies are never logged.
//   - Phone numbers, email addresses, and UUID-shaped identifiers are
//     replaced in query strings and header values.
//   - Authorization, Cookie, and Set-Cookie are always fully masked, plus
//     any header named in RedactOptions.MaskHeaders.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Hub-Signature-256"},
//	}))
//
// Scrubbing is best effort. Clients should still keep phone numbers out of
// query strings where the route allows it.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures extra scrubbing for RedactingLogger.
//
// MaskHeaders lists additional header names whose values are replaced
// wholesale with "[REDACTED]". Names are matched case-insensitively and
// merged with the built-in set (Authorization, Cookie, Set-Cookie).
type RedactOptions struct {
	MaskHeaders []string
}

// maxQueryLogLength caps how much of the raw query string ends up in a log
// line.
const maxQueryLogLength = 2048

// RedactingLogger returns a Gin middleware that emits one structured log
// line per request: method, path, scrubbed query, status, response size,
// latency, request ID, and scrubbed headers. Severity is info, warn for
// 4xx, error for 5xx. It also attaches a request-scoped logger to the Gin
// context for LoggerFrom, pre-tagged with the correlation ID, method, and
// route.
//
// NOTE: UUIDs must be redacted before phone numbers, otherwise the loose
// phone pattern eats the digit/hyphen runs inside a UUID.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	uuidRE := regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE := regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so hex runs from UUIDs cannot match. Covers the forms
	// customers actually send: "+30 694 123 4567", "(212) 555-1212",
	// "212 555 1212".
	phoneRE := regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)

	redact := func(s string) string {
		if s == "" {
			return s
		}
		out := s
		// Order matters: IDs first, then email, then the loose phone pattern.
		out = uuidRE.ReplaceAllString(out, "[REDACTED:id]")
		out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
		out = phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
		return out
	}

	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		// Prefer the route template so order IDs in the path stay out of
		// logs too; fall back to the raw path for unmatched requests.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			val := strings.Join(vv, ", ")
			if _, masked := maskHeaders[strings.ToLower(k)]; masked {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(val)
		}

		rid, _ := c.Get(requestIDKey)
		scoped := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &scoped)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
