// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The API serves JSON (plus uploaded
// receipt images under /uploads) and normally sits behind a reverse proxy,
// so the header set is the conservative one for that shape: nosniff and
// frame denial always, HSTS only when traffic is provably HTTPS, and
// optional no-store caching rules for order data.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
//
// EnableHSTS turns on Strict-Transport-Security for HTTPS requests only.
// Leave it off unless the proxy-to-app hop is also HTTPS; never enable it
// for localhost.
//
// HSTSMaxAge is the HSTS lifetime; zero or negative falls back to 180 days.
//
// NoStore adds Cache-Control: no-store (plus the legacy Pragma and Expires
// forms). Order and invoice responses carry customer PII, so production
// config sets this.
//
// EnablePolicy adds Permissions-Policy and
// X-Permitted-Cross-Domain-Policies. Browsers honor them; API clients
// ignore them.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// SecurityHeaders returns a Gin middleware that stamps hardening headers on
// every response.
//
// Always set:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//
// Conditionally set per SecurityOptions: Permissions-Policy and
// X-Permitted-Cross-Domain-Policies (EnablePolicy), the no-store trio
// (NoStore), and Strict-Transport-Security (EnableHSTS, HTTPS requests
// only). When an X-Request-ID response header is present it is added to
// Access-Control-Expose-Headers so browser clients can read it for support
// tickets.
//
// No Content-Security-Policy is emitted; nothing here serves HTML.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security",
				"max-age="+strconv.Itoa(maxAge)+"; includeSubDomains; preload")
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			// Append without clobbering headers CORS may have exposed.
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, "X-Request-ID")
			} else if !strings.Contains(cur, "X-Request-ID") {
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over HTTPS, either terminated
// here (r.TLS != nil) or at a proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
