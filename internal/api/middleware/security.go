package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the standard hardening headers. Development mode
// relaxes CSP for hot reloading and skips HSTS.
func SecurityHeaders(isDevelopment bool) gin.HandlerFunc {
	csp := buildCSP(isDevelopment)
	permissions := strings.Join([]string{
		"accelerometer=()",
		"camera=()",
		"geolocation=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}, ", ")

	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)
		if !isDevelopment {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", permissions)
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Cross-Origin-Resource-Policy", "same-origin")
		c.Next()
	}
}

func buildCSP(isDevelopment bool) string {
	scriptSrc := "'self'"
	connectSrc := "'self'"
	if isDevelopment {
		scriptSrc = "'self' 'unsafe-inline' 'unsafe-eval'"
		connectSrc = "'self' ws: wss:"
	}
	directives := []string{
		"default-src 'self'",
		"script-src " + scriptSrc,
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"font-src 'self' data:",
		"connect-src " + connectSrc,
		"frame-src 'none'",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}
