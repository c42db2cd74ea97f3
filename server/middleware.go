package server

import (
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"folio/metrics"
	"folio/util/goroutine"

	"golang.org/x/time/rate"
)

const stackTraceBufferSize = 4096

// rateLimitMiddleware answers 429 once a client IP exceeds its token bucket.
// A zero rate disables limiting.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits := s.config.Server.RateLimit
		if limits.RequestsPerSecond > 0 {
			ip := getRealIP(r, s.config.Server.TrustProxy, s.config.Server.TrustedProxyNetworks)
			if !s.limiterFor(ip, limits.RequestsPerSecond, limits.Burst).Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// limiterFor returns the bucket of ip, creating it on first use
func (s *Server) limiterFor(ip string, rps, burst int) *rate.Limiter {
	now := time.Now()

	s.rateLimitersMu.Lock()
	defer s.rateLimitersMu.Unlock()

	entry, ok := s.rateLimiters[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		s.rateLimiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// cleanupRateLimiters periodically removes inactive rate limiters
func (s *Server) cleanupRateLimiters() {
	defer goroutine.Recover("rate-limiter-cleanup", s.logger)

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.rateLimitersMu.Lock()
			for ip, entry := range s.rateLimiters {
				if time.Since(entry.lastSeen) > time.Hour {
					delete(s.rateLimiters, ip)
				}
			}
			s.rateLimitersMu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

// securityHeadersMiddleware adds Content Security Policy and related headers
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy",
				"default-src 'self'; "+
					"img-src 'self' data:; "+
					"style-src 'self'; "+
					"script-src 'self'; "+
					"frame-ancestors 'none'; "+
					"base-uri 'self'; "+
					"form-action 'self'")
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		if s.config.Server.TLS && s.config.Security.EnableHSTS {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// errorRecoveryMiddleware recovers handler panics. The stack trace is logged
// server-side only.
func (s *Server) errorRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				buf := make([]byte, stackTraceBufferSize)
				n := runtime.Stack(buf, false)

				s.logger.Errorw("Handler panic recovered",
					"error", fmt.Sprintf("%v", err),
					"request_id", GetRequestIDOrDefault(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack_trace", string(buf[:n]),
				)
				metrics.HTTPPanics.WithLabelValues(r.Method).Inc()

				writeError(w, http.StatusInternalServerError, "Internal server error", fmt.Errorf("panic: %v", err), nil)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// getRealIP extracts the real client IP from the request, considering proxy trust settings
func getRealIP(r *http.Request, trustProxy bool, trustedNetworks []string) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}
	if !trustProxy || !isTrustedProxy(directIP, trustedNetworks) {
		return directIP
	}

	// X-Forwarded-For can contain multiple IPs, the first one is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}

	return directIP
}

// isTrustedProxy checks if an IP address is in the list of trusted proxy networks
func isTrustedProxy(ip string, trustedNetworks []string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, network := range trustedNetworks {
		if strings.Contains(network, "/") {
			_, ipNet, err := net.ParseCIDR(network)
			if err == nil && ipNet.Contains(parsedIP) {
				return true
			}
		} else if network == ip {
			return true
		}
	}
	return false
}
