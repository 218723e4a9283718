package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// extractClientIP resolves the caller's IP, trusting proxy headers first.
func extractClientIP(r *http.Request) string {
	clientIP := r.Header.Get("X-Forwarded-For")
	if clientIP == "" {
		clientIP = r.Header.Get("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = r.RemoteAddr
	}
	if i := strings.IndexByte(clientIP, ','); i >= 0 {
		clientIP = strings.TrimSpace(clientIP[:i])
	}
	return clientIP
}

// formatCurrency renders an amount with the configured currency symbol and
// two-decimal precision (e.g., "₹12.34", "-₹50.00").
func formatCurrency(symbol string, d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
