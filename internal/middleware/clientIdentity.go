package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIdentifier picks the rate limiting key for a request. Precedence is
// API key header, then api_key query parameter, then the first hop of
// X-Forwarded-For, then the connection's remote address. Keys carry an
// "api_key:" or "ip:" prefix so the two namespaces never collide.
func ClientIdentifier(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return "api_key:" + apiKey
	}
	if apiKey := r.URL.Query().Get("api_key"); apiKey != "" {
		return "api_key:" + apiKey
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
		if first != "" {
			return "ip:" + first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
