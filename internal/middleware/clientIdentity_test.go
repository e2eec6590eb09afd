package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientIdentifier_Precedence(t *testing.T) {
	// header key wins over everything else
	r := httptest.NewRequest("GET", "/ingest?api_key=query-key", nil)
	r.Header.Set("X-API-Key", "header-key")
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.RemoteAddr = "198.51.100.2:4411"
	if got := ClientIdentifier(r); got != "api_key:header-key" {
		t.Fatalf("expected header key, got %q", got)
	}

	// then the query parameter
	r = httptest.NewRequest("GET", "/ingest?api_key=query-key", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	if got := ClientIdentifier(r); got != "api_key:query-key" {
		t.Fatalf("expected query key, got %q", got)
	}

	// then the first forwarded hop
	r = httptest.NewRequest("GET", "/ingest", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 70.41.3.18")
	if got := ClientIdentifier(r); got != "ip:203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}

	// finally the connection's address, without the port
	r = httptest.NewRequest("GET", "/ingest", nil)
	r.RemoteAddr = "198.51.100.2:4411"
	if got := ClientIdentifier(r); got != "ip:198.51.100.2" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestRetryAfterSeconds_RoundsUpToAtLeastOne(t *testing.T) {
	cases := []struct {
		wait float64
		want int
	}{
		{0.01, 1},
		{0.999, 1},
		{1.0, 1},
		{1.2, 2},
		{4.5, 5},
	}
	for _, tc := range cases {
		if got := retryAfterSeconds(tc.wait); got != tc.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tc.wait, got, tc.want)
		}
	}
}
