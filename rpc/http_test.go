package rpc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientSource(t *testing.T) {
	cases := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.9:41522", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
		{"", ""},
	}
	for _, tc := range cases {
		r := &http.Request{RemoteAddr: tc.remoteAddr}
		if got := clientSource(r); got != tc.want {
			t.Fatalf("clientSource(%q) = %q, want %q", tc.remoteAddr, got, tc.want)
		}
	}
}

func TestAllowSourceWindowResets(t *testing.T) {
	srv := &Server{rateLimiters: make(map[string]*rateLimiter)}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < maxTxPerWindow; i++ {
		if !srv.allowSource("203.0.113.9", start) {
			t.Fatalf("call %d throttled inside the window", i)
		}
	}
	if srv.allowSource("203.0.113.9", start.Add(30*time.Second)) {
		t.Fatalf("call above the window limit allowed")
	}
	if !srv.allowSource("198.51.100.4", start) {
		t.Fatalf("unrelated source throttled")
	}
	if !srv.allowSource("203.0.113.9", start.Add(rateLimitWindow)) {
		t.Fatalf("call after window reset throttled")
	}
}

func TestRequireAuthVariants(t *testing.T) {
	srv := &Server{authToken: "secret"}

	newReq := func(header string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	if err := srv.requireAuth(newReq("Bearer secret")); err != nil {
		t.Fatalf("valid token rejected: %+v", err)
	}
	for _, header := range []string{"", "Basic secret", "Bearer ", "Bearer nope"} {
		if err := srv.requireAuth(newReq(header)); err == nil {
			t.Fatalf("header %q accepted", header)
		}
	}

	unconfigured := &Server{}
	if err := unconfigured.requireAuth(newReq("Bearer secret")); err == nil {
		t.Fatalf("auth passed without a configured token")
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tick_current","params":[{"pad":"` +
		strings.Repeat("x", maxRequestBytes) + `"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.RemoteAddr = "192.0.2.10:51000"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}
