package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"llama-chatter/internal/chat"
	"llama-chatter/internal/history"
)

func TestIPLimiter_PerClientBuckets(t *testing.T) {
	l := newIPLimiter(1, 2)
	base := time.Unix(1000, 0)
	l.now = func() time.Time { return base }

	if !l.allow("1.1.1.1") || !l.allow("1.1.1.1") {
		t.Fatal("burst should be allowed")
	}
	if l.allow("1.1.1.1") {
		t.Fatal("third request in the same instant must be refused")
	}
	if !l.allow("2.2.2.2") {
		t.Fatal("other clients have their own bucket")
	}

	l.now = func() time.Time { return base.Add(time.Second) }
	if !l.allow("1.1.1.1") {
		t.Fatal("bucket should refill after a second")
	}
}

func TestIPLimiter_PrunesIdleClients(t *testing.T) {
	l := newIPLimiter(1, 1)
	base := time.Unix(1000, 0)
	l.now = func() time.Time { return base }
	l.allow("1.1.1.1")

	l.now = func() time.Time { return base.Add(limiterIdle + 2*time.Minute) }
	l.allow("2.2.2.2")
	if _, ok := l.clients["1.1.1.1"]; ok {
		t.Fatal("idle client was not pruned")
	}
	if len(l.clients) != 1 {
		t.Fatalf("want 1 client, got %d", len(l.clients))
	}
}

func TestSend_RateLimited(t *testing.T) {
	f := &fakeLLM{replies: []string{"One.", "Two."}}
	srv, err := New(chat.New(f, chat.Options{}), history.NewManager(20), Options{RateLimit: 0.001, RateBurst: 1})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	h := srv.Handler()

	if code := postFrom(h, "10.0.0.1:5555", ""); code != http.StatusSeeOther {
		t.Fatalf("first send: want 303, got %d", code)
	}
	if code := postFrom(h, "10.0.0.1:5555", ""); code != http.StatusTooManyRequests {
		t.Fatalf("second send: want 429, got %d", code)
	}
	if len(f.calls) != 1 {
		t.Fatalf("limited request reached the model: %d calls", len(f.calls))
	}
}

func postFrom(h http.Handler, remote, forwarded string) int {
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(url.Values{"message": {"hi"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = remote
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestSend_ForwardedHeadersIgnoredByDefault(t *testing.T) {
	f := &fakeLLM{}
	srv, err := New(chat.New(f, chat.Options{}), history.NewManager(20), Options{RateLimit: 0.001, RateBurst: 1})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	h := srv.Handler()

	var codes []int
	for i := 0; i < 5; i++ {
		codes = append(codes, postFrom(h, "10.0.0.1:5555", "203.0.113."+strconv.Itoa(i)))
	}
	if codes[0] != http.StatusSeeOther {
		t.Fatalf("first send: want 303, got %d", codes[0])
	}
	for i, c := range codes[1:] {
		if c != http.StatusTooManyRequests {
			t.Fatalf("send %d with a new X-Forwarded-For: want 429, got %d (codes=%v)", i+2, c, codes)
		}
	}
	if len(f.calls) != 1 {
		t.Fatalf("want 1 model call, got %d", len(f.calls))
	}
}

func TestSend_TrustProxyKeysOnForwardedAddress(t *testing.T) {
	f := &fakeLLM{}
	srv, err := New(chat.New(f, chat.Options{}), history.NewManager(20), Options{RateLimit: 0.001, RateBurst: 1, TrustProxy: true})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	h := srv.Handler()

	if c := postFrom(h, "10.0.0.1:5555", "203.0.113.1"); c != http.StatusSeeOther {
		t.Fatalf("client 1: want 303, got %d", c)
	}
	if c := postFrom(h, "10.0.0.1:5555", "203.0.113.2"); c != http.StatusSeeOther {
		t.Fatalf("client 2 behind the same proxy: want 303, got %d", c)
	}
	if c := postFrom(h, "10.0.0.1:5555", "203.0.113.1"); c != http.StatusTooManyRequests {
		t.Fatalf("client 1 again: want 429, got %d", c)
	}
}
