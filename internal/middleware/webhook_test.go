package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sigHeader = "X-Signature"

func signedHandler(t *testing.T, secret string) http.Handler {
	t.Helper()
	return WebhookHMAC(secret, sigHeader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHMACValidSignature(t *testing.T) {
	body := `{"id":"item-1"}`
	req := httptest.NewRequest(http.MethodPost, "/enqueue/brand-1", strings.NewReader(body))
	req.Header.Set(sigHeader, sign("s3cret", []byte(body)))
	rec := httptest.NewRecorder()

	signedHandler(t, "s3cret").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// The middleware must restore the body for the downstream handler.
	if rec.Body.String() != body {
		t.Errorf("body = %q, want %q", rec.Body.String(), body)
	}
}

func TestWebhookHMACPrefixedSignature(t *testing.T) {
	body := `{"id":"item-1"}`
	req := httptest.NewRequest(http.MethodPost, "/enqueue/brand-1", strings.NewReader(body))
	req.Header.Set(sigHeader, "sha256="+sign("s3cret", []byte(body)))
	rec := httptest.NewRecorder()

	signedHandler(t, "s3cret").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestWebhookHMACMissingSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/enqueue/brand-1", strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	signedHandler(t, "s3cret").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWebhookHMACInvalidSignature(t *testing.T) {
	body := `{"id":"item-1"}`
	req := httptest.NewRequest(http.MethodPost, "/enqueue/brand-1", strings.NewReader(body))
	req.Header.Set(sigHeader, sign("wrong-secret", []byte(body)))
	rec := httptest.NewRecorder()

	signedHandler(t, "s3cret").ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestWebhookHMACNoSecretPassesThrough(t *testing.T) {
	// With no secret configured, unsigned callbacks go straight through.
	req := httptest.NewRequest(http.MethodPost, "/enqueue/brand-1", strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	signedHandler(t, "").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 without a configured secret", rec.Code)
	}
}
