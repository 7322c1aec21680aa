package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardwatch/internal/testsupport"
)

func TestWebhookTestCommandDelivers(t *testing.T) {
	var captured struct {
		apiKey string
		body   string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.apiKey = r.Header.Get("x-api-key")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	env := setupCLITestEnv(t, testsupport.WithWebhook(server.URL, "secret-key"))

	out, _, err := runCLI(t, []string{"webhook", "test"}, env.configPath)
	if err != nil {
		t.Fatalf("webhook test: %v", err)
	}
	requireContains(t, out, "Delivered test event to")
	requireContains(t, out, "Endpoint replied: OK")

	if captured.apiKey != "secret-key" {
		t.Fatalf("unexpected api key header %q", captured.apiKey)
	}
	requireContains(t, captured.body, `"card_id":"TEST-0000"`)
	requireContains(t, captured.body, `"device_id":"test-device"`)
}

func TestWebhookTestCommandUnconfigured(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"webhook", "test"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without a webhook URL")
	}
	requireContains(t, err.Error(), "no webhook URL configured")
}

func TestWebhookTestCommandReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	env := setupCLITestEnv(t, testsupport.WithWebhook(server.URL, ""))

	_, _, err := runCLI(t, []string{"webhook", "test"}, env.configPath)
	if err == nil {
		t.Fatal("expected delivery failure to surface as an error")
	}
	requireContains(t, err.Error(), "delivery failed")
	requireContains(t, err.Error(), "HTTP 500: boom")
}
