package confluence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRetryExhaustsOnPersistentRateLimit(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	api := testAPI(t, server)
	api.Retry = RetryPolicy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	_, err := api.CurrentUser(context.Background())
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if !IsTransient(err) {
		t.Errorf("exhausted retries should still classify as transient, got %v", err)
	}
	if requests != api.Retry.Attempts+1 {
		t.Errorf("expected %d requests (1 + %d retries), saw %d", api.Retry.Attempts+1, api.Retry.Attempts, requests)
	}
}

func TestRetryHonoursRetryAfterHint(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"displayName":"Someone"}`))
	}))
	defer server.Close()

	api := testAPI(t, server)
	// Tiny configured backoff, so any observable wait must come from the
	// server's hint.
	api.Retry = RetryPolicy{Attempts: 2, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	start := time.Now()
	if _, err := api.CurrentUser(context.Background()); err != nil {
		t.Fatalf("expected recovery after the hinted wait, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("hinted wait of 1s not honoured, retried after %v", elapsed)
	}
	if requests != 2 {
		t.Errorf("expected 2 requests, saw %d", requests)
	}
}

func TestRetryRecoversFromServerErrors(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"displayName":"Someone","email":"someone@example.com"}`))
	}))
	defer server.Close()

	api := testAPI(t, server)
	api.Retry = RetryPolicy{Attempts: 4, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	user, err := api.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("expected recovery after transient errors, got %v", err)
	}
	if user.DisplayName != "Someone" {
		t.Errorf("unexpected user: %+v", user)
	}
	if requests != 3 {
		t.Errorf("expected 3 requests, saw %d", requests)
	}
}

func TestRetryNeverRetriesAuthFailure(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	api := testAPI(t, server)

	_, err := api.CurrentUser(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if requests != 1 {
		t.Errorf("auth failure retried: saw %d requests", requests)
	}
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	api := testAPI(t, server)
	api.Retry = RetryPolicy{Attempts: 10, Backoff: time.Minute, MaxBackoff: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := api.CurrentUser(ctx)
	if err == nil {
		t.Fatal("expected an error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation should interrupt backoff, took %v", elapsed)
	}
}

func TestExportPagePDFRequiresPDFContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Status 200 but an HTML body: Confluence serving an error page.
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>export is not possible here</html>"))
	}))
	defer server.Close()

	api := testAPI(t, server)

	_, err := api.ExportPagePDF(context.Background(), "DOCS", "1000")
	if !errors.Is(err, ErrExportUnavailable) {
		t.Fatalf("expected ErrExportUnavailable for non-PDF response, got %v", err)
	}
}

func TestExportPagePDFFallsBackToLegacyEndpoint(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wiki/spaces/DOCS/pdfpageexport.action":
			w.WriteHeader(http.StatusNotFound)
		case "/wiki/exportword":
			if got := r.URL.Query().Get("exportType"); got != "PDF" {
				t.Errorf("expected exportType=PDF, got '%s'", got)
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(pdf)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	api := testAPI(t, server)

	data, err := api.ExportPagePDF(context.Background(), "DOCS", "1000")
	if err != nil {
		t.Fatalf("ExportPagePDF failed: %v", err)
	}
	if string(data) != string(pdf) {
		t.Errorf("unexpected PDF bytes: %q", data)
	}
}
