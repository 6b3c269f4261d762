package localdump

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hfrost/confluence-pdf-dump/confluence"
)

// exportViewServer serves one page body for the conversion fallback.
func exportViewServer(t *testing.T, html string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/rest/api/content/42", func(w http.ResponseWriter, r *http.Request) {
		page := confluence.Page{
			ID:      "42",
			Title:   "Answer",
			Version: &confluence.Version{Number: 7},
		}
		if html != "" {
			page.Body.ExportView = &confluence.Storage{
				Representation: "export_view",
				Value:          html,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/download/attachments/42/pixel.png", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
			t.Errorf("couldn't encode test image: %v", err)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	})

	return httptest.NewServer(mux)
}

func convertExporterFor(t *testing.T, server *httptest.Server) *ConvertExporter {
	t.Helper()

	api, err := confluence.NewAPI(server.URL, "someone@example.com", "secret-token")
	if err != nil {
		t.Fatalf("NewAPI failed: %v", err)
	}
	api.Client = server.Client()
	api.Retry = confluence.RetryPolicy{Attempts: 1, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	return &ConvertExporter{API: api}
}

func TestConvertExporterRendersPDF(t *testing.T) {
	server := exportViewServer(t, "<h1>Answer</h1><p>Deep thought said <strong>42</strong>.</p>")
	defer server.Close()

	e := convertExporterFor(t, server)

	data, err := e.Export(context.Background(), confluence.Page{ID: "42", Title: "Answer"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("output does not look like a PDF, starts with %q", data[:8])
	}
}

func TestConvertExporterEmbedsAttachmentImages(t *testing.T) {
	server := exportViewServer(t, `<p>before</p><p><img src="/download/attachments/42/pixel.png" alt="pixel"/></p>`)
	defer server.Close()

	e := convertExporterFor(t, server)

	data, err := e.Export(context.Background(), confluence.Page{ID: "42", Title: "Answer"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("output does not look like a PDF")
	}
}

func TestConvertExporterRejectsPagesWithoutExportView(t *testing.T) {
	server := exportViewServer(t, "")
	defer server.Close()

	e := convertExporterFor(t, server)

	_, err := e.Export(context.Background(), confluence.Page{ID: "42", Title: "Answer"})
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

func TestConvertExporterPassesThroughAuthFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	e := convertExporterFor(t, server)

	_, err := e.Export(context.Background(), confluence.Page{ID: "42", Title: "Answer"})
	if !errors.Is(err, confluence.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if errors.Is(err, ErrConversion) {
		t.Error("auth failures must not be disguised as conversion failures")
	}
}
