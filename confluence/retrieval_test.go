package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testAPI(t *testing.T, server *httptest.Server) *API {
	t.Helper()

	api, err := NewAPI(server.URL, "someone@example.com", "secret-token")
	if err != nil {
		t.Fatalf("NewAPI failed: %v", err)
	}
	api.Client = server.Client()
	api.Retry = RetryPolicy{Attempts: 2, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	return api
}

// contentListingServer serves the v1 content listing for n fabricated pages.
func contentListingServer(t *testing.T, n int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wiki/rest/api/content" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("spaceKey") == "" {
			t.Errorf("listing request missing spaceKey")
		}

		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 25
		}

		var list ContentList
		list.Start = start
		list.Limit = limit
		for i := start; i < n && i < start+limit; i++ {
			list.Results = append(list.Results, Page{
				ID:      fmt.Sprintf("%d", 1000+i),
				Type:    "page",
				Status:  "current",
				Title:   fmt.Sprintf("Page %d", i),
				Version: &Version{Number: 1},
			})
		}
		list.Size = len(list.Results)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}))
}

func TestListAllPagesInSpacePagination(t *testing.T) {
	const limit = 5

	// The interesting boundaries: empty space, exact multiple of the page
	// size, and one page over.
	for _, n := range []int{0, limit, limit + 1, 3 * limit} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			server := contentListingServer(t, n)
			defer server.Close()

			api := testAPI(t, server)

			pages, err := api.ListAllPagesInSpace(context.Background(), "DOCS", limit)
			if err != nil {
				t.Fatalf("ListAllPagesInSpace failed: %v", err)
			}
			if len(pages) != n {
				t.Fatalf("expected %d pages, got %d", n, len(pages))
			}

			ids := map[string]bool{}
			for _, p := range pages {
				if ids[p.ID] {
					t.Errorf("duplicate page ID %s in results", p.ID)
				}
				ids[p.ID] = true
				if p.SpaceKey != "DOCS" {
					t.Errorf("page %s missing space key, got '%s'", p.ID, p.SpaceKey)
				}
			}
		})
	}
}

func TestListAllPagesInSpaceDeduplicates(t *testing.T) {
	// Simulate pagination drift: page id 1000 shows up in both the first and
	// the second response.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))

		var list ContentList
		list.Limit = 2
		switch start {
		case 0:
			list.Results = []Page{
				{ID: "1000", Title: "One", Version: &Version{Number: 1}},
				{ID: "1001", Title: "Two", Version: &Version{Number: 1}},
			}
		case 2:
			list.Results = []Page{
				{ID: "1000", Title: "One again", Version: &Version{Number: 1}},
			}
		}
		list.Size = len(list.Results)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}))
	defer server.Close()

	api := testAPI(t, server)

	pages, err := api.ListAllPagesInSpace(context.Background(), "DOCS", 2)
	if err != nil {
		t.Fatalf("ListAllPagesInSpace failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 distinct pages, got %d", len(pages))
	}
	if pages[0].Title != "One" {
		t.Errorf("dedup should keep the first occurrence, got '%s'", pages[0].Title)
	}
}

func TestListAllPagesInSpaceAuthFailure(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	api := testAPI(t, server)

	_, err := api.ListAllPagesInSpace(context.Background(), "DOCS", 5)
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if requests != 1 {
		t.Errorf("authentication failures must not be retried, saw %d requests", requests)
	}
}

func TestListAllSpaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wiki/rest/api/space" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("type"); got != "global" {
			t.Errorf("expected type=global filter, got '%s'", got)
		}

		var list SpaceList
		if r.URL.Query().Get("start") == "0" {
			list.Results = []Space{
				{Key: "DOCS", Name: "Documentation"},
				{Key: "ENG", Name: "Engineering"},
			}
		}
		list.Limit = DefaultPageLimit
		list.Size = len(list.Results)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}))
	defer server.Close()

	api := testAPI(t, server)

	spaces, err := api.ListAllSpaces(context.Background(), false)
	if err != nil {
		t.Fatalf("ListAllSpaces failed: %v", err)
	}
	if len(spaces) != 2 {
		t.Fatalf("expected 2 spaces, got %d", len(spaces))
	}
}
