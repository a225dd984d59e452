package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docrank/docrank/internal/document"
	"github.com/docrank/docrank/internal/indexer"
	"github.com/docrank/docrank/internal/postings"
	"github.com/docrank/docrank/internal/searcher/processor"
	"github.com/docrank/docrank/internal/tokenizer"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := postings.NewMemoryStore()
	coll := document.NewMemoryCollection(
		&document.Document{ID: "d1", Text: "cat dog"},
		&document.Document{ID: "d2", Text: "cat cat bird"},
		&document.Document{ID: "d3", Text: "bird fish"},
	)
	b := indexer.New(store, tokenizer.NewAnalyzer(), 2, nil)
	if err := b.Build(context.Background(), coll); err != nil {
		t.Fatalf("building test index: %v", err)
	}
	proc := processor.New(store, coll, tokenizer.NewAnalyzer(), false, nil)
	h := New(proc, coll, nil, nil, 1, 100, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.Document)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getSearch(t *testing.T, srv *httptest.Server, rawQuery string) (*http.Response, SearchResponse) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/v1/search?" + rawQuery)
	if err != nil {
		t.Fatalf("search request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var body SearchResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp, body
}

func TestSearchEndpointReturnsBestMatch(t *testing.T) {
	srv := newTestServer(t)
	resp, body := getSearch(t, srv, "q=cat+bird")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body.NoMatch {
		t.Fatal("expected a match")
	}
	if len(body.Matches) != 1 || body.Matches[0].DocID != "d2" {
		t.Errorf("matches = %v, want single match d2", body.Matches)
	}
}

func TestSearchEndpointNoMatchIsOK(t *testing.T) {
	srv := newTestServer(t)
	resp, body := getSearch(t, srv, "q=zebra")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for no match", resp.StatusCode)
	}
	if !body.NoMatch {
		t.Error("no_match not set")
	}
	if len(body.Matches) != 0 {
		t.Errorf("matches = %v, want empty", body.Matches)
	}
}

func TestSearchEndpointLimit(t *testing.T) {
	srv := newTestServer(t)
	resp, body := getSearch(t, srv, "q=cat&limit=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(body.Matches) != 2 {
		t.Errorf("got %d matches, want 2", len(body.Matches))
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name     string
		rawQuery string
	}{
		{"missing q", ""},
		{"blank q", "q=+"},
		{"bad limit", "q=cat&limit=zero"},
		{"negative limit", "q=cat&limit=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := getSearch(t, srv, tt.rawQuery)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestDocumentEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/documents/d1")
	if err != nil {
		t.Fatalf("document request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var doc document.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decoding document: %v", err)
	}
	if doc.ID != "d1" || doc.Text != "cat dog" {
		t.Errorf("document = %+v", doc)
	}

	missing, err := http.Get(srv.URL + "/api/v1/documents/nope")
	if err != nil {
		t.Fatalf("document request failed: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown document", missing.StatusCode)
	}
}
