package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFacetFor(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"food", "Food Assistance"},
		{"pets", "Pet Resources"},
		{"seniors", "Health Care"},
		{"veterans", "Jobs & Training"},
		{"disability", "Health Care"},
		{"FOOD", "Food Assistance"},
		{"general", ""},
		{"", ""},
		{"unknown-thing", ""},
	}
	for _, tt := range tests {
		if got := FacetFor(tt.category); got != tt.want {
			t.Errorf("FacetFor(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestClientSearch(t *testing.T) {
	programs := []Program{
		{ID: "p1", Name: "Community Food Bank", Category: "Food Assistance", Phone: "211"},
		{ID: "p2", Name: "Neighborhood Pantry", Category: "Food Assistance"},
	}

	var gotQuery, gotFacet, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/programs/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotFacet = r.URL.Query().Get("facet")
		gotLimit = r.URL.Query().Get("limit")
		_ = json.NewEncoder(w).Encode(map[string]any{"results": programs})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	results, err := client.Search(context.Background(), "food assistance", "food", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Name != "Community Food Bank" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if gotQuery != "food assistance" || gotFacet != "Food Assistance" || gotLimit != "5" {
		t.Errorf("request params q=%q facet=%q limit=%q", gotQuery, gotFacet, gotLimit)
	}
}

func TestClientSearchOmitsFacetForGeneral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("facet") {
			t.Errorf("general category should not send a facet, got %q", r.URL.Query().Get("facet"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []Program{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	if _, err := client.Search(context.Background(), "help", "general", 5); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func TestClientSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index offline", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	if _, err := client.Search(context.Background(), "food", "food", 5); err == nil {
		t.Fatal("Search() expected error on 503")
	}
}

func TestClientSearchTruncatesToLimit(t *testing.T) {
	many := make([]Program, 8)
	for i := range many {
		many[i] = Program{ID: string(rune('a' + i)), Name: "Program"}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": many})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	results, err := client.Search(context.Background(), "food", "food", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Search() returned %d results, want 3", len(results))
	}
}
