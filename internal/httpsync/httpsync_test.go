package httpsync

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	contents := "trees: {}\n"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, err := w.Write([]byte(contents))
		if err != nil {
			http.Error(w, "failed to write response", http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	s := New(ts.URL + "/catalogs/remote.yaml").WithHeaders(map[string]string{"Authorization": "Bearer secret"})
	data, err := s.Fetch(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(data) != contents {
		t.Fatalf("downloaded data does not match expected contents: %q", data)
	}

	_, err = New(ts.URL).Fetch(t.Context())
	if err == nil || err.Error() != "unsuccessful status code 401" {
		t.Fatalf("expected status code error, got %v", err)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		url  string
		name string
	}{
		{url: "https://example.com/catalogs/region.yaml", name: "region.yaml"},
		{url: "https://example.com/catalogs/region.yml?ref=main", name: "region.yml"},
		{url: "https://example.com/catalog", name: "catalog.yaml"},
		{url: "https://example.com", name: "catalog.yaml"},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			if got := New(tc.url).Name(); got != tc.name {
				t.Fatalf("expected %q, got %q", tc.name, got)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	for source, exp := range map[string]bool{
		"https://example.com/c.yaml": true,
		"http://localhost:8080":      true,
		"catalogs/":                  false,
		"./http.yaml":                false,
	} {
		if IsURL(source) != exp {
			t.Errorf("%s: expected %v", source, exp)
		}
	}
}

func TestFetchTooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", maxSize+1)))
	}))
	defer ts.Close()

	if _, err := New(ts.URL).Fetch(t.Context()); err == nil {
		t.Fatal("expected an error for an oversized catalog")
	}
}
