package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBuildMux_ServesBothBackends(t *testing.T) {
	ts := httptest.NewServer(buildMux())
	defer ts.Close()

	for _, path := range []string{"/v1/models", "/api/tags"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}
