package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGitHubSource_OpenPullRequestDiff(t *testing.T) {
	sampleDiff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main

+// added line
 func main() {}
`

	var gotAccept, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sampleDiff))
	}))
	defer server.Close()

	src := NewGitHubSource("myorg", "myrepo", "token", server.URL)
	rc, err := src.OpenPullRequestDiff(context.Background(), "10")
	if err != nil {
		t.Fatalf("OpenPullRequestDiff: %v", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != sampleDiff {
		t.Errorf("body mismatch")
	}
	if gotAccept != "application/vnd.github.diff" {
		t.Errorf("Accept header = %q", gotAccept)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
}

func TestGitHubSource_NoAuth(t *testing.T) {
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	src := NewGitHubSource("myorg", "myrepo", "", server.URL)
	rc, err := src.OpenPullRequestDiff(context.Background(), "1")
	if err != nil {
		t.Fatalf("OpenPullRequestDiff: %v", err)
	}
	rc.Close()

	if gotAuth != "" {
		t.Errorf("expected no auth header, got %q", gotAuth)
	}
}

func TestGitHubSource_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := NewGitHubSource("myorg", "myrepo", "", server.URL)
	if _, err := src.OpenPullRequestDiff(context.Background(), "1"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
