package common

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateRunID(t *testing.T) {
	first := GenerateRunID()
	second := GenerateRunID()

	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("RunID %s is not a UUID: %v", first, err)
	}
	if first == second {
		t.Errorf("Expected distinct run IDs, got %s twice", first)
	}
}

func TestReadVideoIDsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video_ids.txt")
	content := "dQw4w9WgXcQ\n\n  # council meetings\n   9bZkp7q19f0  \nhttps://youtu.be/kJQP7kiw5Fk\n\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	ids, err := ReadVideoIDsFromFile(path)
	if err != nil {
		t.Fatalf("ReadVideoIDsFromFile failed: %v", err)
	}

	expected := []string{"dQw4w9WgXcQ", "9bZkp7q19f0", "https://youtu.be/kJQP7kiw5Fk"}
	if !reflect.DeepEqual(ids, expected) {
		t.Errorf("Expected %v, got %v", expected, ids)
	}
}

func TestReadVideoIDsFromFile_Missing(t *testing.T) {
	_, err := ReadVideoIDsFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestDownloadURLFile(t *testing.T) {
	t.Run("successful download", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ua := r.Header.Get("User-Agent"); ua != UserAgent {
				t.Errorf("Expected User-Agent '%s', got '%s'", UserAgent, ua)
			}
			fmt.Fprintln(w, "dQw4w9WgXcQ")
			fmt.Fprintln(w, "9bZkp7q19f0")
		}))
		defer server.Close()

		filename, err := DownloadURLFile(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("DownloadURLFile failed: %v", err)
		}
		defer os.Remove(filename)

		content, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("Failed to read downloaded file: %v", err)
		}
		if string(content) != "dQw4w9WgXcQ\n9bZkp7q19f0\n" {
			t.Errorf("Unexpected content %q", content)
		}
	})

	t.Run("bad status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := DownloadURLFile(context.Background(), server.URL)
		if err == nil || !strings.Contains(err.Error(), "bad status code: 404") {
			t.Errorf("Expected bad status error, got %v", err)
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := DownloadURLFile(context.Background(), "http://[::1]:namedport")
		if err == nil {
			t.Error("Expected error for invalid URL")
		}
	})
}

func TestLoadVideoIDs(t *testing.T) {
	t.Run("local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ids.txt")
		if err := os.WriteFile(path, []byte("dQw4w9WgXcQ\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		ids, err := LoadVideoIDs(context.Background(), path)
		if err != nil {
			t.Fatalf("LoadVideoIDs failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != "dQw4w9WgXcQ" {
			t.Errorf("Unexpected ids %v", ids)
		}
	})

	t.Run("missing local file", func(t *testing.T) {
		_, err := LoadVideoIDs(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
		if err == nil || !strings.Contains(err.Error(), "file not found") {
			t.Errorf("Expected file not found error, got %v", err)
		}
	})

	t.Run("remote list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "# gaps\n9bZkp7q19f0\n")
		}))
		defer server.Close()

		ids, err := LoadVideoIDs(context.Background(), server.URL+"/ids.txt")
		if err != nil {
			t.Fatalf("LoadVideoIDs failed: %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"9bZkp7q19f0"}) {
			t.Errorf("Unexpected ids %v", ids)
		}
	})
}

func TestIsRemoteList(t *testing.T) {
	cases := map[string]bool{
		"video_ids.txt":               false,
		"/tmp/https.txt":              false,
		"http://example.com/ids":      true,
		"https://example.com/ids.txt": true,
	}
	for source, want := range cases {
		if got := IsRemoteList(source); got != want {
			t.Errorf("IsRemoteList(%q) = %v, want %v", source, got, want)
		}
	}
}
