package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveRelease(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	original := ReleasesURL
	ReleasesURL = server.URL
	t.Cleanup(func() {
		server.Close()
		ReleasesURL = original
	})
}

func releaseHandler(t *testing.T, tag string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET request, got %s", r.Method)
		}
		if r.Header.Get("Accept") != "application/vnd.github.v3+json" {
			t.Error("expected GitHub API accept header")
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("update check must not send credentials")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Release{
			TagName: tag,
			HTMLURL: "https://github.com/phantom-go/phantom/releases/tag/" + tag,
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"1.0.0":     "v1.0.0",
		"v1.0.0":    "v1.0.0",
		"v10.20.30": "v10.20.30",
		"":          "v",
	}
	for input, want := range tests {
		if got := normalizeVersion(input); got != want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCheckForUpdate_SkipsDevBuilds(t *testing.T) {
	for _, v := range []string{"dev", ""} {
		if result := CheckForUpdate(context.Background(), v); result != nil {
			t.Errorf("expected nil for version %q", v)
		}
	}
}

func TestCheckForUpdate_Compare(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		latest    string
		available bool
	}{
		{"major", "1.0.0", "v2.0.0", true},
		{"minor", "1.0.0", "v1.1.0", true},
		{"patch", "1.0.0", "v1.0.1", true},
		{"prefixed current", "v1.0.0", "v2.0.0", true},
		{"pre-release", "1.0.0", "v2.0.0-beta.1", true},
		{"same", "1.0.0", "v1.0.0", false},
		{"current newer", "2.0.0", "v1.0.0", false},
		{"invalid current", "not-a-version", "v2.0.0", false},
		{"invalid latest", "1.0.0", "not-a-version", false},
		{"empty tag", "1.0.0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serveRelease(t, releaseHandler(t, tt.latest))

			result := CheckForUpdate(context.Background(), tt.current)
			if result == nil {
				t.Fatal("expected result, got nil")
			}
			if result.UpdateAvailable != tt.available {
				t.Errorf("UpdateAvailable = %v, want %v", result.UpdateAvailable, tt.available)
			}
			if result.CurrentVersion != tt.current {
				t.Errorf("CurrentVersion = %q, want %q", result.CurrentVersion, tt.current)
			}
		})
	}
}

func TestCheckForUpdate_LatestVersionStripsPrefix(t *testing.T) {
	serveRelease(t, releaseHandler(t, "v2.0.0"))

	result := CheckForUpdate(context.Background(), "1.0.0")
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if result.LatestVersion != "2.0.0" {
		t.Errorf("LatestVersion = %q, want 2.0.0", result.LatestVersion)
	}
	if result.UpdateURL != "https://github.com/phantom-go/phantom/releases/tag/v2.0.0" {
		t.Errorf("unexpected update URL: %s", result.UpdateURL)
	}
}

func TestCheckForUpdate_Failures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not found": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		"invalid json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("invalid json"))
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			serveRelease(t, handler)
			if result := CheckForUpdate(context.Background(), "1.0.0"); result != nil {
				t.Errorf("expected nil, got %+v", result)
			}
		})
	}
}

func TestCheckForUpdate_ContextCanceled(t *testing.T) {
	serveRelease(t, releaseHandler(t, "v2.0.0"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if result := CheckForUpdate(ctx, "1.0.0"); result != nil {
		t.Error("expected nil on canceled context")
	}
}

func TestCheckForUpdate_ConnectionError(t *testing.T) {
	original := ReleasesURL
	ReleasesURL = "http://localhost:1"
	t.Cleanup(func() { ReleasesURL = original })

	if result := CheckForUpdate(context.Background(), "1.0.0"); result != nil {
		t.Error("expected nil on connection error")
	}
}
