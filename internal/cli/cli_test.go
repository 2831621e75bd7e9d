package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fascicle/internal/api"
	"fascicle/internal/config"
	"fascicle/internal/model"
	"fascicle/internal/track"
)

// testHome points the config dir (config file, track database, run lock)
// at a fresh temp folder.
func testHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.DirEnvVar, dir)
	return dir
}

// testCredentials fills the environment credentials the API commands
// resolve, so no command falls back to the password prompt.
func testCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("FASCICLE_EMAIL", "reader@example.com")
	t.Setenv("FASCICLE_PASSWORD", "hunter2")
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// kisaragiServer mimics the slice of the labs API the commands touch:
// authentication, the followed list and series content.
func kisaragiServer(t *testing.T, aggs map[string]api.Aggregate, follows []model.RawSeries) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case r.Method == http.MethodPost && path == "/auth/login":
			writeJSON(t, w, map[string]string{"token": "test-token"})
		case r.Method == http.MethodDelete && path == "/auth/logout":
			w.WriteHeader(http.StatusNoContent)
		case path == "/me":
			writeJSON(t, w, api.Account{
				ID:                 "ACC-1",
				Email:              "reader@example.com",
				Level:              "MEMBER",
				SubscriptionStatus: "ACTIVE",
			})
		case path == "/me/follows":
			writeJSON(t, w, map[string]any{
				"series":     follows,
				"pagination": map[string]any{"lastPage": true},
			})
		case strings.HasPrefix(path, "/me/follow/"):
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(path, "/series/") && strings.HasSuffix(path, "/aggregate"):
			slug := strings.TrimSuffix(strings.TrimPrefix(path, "/series/"), "/aggregate")
			agg, ok := aggs[slug]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeJSON(t, w, agg)
		case strings.HasPrefix(path, "/parts/") && strings.HasSuffix(path, "/content"):
			slug := strings.TrimSuffix(strings.TrimPrefix(path, "/parts/"), "/content")
			fmt.Fprintf(w, "<p>Content of %s.</p>", slug)
		default:
			t.Errorf("unexpected path %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// fixtureAggregate builds a single-volume series with all-preview parts
// launched at the given instants.
func fixtureAggregate(id, slug, title string, totalParts int, launches ...string) api.Aggregate {
	parts := make([]model.RawPart, len(launches))
	for i, launch := range launches {
		parts[i] = model.RawPart{
			Slug:    fmt.Sprintf("%s-1-%d", slug, i+1),
			Title:   fmt.Sprintf("%s Volume 1 Part %d", title, i+1),
			Launch:  launch,
			Preview: true,
		}
	}
	return api.Aggregate{
		Series: model.RawSeries{ID: id, Slug: slug, Title: title, Type: "NOVEL"},
		Volumes: []api.VolumeAggregate{{
			Volume: model.RawVolume{Slug: slug + "-1", Title: title + ": Volume 1", TotalParts: totalParts},
			Parts:  parts,
		}},
	}
}

// seedTracked writes one series into the track store the commands will
// open in the redirected config dir.
func seedTracked(t *testing.T, series track.Series) {
	t.Helper()
	path, err := config.TrackDBPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	store, err := track.Open(path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Add(context.Background(), series))
}

// trackedList reads the track store back after a command ran.
func trackedList(t *testing.T) []track.Series {
	t.Helper()
	path, err := config.TrackDBPath()
	require.NoError(t, err)

	store, err := track.Open(path)
	require.NoError(t, err)
	defer store.Close()

	list, err := store.List(context.Background())
	require.NoError(t, err)
	return list
}
