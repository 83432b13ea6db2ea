package apify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeApify serves the actor run, run status, dataset and video endpoints
func fakeApify(t *testing.T, finalStatus string, items func(base string) []map[string]interface{}) *httptest.Server {
	t.Helper()
	polls := 0
	var srv *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/acts/"+tiktokActorID+"/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		var input map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, []interface{}{"alice"}, input["profiles"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"run-1"}}`)
	})
	mux.HandleFunc("/actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "RUNNING"
		if polls > 1 {
			status = finalStatus
		}
		fmt.Fprintf(w, `{"data":{"status":%q,"defaultDatasetId":"ds-1"}}`, status)
	})
	mux.HandleFunc("/datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(items(srv.URL))
	})
	mux.HandleFunc("/video/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "bytes of %s", r.URL.Path)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func twoItems(base string) []map[string]interface{} {
	return []map[string]interface{}{
		{"id": "111", "videoMeta": map[string]string{"downloadAddr": base + "/video/111"}},
		{"id": "222", "mediaUrls": []string{base + "/video/222"}},
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("secret", WithBaseURL(srv.URL), WithPollInterval(time.Millisecond), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestClient_ScrapeProfile(t *testing.T) {
	srv := fakeApify(t, "SUCCEEDED", twoItems)
	c := newTestClient(t, srv)

	items, err := c.ScrapeProfile(context.Background(), "alice", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "111", items[0].ID)
	assert.Equal(t, srv.URL+"/video/111", items[0].DownloadURL())
}

func TestClient_ScrapeProfile_RunFailed(t *testing.T) {
	srv := fakeApify(t, "FAILED", twoItems)
	c := newTestClient(t, srv)

	_, err := c.ScrapeProfile(context.Background(), "alice", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actor run failed with status: FAILED")
}

func TestClient_ScrapeProfile_Cancelled(t *testing.T) {
	srv := fakeApify(t, "RUNNING", twoItems)
	c, err := NewClient("secret", WithBaseURL(srv.URL), WithPollInterval(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ScrapeProfile(ctx, "alice", 5)
	assert.Error(t, err)
}

type endpointReply struct {
	code int
	body string
}

// erroringApify starts a run and answers the status and dataset endpoints with fixed replies
func erroringApify(t *testing.T, status, dataset endpointReply) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/acts/"+tiktokActorID+"/runs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"run-1"}}`)
	})
	mux.HandleFunc("/actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status.code)
		fmt.Fprint(w, status.body)
	})
	mux.HandleFunc("/datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(dataset.code)
		fmt.Fprint(w, dataset.body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ScrapeProfile_HTTPErrors(t *testing.T) {
	succeeded := endpointReply{http.StatusOK, `{"data":{"status":"SUCCEEDED","defaultDatasetId":"ds-1"}}`}
	okItems := endpointReply{http.StatusOK, `[]`}

	tests := []struct {
		name    string
		status  endpointReply
		dataset endpointReply
		want    string
	}{
		{
			name:    "invalid token on run status",
			status:  endpointReply{http.StatusUnauthorized, `{"error":{"type":"token-not-valid","message":"Authentication token is not valid."}}`},
			dataset: okItems,
			want:    "status 401",
		},
		{
			name:    "server error on run status",
			status:  endpointReply{http.StatusInternalServerError, `oops`},
			dataset: okItems,
			want:    "status 500, body: oops",
		},
		{
			name:    "unknown run status",
			status:  endpointReply{http.StatusOK, `{"data":{"status":"WEIRD"}}`},
			dataset: okItems,
			want:    `unknown status "WEIRD"`,
		},
		{
			name:    "missing run status",
			status:  endpointReply{http.StatusOK, `{}`},
			dataset: okItems,
			want:    `unknown status ""`,
		},
		{
			name:    "server error on dataset",
			status:  succeeded,
			dataset: endpointReply{http.StatusInternalServerError, `dataset gone`},
			want:    "dataset items: status 500, body: dataset gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := erroringApify(t, tt.status, tt.dataset)
			c := newTestClient(t, srv)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			_, err := c.ScrapeProfile(ctx, "alice", 5)
			require.Error(t, err)
			assert.False(t, errors.Is(err, context.DeadlineExceeded), "gave up on deadline: %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFetcher_FetchLatest(t *testing.T) {
	srv := fakeApify(t, "SUCCEEDED", twoItems)
	dir := t.TempDir()
	f := NewFetcher(newTestClient(t, srv), NewHTTPDownloader(), dir)

	videos, err := f.FetchLatest(context.Background(), "@alice", 5)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	for _, v := range videos {
		assert.Equal(t, filepath.Join(dir, v.ID+".mp4"), v.Path)
		data, err := os.ReadFile(v.Path)
		require.NoError(t, err)
		assert.Equal(t, "bytes of /video/"+v.ID, string(data))
	}
}

func TestFetcher_MissingDownloadAddress(t *testing.T) {
	srv := fakeApify(t, "SUCCEEDED", func(base string) []map[string]interface{} {
		return []map[string]interface{}{
			{"id": "111", "videoMeta": map[string]string{"downloadAddr": base + "/video/111"}},
			{"id": "222"},
		}
	})
	dir := t.TempDir()
	f := NewFetcher(newTestClient(t, srv), NewHTTPDownloader(), dir)

	_, err := f.FetchLatest(context.Background(), "alice", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video 222 has no download address")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "partial downloads should be removed")
}

func TestHTTPDownloader_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPDownloader().Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 403")
}
