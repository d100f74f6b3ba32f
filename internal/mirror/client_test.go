package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is a minimal Dropbox-style endpoint for exercising the
// upload/download and token-refresh flows.
type fakeRemote struct {
	mu          sync.Mutex
	validTokens map[string]bool
	files       map[string][]byte
	uploads     []string // remote paths in upload order
	tokenCalls  int

	// expireOnIssue invalidates every token as soon as it is handed
	// out, simulating a remote that rejects everything.
	expireOnIssue bool
	// backupStatus, when nonzero, fails uploads to backup paths with
	// that HTTP status.
	backupStatus int

	tokenServer   *httptest.Server
	contentServer *httptest.Server
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{
		validTokens: make(map[string]bool),
		files:       make(map[string][]byte),
	}

	f.tokenServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "app-key" || pass != "app-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.tokenCalls++
		token := fmt.Sprintf("token-%d", f.tokenCalls)
		f.validTokens[token] = !f.expireOnIssue
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": token,
			"expires_in":   14400,
		})
	}))
	t.Cleanup(f.tokenServer.Close)

	f.contentServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		valid := f.validTokens[token]
		f.mu.Unlock()
		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error": {".tag": "expired_access_token"}}`)
			return
		}

		var arg struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch r.URL.Path {
		case "/2/files/upload":
			f.mu.Lock()
			failBackup := f.backupStatus != 0 && strings.HasPrefix(arg.Path, "/backup0000_")
			f.mu.Unlock()
			if failBackup {
				w.WriteHeader(f.backupStatus)
				return
			}
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.files[arg.Path] = body
			f.uploads = append(f.uploads, arg.Path)
			f.mu.Unlock()
			io.WriteString(w, "{}")
		case "/2/files/download":
			f.mu.Lock()
			data, ok := f.files[arg.Path]
			f.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusConflict)
				io.WriteString(w, `{"error": {".tag": "path_not_found"}}`)
				return
			}
			w.Write(data)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.contentServer.Close)

	return f
}

func (f *fakeRemote) expireAllTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok := range f.validTokens {
		f.validTokens[tok] = false
	}
}

func (f *fakeRemote) client() *Client {
	c := New(&TokenSource{
		AppKey:       "app-key",
		AppSecret:    "app-secret",
		RefreshToken: "refresh-token",
		TokenURL:     f.tokenServer.URL,
	})
	c.ContentURL = f.contentServer.URL
	c.backupName = func() string { return "backup0000" }
	return c
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress_data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPushUploadsPrimaryAndBackup(t *testing.T) {
	remote := newFakeRemote(t)
	c := remote.client()
	local := writeTemp(t, `{"1": {}}`)

	require.NoError(t, c.Push(context.Background(), local, "/progress_data.json"))

	assert.Equal(t, []byte(`{"1": {}}`), remote.files["/progress_data.json"])
	assert.Equal(t, []byte(`{"1": {}}`), remote.files["/backup0000_progress_data.json"])
	assert.Equal(t, 1, remote.tokenCalls)
}

func TestPushRefreshesExpiredTokenOnce(t *testing.T) {
	remote := newFakeRemote(t)
	c := remote.client()
	local := writeTemp(t, "data")

	// Warm the token cache, then expire it behind the client's back.
	require.NoError(t, c.Push(context.Background(), local, "/first.json"))
	remote.expireAllTokens()

	require.NoError(t, c.Push(context.Background(), local, "/second.json"))

	assert.Equal(t, []byte("data"), remote.files["/second.json"])
	// One refresh for the warm-up push, one for the expiry.
	assert.Equal(t, 2, remote.tokenCalls)
}

func TestPushGivesUpAfterSecondAuthFailure(t *testing.T) {
	remote := newFakeRemote(t)
	c := remote.client()
	local := writeTemp(t, "data")

	// Every token the source hands out is dead on arrival.
	remote.expireOnIssue = true

	err := c.Push(context.Background(), local, "/doomed.json")
	var expired *AuthExpiredError
	require.ErrorAs(t, err, &expired)
	// Initial token plus exactly one refresh, no retry loop.
	assert.Equal(t, 2, remote.tokenCalls)
}

func TestPushBackupFailureDoesNotFailPush(t *testing.T) {
	remote := newFakeRemote(t)
	c := remote.client()
	local := writeTemp(t, "data")

	remote.backupStatus = http.StatusInsufficientStorage

	require.NoError(t, c.Push(context.Background(), local, "/progress_data.json"))
	assert.Equal(t, []byte("data"), remote.files["/progress_data.json"])
	assert.NotContains(t, remote.files, "/backup0000_progress_data.json")
}

func TestPushMissingLocalFile(t *testing.T) {
	remote := newFakeRemote(t)
	c := remote.client()

	err := c.Push(context.Background(), filepath.Join(t.TempDir(), "nope.json"), "/nope.json")
	var terr *TransferError
	assert.ErrorAs(t, err, &terr)
}

func TestPullOverwritesLocalFile(t *testing.T) {
	remote := newFakeRemote(t)
	remote.files["/progress_data.json"] = []byte(`{"2": {}}`)
	c := remote.client()
	local := writeTemp(t, "stale")

	require.NoError(t, c.Pull(context.Background(), "/progress_data.json", local))

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, `{"2": {}}`, string(data))
}

func TestPullMissingRemoteFile(t *testing.T) {
	remote := newFakeRemote(t)
	c := remote.client()

	err := c.Pull(context.Background(), "/absent.json", filepath.Join(t.TempDir(), "out.json"))
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusConflict, terr.Status)
}
