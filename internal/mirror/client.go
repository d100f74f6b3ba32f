package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultContentURL is the Dropbox content endpoint base.
const defaultContentURL = "https://content.dropboxapi.com"

// Client mirrors local artifacts to a Dropbox-style blob store. Access
// tokens are short-lived: when the remote reports an expired token the
// client refreshes it and retries the operation exactly once, so a
// persistent outage cannot loop.
type Client struct {
	tokens *TokenSource

	// ContentURL overrides the upload/download endpoint base, used by
	// tests.
	ContentURL string

	HTTPClient *http.Client

	mu    sync.Mutex
	token string

	// backupName generates the random prefix for backup copies.
	backupName func() string
}

// New returns a mirror client backed by the given token source.
func New(tokens *TokenSource) *Client {
	return &Client{
		tokens:     tokens,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		backupName: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Push uploads a local file to remotePath, then writes a second copy
// under a random-name backup path so an accidental overwrite of the
// primary can be recovered. Backup failures are logged, not returned:
// the primary upload is what matters.
func (c *Client) Push(ctx context.Context, localPath, remotePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return &TransferError{Op: "upload", Path: remotePath, Err: err}
	}

	if err := c.withAuthRetry(ctx, func(token string) error {
		return c.upload(ctx, token, remotePath, data)
	}); err != nil {
		return err
	}

	backupPath := "/" + c.backupName() + "_" + strings.TrimPrefix(remotePath, "/")
	if err := c.withAuthRetry(ctx, func(token string) error {
		return c.upload(ctx, token, backupPath, data)
	}); err != nil {
		log.Printf("Backup upload to %s failed: %v", backupPath, err)
	}
	return nil
}

// Pull downloads remotePath and overwrites the local file.
func (c *Client) Pull(ctx context.Context, remotePath, localPath string) error {
	var data []byte
	err := c.withAuthRetry(ctx, func(token string) error {
		var derr error
		data, derr = c.download(ctx, token, remotePath)
		return derr
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return &TransferError{Op: "download", Path: remotePath, Err: err}
	}
	return nil
}

// withAuthRetry runs fn with a valid access token. An expired-token
// failure triggers one refresh and one retry; any other error, and any
// error on the retry, is returned as-is.
func (c *Client) withAuthRetry(ctx context.Context, fn func(token string) error) error {
	token, err := c.currentToken(ctx)
	if err != nil {
		return err
	}

	err = fn(token)
	var expired *AuthExpiredError
	if !errors.As(err, &expired) {
		return err
	}

	token, rerr := c.refreshToken(ctx)
	if rerr != nil {
		return fmt.Errorf("token refresh after auth failure: %w", rerr)
	}
	return fn(token)
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return c.refreshToken(ctx)
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) contentURL(path string) string {
	base := c.ContentURL
	if base == "" {
		base = defaultContentURL
	}
	return base + path
}

func (c *Client) upload(ctx context.Context, token, remotePath string, data []byte) error {
	arg, _ := json.Marshal(map[string]interface{}{
		"path": remotePath,
		"mode": "overwrite",
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL("/2/files/upload"), strings.NewReader(string(data)))
	if err != nil {
		return &TransferError{Op: "upload", Path: remotePath, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Dropbox-API-Arg", string(arg))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransferError{Op: "upload", Path: remotePath, Err: err}
	}
	defer resp.Body.Close()
	return c.checkResponse("upload", remotePath, resp)
}

func (c *Client) download(ctx context.Context, token, remotePath string) ([]byte, error) {
	arg, _ := json.Marshal(map[string]interface{}{"path": remotePath})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL("/2/files/download"), nil)
	if err != nil {
		return nil, &TransferError{Op: "download", Path: remotePath, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransferError{Op: "download", Path: remotePath, Err: err}
	}
	defer resp.Body.Close()
	if err := c.checkResponse("download", remotePath, resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransferError{Op: "download", Path: remotePath, Err: err}
	}
	return data, nil
}

// checkResponse maps a remote response to the error taxonomy. Expired
// tokens come back as 401s with an expired_access_token tag in the
// body.
func (c *Client) checkResponse(op, path string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if resp.StatusCode == http.StatusUnauthorized || strings.Contains(msg, "expired_access_token") {
		return &AuthExpiredError{Op: op, Path: path}
	}
	return &TransferError{Op: op, Path: path, Status: resp.StatusCode, Message: msg}
}
