package input

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/kilianp07/powermatch/auth"
	"github.com/kilianp07/powermatch/core/model"
)

// Source opens input files from disk or over HTTP(S). Cred, when set,
// authorises HTTP requests with a client-credentials token.
type Source struct {
	Cred   *auth.ClientCred
	Client *http.Client
}

func isRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Open returns the content at loc, a local path or an http(s) URL.
func (s Source) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	if !isRemote(loc) {
		return os.Open(loc)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.Cred != nil {
		if err := s.Cred.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	return resp.Body, nil
}

// Tables loads the YAML tables at loc.
func (s Source) Tables(ctx context.Context, loc string) (model.Tables, error) {
	rc, err := s.Open(ctx, loc)
	if err != nil {
		return model.Tables{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return model.Tables{}, err
	}
	return ParseTables(data)
}

// Hourly loads the hourly CSV at loc.
func (s Source) Hourly(ctx context.Context, loc string) (*model.HourlyData, error) {
	rc, err := s.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return ReadHourly(rc)
}
