package audiofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/eleven-am/transcript-demo/internal/shared"
	"github.com/google/uuid"
)

const (
	remoteTimeout      = 10 * time.Second
	maxRemoteListBytes = 1 << 20
)

var ErrRemoteDisabled = errors.New("remote file list not configured")

type remoteEntry struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type RemoteProvider struct {
	endpoint string
	client   *http.Client
}

func NewRemoteProvider(endpoint string, client *http.Client) *RemoteProvider {
	if client == nil {
		client = &http.Client{Timeout: remoteTimeout}
	}
	return &RemoteProvider{
		endpoint: strings.TrimSpace(endpoint),
		client:   client,
	}
}

func (p *RemoteProvider) Enabled() bool {
	return p != nil && p.endpoint != ""
}

// List fetches the remote listing and maps each {filename, path} pair to a
// playable file whose URL is resolved against the listing endpoint.
func (p *RemoteProvider) List(ctx context.Context) ([]*AudioFile, error) {
	if !p.Enabled() {
		return nil, ErrRemoteDisabled
	}

	base, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse remote endpoint: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var entries []remoteEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteListBytes)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %v", shared.ErrUnavailable, err)
	}

	files := make([]*AudioFile, 0, len(entries))
	for _, e := range entries {
		if e.Path == "" {
			continue
		}
		ref, err := url.Parse(e.Path)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref).String()

		name := e.Filename
		if name == "" {
			name = path.Base(ref.Path)
		}

		files = append(files, &AudioFile{
			ID:          "remote-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(resolved)).String(),
			Name:        name,
			URL:         resolved,
			Source:      SourceRemote,
			ContentType: contentTypeFor(name),
		})
	}
	return files, nil
}

// Find looks a remote file up by id in a fresh listing.
func (p *RemoteProvider) Find(ctx context.Context, id string) (*AudioFile, error) {
	files, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, shared.ErrNotFound
}
