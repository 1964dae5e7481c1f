package httpsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	formtreefs "github.com/hktouw/formtree/internal/fs"
)

// defaultName is used for URLs whose path does not end in a catalog file.
const defaultName = "catalog.yaml"

// maxSize bounds the catalog documents read from a remote source.
const maxSize = 16 << 20

// Synchronizer downloads a catalog file from an HTTP endpoint.
type Synchronizer struct {
	url     string
	headers map[string]string // Headers to include in the HTTP request
	client  *http.Client
}

// IsURL reports whether a catalog source names an HTTP endpoint rather than
// a local path.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func New(url string) *Synchronizer {
	return &Synchronizer{url: url, client: http.DefaultClient}
}

func (s *Synchronizer) WithHeaders(headers map[string]string) *Synchronizer {
	s.headers = headers
	return s
}

func (s *Synchronizer) WithClient(client *http.Client) *Synchronizer {
	s.client = client
	return s
}

// Name is the file name the downloaded catalog is served under: the last
// element of the URL path when it is a catalog file, catalog.yaml otherwise.
func (s *Synchronizer) Name() string {
	u, err := url.Parse(s.url)
	if err != nil {
		return defaultName
	}
	if base := path.Base(u.Path); formtreefs.IsCatalogFile(base) {
		return base
	}
	return defaultName
}

// Fetch downloads the catalog file.
func (s *Synchronizer) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	for name, value := range s.headers {
		if value != "" {
			req.Header.Set(name, value)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unsuccessful status code %d", resp.StatusCode)
	}

	bs, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, err
	}
	if len(bs) > maxSize {
		return nil, fmt.Errorf("catalog exceeds %d bytes", maxSize)
	}
	return bs, nil
}
