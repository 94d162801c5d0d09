package res

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ResourceType represents the type of resource
type ResourceType int

const (
	// ResourceTypeUnknown is an unknown resource type
	ResourceTypeUnknown ResourceType = iota
	// ResourceTypeImage is a raster image resource
	ResourceTypeImage
	// ResourceTypeVector is a vector artwork resource (PDF or SVG)
	ResourceTypeVector
	// ResourceTypeOther is any other resource
	ResourceTypeOther
)

// DefaultMaxBytes caps how much artwork a single fetch may return.
const DefaultMaxBytes = 64 << 20

// Resource represents loaded design artwork
type Resource struct {
	URL      string
	Type     ResourceType
	Data     []byte
	MimeType string
}

// Loader fetches design artwork from local paths, remote URLs and data
// URLs, caching each source so repeat designs in an order are read once.
type Loader struct {
	// Base URL or file path for resolving relative references
	BaseURL string

	// MaxBytes limits the size of a fetched resource. Zero means
	// DefaultMaxBytes.
	MaxBytes int64

	// Resource cache
	cache     map[string]*Resource
	cacheLock sync.RWMutex

	// Resource search paths
	searchPaths []string

	// HTTP client for remote resources
	client *http.Client
}

// NewLoader creates a new resource loader
func NewLoader(baseURL string) *Loader {
	return &Loader{
		BaseURL:     baseURL,
		MaxBytes:    DefaultMaxBytes,
		cache:       make(map[string]*Resource),
		searchPaths: []string{},
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// AddSearchPath adds a directory to search for local artwork
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// Load loads artwork from a URL or file path
func (l *Loader) Load(urlStr string) (*Resource, error) {
	// Check if the resource is already cached
	l.cacheLock.RLock()
	if res, ok := l.cache[urlStr]; ok {
		l.cacheLock.RUnlock()
		return res, nil
	}
	l.cacheLock.RUnlock()

	// Handle data URLs directly
	if strings.HasPrefix(urlStr, "data:") {
		res, err := parseDataURL(urlStr)
		if err != nil {
			return nil, err
		}
		l.cacheLock.Lock()
		l.cache[urlStr] = res
		l.cacheLock.Unlock()
		return res, nil
	}

	resolvedURL, err := l.resolveURL(urlStr)
	if err != nil {
		return nil, err
	}

	var res *Resource
	if strings.HasPrefix(resolvedURL, "http://") || strings.HasPrefix(resolvedURL, "https://") {
		res, err = l.loadRemote(resolvedURL)
	} else {
		res, err = l.loadLocal(resolvedURL)
	}

	if err != nil {
		return nil, err
	}

	l.cacheLock.Lock()
	l.cache[urlStr] = res
	l.cacheLock.Unlock()

	return res, nil
}

// LoadArtwork loads a resource and rejects anything that cannot be
// design artwork, such as an HTML error page served in place of a file.
func (l *Loader) LoadArtwork(urlStr string) (*Resource, error) {
	res, err := l.Load(urlStr)
	if err != nil {
		return nil, err
	}

	if res.Type == ResourceTypeOther {
		return nil, fmt.Errorf("resource is not artwork: %s (%s)", urlStr, res.MimeType)
	}

	return res, nil
}

// parseDataURL parses a data URL (RFC 2397) and returns a Resource.
// Examples:
//   data:image/png;base64,<base64>
//   data:image/svg+xml,%3Csvg%20...%3E
func parseDataURL(u string) (*Resource, error) {
	// Strip prefix
	if !strings.HasPrefix(u, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}
	s := strings.TrimPrefix(u, "data:")
	// Split metadata and data
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid data URL")
	}
	meta := parts[0]
	dataPart := parts[1]

	mime := "application/octet-stream"
	isBase64 := false
	if meta != "" {
		// meta can be like: image/png;base64 or image/svg+xml;charset=utf-8
		comps := strings.Split(meta, ";")
		if len(comps) > 0 && comps[0] != "" {
			mime = comps[0]
		}
		for _, c := range comps[1:] {
			if strings.EqualFold(strings.TrimSpace(c), "base64") {
				isBase64 = true
			}
		}
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(dataPart)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
	} else {
		// The non-base64 form is URL-escaped
		if d, derr := url.QueryUnescape(dataPart); derr == nil {
			data = []byte(d)
		} else {
			data = []byte(dataPart)
		}
	}

	r := &Resource{URL: u, Data: data, MimeType: mime}
	r.Type = determineResourceType(mime, "", data)
	return r, nil
}

// resolveURL resolves a URL relative to the base URL
func (l *Loader) resolveURL(urlStr string) (string, error) {
	if strings.HasPrefix(urlStr, "http://") || strings.HasPrefix(urlStr, "https://") {
		return urlStr, nil
	}

	if filepath.IsAbs(urlStr) {
		return urlStr, nil
	}

	if !strings.HasPrefix(l.BaseURL, "http://") && !strings.HasPrefix(l.BaseURL, "https://") {
		baseDir := filepath.Dir(l.BaseURL)
		return filepath.Join(baseDir, urlStr), nil
	}

	baseURL, err := url.Parse(l.BaseURL)
	if err != nil {
		return "", err
	}

	relURL, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	return baseURL.ResolveReference(relURL).String(), nil
}

func (l *Loader) maxBytes() int64 {
	if l.MaxBytes > 0 {
		return l.MaxBytes
	}
	return DefaultMaxBytes
}

// loadRemote loads artwork from a remote URL
func (l *Loader) loadRemote(urlStr string) (*Resource, error) {
	resp, err := l.client.Get(urlStr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	limit := l.maxBytes()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("resource exceeds %d byte limit: %s", limit, urlStr)
	}

	res := &Resource{
		URL:      urlStr,
		Data:     data,
		MimeType: resp.Header.Get("Content-Type"),
	}

	res.Type = determineResourceType(res.MimeType, urlStr, data)

	return res, nil
}

// loadLocal loads artwork from a local file
func (l *Loader) loadLocal(path string) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l.loadFromSearchPaths(path)
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	res := &Resource{
		URL:  path,
		Data: data,
	}

	res.MimeType = determineMimeType(path)
	res.Type = determineResourceType(res.MimeType, path, data)

	return res, nil
}

// loadFromSearchPaths tries to load artwork from the search paths
func (l *Loader) loadFromSearchPaths(filename string) (*Resource, error) {
	baseFilename := filepath.Base(filename)

	for _, searchPath := range l.searchPaths {
		path := filepath.Join(searchPath, baseFilename)

		file, err := os.Open(path)
		if err != nil {
			continue
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			continue
		}

		res := &Resource{
			URL:  path,
			Data: data,
		}

		res.MimeType = determineMimeType(path)
		res.Type = determineResourceType(res.MimeType, path, data)

		return res, nil
	}

	return nil, fmt.Errorf("resource not found: %s", filename)
}

// determineMimeType determines the MIME type of a file
func determineMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// determineResourceType classifies a resource. The MIME type wins when
// it is specific; otherwise the extension, then a magic-byte sniff, so
// a misconfigured server does not block a valid file.
func determineResourceType(mimeType, path string, data []byte) ResourceType {
	switch {
	case mimeType == "application/pdf", mimeType == "image/svg+xml":
		return ResourceTypeVector
	case strings.HasPrefix(mimeType, "image/"):
		return ResourceTypeImage
	case strings.HasPrefix(mimeType, "text/"):
		return ResourceTypeOther
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".tiff", ".tif", ".bmp":
		return ResourceTypeImage
	case ".pdf", ".svg":
		return ResourceTypeVector
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return ResourceTypeVector
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return ResourceTypeImage
	case bytes.HasPrefix(data, []byte("\xff\xd8")):
		return ResourceTypeImage
	case bytes.HasPrefix(data, []byte("GIF8")):
		return ResourceTypeImage
	case bytes.Contains(firstBytes(data, 512), []byte("<svg")):
		return ResourceTypeVector
	}

	return ResourceTypeOther
}

func firstBytes(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

// Filename returns a display name for the resource, derived from the
// last path segment of its URL.
func (r *Resource) Filename() string {
	if strings.HasPrefix(r.URL, "data:") {
		return "inline"
	}
	if u, err := url.Parse(r.URL); err == nil && u.Path != "" {
		return filepath.Base(u.Path)
	}
	return filepath.Base(r.URL)
}

// GetReader returns a reader for the resource data
func (r *Resource) GetReader() *bytes.Reader {
	return bytes.NewReader(r.Data)
}
