package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	supportapp "github.com/destinpq/groow-sub007/internal/application/support"
)

var _ supportapp.AttachmentStorage = (*MemoryAttachments)(nil)

// MemoryAttachments is the in-process fallback used when object storage is
// disabled. Download URLs point at BaseURL and are not served by anything.
type MemoryAttachments struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

func NewMemoryAttachments() *MemoryAttachments {
	return &MemoryAttachments{
		BaseURL: "https://storage.example.com",
		objects: map[string]memObject{},
	}
}

func (m *MemoryAttachments) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if key == "" {
		return errEmptyKey
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (m *MemoryAttachments) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	expires := time.Now().Add(expiresIn)
	q := url.Values{"expires": {expires.UTC().Format(time.RFC3339)}}
	return m.BaseURL + "/download/" + url.PathEscape(key) + "?" + q.Encode(), expires, nil
}

func (m *MemoryAttachments) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Object returns a stored attachment and its content type
func (m *MemoryAttachments) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o.data, o.contentType, ok
}
