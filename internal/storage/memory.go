package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Storage used by tests and local runs without S3.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string][]byte), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (m *Memory) Save(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *Memory) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Size(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return 0, ErrObjectNotFound
	}
	return int64(len(data)), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *Memory) PresignedUploadURL(_ context.Context, key, _ string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("%s/%s?expires=%d", m.baseURL, key, int(expiry.Seconds())), nil
}

func (m *Memory) PublicURL(key string) string {
	return m.baseURL + "/" + strings.TrimPrefix(key, "/")
}

// Has reports whether a key is stored.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}
