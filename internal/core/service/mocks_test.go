package service

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Mock CartStorage
type mockStorage struct {
	mu       sync.Mutex
	values   map[string]string
	writes   int
	readErr  error
	writeErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{values: make(map[string]string)}
}

func (m *mockStorage) Read(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockStorage) Write(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.values[key] = value
	return nil
}

func (m *mockStorage) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Mock CatalogSource
type mockSource struct {
	mu      sync.Mutex
	records []domain.Record
	err     error
	calls   int
}

func (m *mockSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var errBackend = errors.New("backend unavailable")

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}
