// Package testutil provides mock implementations for interfaces defined in
// the calibre2yac core library (pkg/syncer and subpackages). These mocks
// facilitate unit testing by isolating components.
package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bjpolzin/calibre2yac/pkg/syncer"
	"github.com/bjpolzin/calibre2yac/pkg/syncer/cache"
	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

// MockCatalogReader provides a mock implementation of the catalog.Reader
// interface. Configure expectations using testify/mock methods
// (e.g. .On("Read", ...).Return(...)).
type MockCatalogReader struct {
	mock.Mock
}

// Read mocks the Read method.
func (m *MockCatalogReader) Read(ctx context.Context, tag string) (map[int64]catalog.Item, error) {
	args := m.Called(ctx, tag)
	items, _ := args.Get(0).(map[int64]catalog.Item)
	return items, args.Error(1)
}

// MockCacheStore provides a mock implementation of the cache.Store interface.
type MockCacheStore struct {
	mock.Mock
}

// Load mocks the Load method.
func (m *MockCacheStore) Load() (cache.Snapshot, error) {
	args := m.Called()
	snap, _ := args.Get(0).(cache.Snapshot)
	return snap, args.Error(1)
}

// Save mocks the Save method.
func (m *MockCacheStore) Save(snapshot cache.Snapshot) error {
	args := m.Called(snapshot)
	return args.Error(0)
}

// MockMaterializer provides a mock implementation of the syncer.Materializer
// interface.
type MockMaterializer struct {
	mock.Mock
}

// Materialize mocks the Materialize method.
func (m *MockMaterializer) Materialize(source, target string) error {
	args := m.Called(source, target)
	return args.Error(0)
}

// Name mocks the Name method.
func (m *MockMaterializer) Name() string {
	args := m.Called()
	name, _ := args.Get(0).(string)
	return name
}

// MockHooks provides a mock implementation of the syncer.Hooks interface.
// The mock is safe for concurrent calls; testify/mock guards its internal
// state, which matters because OnOpStatusUpdate arrives from worker
// goroutines.
type MockHooks struct {
	mock.Mock
}

// OnPlanReady mocks the OnPlanReady method.
func (m *MockHooks) OnPlanReady(tag string, materialize, remove int) error {
	args := m.Called(tag, materialize, remove)
	return args.Error(0)
}

// OnOpStatusUpdate mocks the OnOpStatusUpdate method.
func (m *MockHooks) OnOpStatusUpdate(target string, kind syncer.OpKind, status syncer.Status, message string, duration time.Duration) error {
	args := m.Called(target, kind, status, message, duration)
	return args.Error(0)
}

// OnPassComplete mocks the OnPassComplete method.
func (m *MockHooks) OnPassComplete(report syncer.Report) error {
	args := m.Called(report)
	return args.Error(0)
}
