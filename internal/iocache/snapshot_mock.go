package iocache

import (
	"time"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
	"github.com/stretchr/testify/mock"
)

// MockSnapshotManager is a mock implementation of SnapshotManager for testing.
type MockSnapshotManager struct {
	mock.Mock
}

var _ contract.SnapshotManager = &MockSnapshotManager{} // Compile-time check

// GetSnapshotStore implements the SnapshotManager interface.
func (m *MockSnapshotManager) GetSnapshotStore() contract.SnapshotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SnapshotStore)
	return store
}

// MockSnapshotStore is a mock implementation of SnapshotStore for testing.
type MockSnapshotStore struct {
	mock.Mock
}

var _ contract.SnapshotStore = &MockSnapshotStore{} // Compile-time check

// BeginRun implements the SnapshotStore interface.
func (m *MockSnapshotStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the SnapshotStore interface.
func (m *MockSnapshotStore) EndRun(runID int64, endTime time.Time, totalSnapshots int) error {
	args := m.Called(runID, endTime, totalSnapshots)
	return args.Error(0)
}

// RecordSnapshot implements the SnapshotStore interface.
func (m *MockSnapshotStore) RecordSnapshot(runID int64, snapshot schema.Snapshot) error {
	args := m.Called(runID, snapshot)
	return args.Error(0)
}

// GetSnapshots implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetSnapshots(runID int64) ([]schema.Snapshot, error) {
	args := m.Called(runID)
	snaps, _ := args.Get(0).([]schema.Snapshot)
	return snaps, args.Error(1)
}

// GetStatus implements the SnapshotStore interface.
func (m *MockSnapshotStore) GetStatus() (schema.SnapshotStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.SnapshotStatus), args.Error(1)
}

// Close implements the SnapshotStore interface.
func (m *MockSnapshotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
