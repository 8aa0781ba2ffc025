package cql_migrator

import (
	"context"
	"sync"
)

// MemoryTrackingStore is an in-memory TrackingStore with the same
// conditional-write semantics as the keyspace-backed one. Safe for concurrent
// use; intended for tests that exercise racing appliers without a cluster.
//
// A fresh store reports the tracking table as missing until Bootstrap is
// called or the reserved bootstrap version is recorded.
type MemoryTrackingStore struct {
	mu      sync.Mutex
	created bool
	records map[int64]AppliedRecord
}

func NewMemoryTrackingStore() *MemoryTrackingStore {
	return &MemoryTrackingStore{
		records: make(map[int64]AppliedRecord),
	}
}

// Bootstrap marks the tracking table as created, as the bootstrap migration
// would against a real cluster.
func (s *MemoryTrackingStore) Bootstrap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
}

func (s *MemoryTrackingStore) AppliedVersions(ctx context.Context) (map[int64]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.created {
		return nil, ErrTrackingStoreMissing
	}

	applied := make(map[int64]struct{}, len(s.records))
	for version := range s.records {
		applied[version] = struct{}{}
	}
	return applied, nil
}

func (s *MemoryTrackingStore) RecordApplied(ctx context.Context, record AppliedRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.Version]; exists {
		return false, nil
	}
	s.records[record.Version] = record
	if record.Version == BootstrapVersion {
		s.created = true
	}
	return true, nil
}

// Records returns a copy of the stored rows keyed by version.
func (s *MemoryTrackingStore) Records() map[int64]AppliedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]AppliedRecord, len(s.records))
	for version, record := range s.records {
		out[version] = record
	}
	return out
}
