package cql_migrator

import (
	"context"
	"sync"
)

// MockTrackingStore is a configurable TrackingStore for tests. Set the Func
// fields to control return values and inject errors; calls are tracked.
type MockTrackingStore struct {
	mu sync.Mutex

	// AppliedVersionsFunc is called by AppliedVersions if set.
	AppliedVersionsFunc func(ctx context.Context) (map[int64]struct{}, error)

	// RecordAppliedFunc is called by RecordApplied if set.
	RecordAppliedFunc func(ctx context.Context, record AppliedRecord) (bool, error)

	// Call tracking
	AppliedVersionsCalls int
	RecordAppliedCalls   []AppliedRecord
}

func NewMockTrackingStore() *MockTrackingStore {
	return &MockTrackingStore{}
}

func (m *MockTrackingStore) AppliedVersions(ctx context.Context) (map[int64]struct{}, error) {
	m.mu.Lock()
	m.AppliedVersionsCalls++
	m.mu.Unlock()

	if m.AppliedVersionsFunc != nil {
		return m.AppliedVersionsFunc(ctx)
	}
	return map[int64]struct{}{}, nil
}

func (m *MockTrackingStore) RecordApplied(ctx context.Context, record AppliedRecord) (bool, error) {
	m.mu.Lock()
	m.RecordAppliedCalls = append(m.RecordAppliedCalls, record)
	m.mu.Unlock()

	if m.RecordAppliedFunc != nil {
		return m.RecordAppliedFunc(ctx, record)
	}
	return true, nil
}

// MockStatementExecutor is a configurable StatementExecutor for tests.
type MockStatementExecutor struct {
	mu sync.Mutex

	// ExecuteWithAgreementFunc is called by ExecuteWithAgreement if set.
	ExecuteWithAgreementFunc func(ctx context.Context, statement string) error

	// AwaitAgreementFunc is called by AwaitAgreement if set.
	AwaitAgreementFunc func(ctx context.Context) error

	// Call tracking
	ExecutedStatements  []string
	AwaitAgreementCalls int
}

func NewMockStatementExecutor() *MockStatementExecutor {
	return &MockStatementExecutor{}
}

func (m *MockStatementExecutor) ExecuteWithAgreement(ctx context.Context, statement string) error {
	m.mu.Lock()
	m.ExecutedStatements = append(m.ExecutedStatements, statement)
	m.mu.Unlock()

	if m.ExecuteWithAgreementFunc != nil {
		return m.ExecuteWithAgreementFunc(ctx, statement)
	}
	return nil
}

func (m *MockStatementExecutor) AwaitAgreement(ctx context.Context) error {
	m.mu.Lock()
	m.AwaitAgreementCalls++
	m.mu.Unlock()

	if m.AwaitAgreementFunc != nil {
		return m.AwaitAgreementFunc(ctx)
	}
	return nil
}
