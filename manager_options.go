package cql_migrator

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ManagerOption func(*MigrationManager)

func WithLogger(logger logrus.FieldLogger) ManagerOption {
	return func(m *MigrationManager) {
		m.logger = logger
	}
}

// WithAgreementTimeout bounds the wait for cluster-wide schema agreement
// after each statement.
func WithAgreementTimeout(timeout time.Duration) ManagerOption {
	return func(m *MigrationManager) {
		m.agreementTimeout = timeout
	}
}

// WithTrackingTable overrides the tracking table name. Registries using a
// custom table must supply their own bootstrap migration for it.
func WithTrackingTable(table string) ManagerOption {
	return func(m *MigrationManager) {
		m.table = table
	}
}

// WithApplierID fixes the identity recorded in applied_by, instead of a
// random one per manager.
func WithApplierID(id uuid.UUID) ManagerOption {
	return func(m *MigrationManager) {
		m.applierID = id
	}
}

// WithTrackingStore replaces the gocql-backed tracking store.
func WithTrackingStore(store TrackingStore) ManagerOption {
	return func(m *MigrationManager) {
		m.store = store
	}
}

// WithStatementExecutor replaces the gocql-backed schema agreement executor.
func WithStatementExecutor(executor StatementExecutor) ManagerOption {
	return func(m *MigrationManager) {
		m.executor = executor
	}
}
