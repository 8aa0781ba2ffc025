package cql_migrator

import (
	"errors"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var errNoSession = errors.New("a connected session is required unless both a tracking store and an executor are supplied")

// NewMigrationsManager creates the migration engine for one keyspace. The
// session must already be connected: the manager never dials, retries or
// authenticates, and never closes the session. Invoke Migrate exactly once
// during application initialization, after the session is confirmed ready and
// before serving traffic.
func NewMigrationsManager(session *gocql.Session, keyspace string, opts ...ManagerOption) (*MigrationManager, error) {
	manager := MigrationManager{
		session:          session,
		keyspace:         keyspace,
		table:            DefaultTrackingTable,
		logger:           logrus.StandardLogger(),
		applierID:        uuid.New(),
		agreementTimeout: DefaultAgreementTimeout,
	}

	for _, opt := range opts {
		opt(&manager)
	}

	if session == nil && (manager.store == nil || manager.executor == nil) {
		return nil, errNoSession
	}
	if manager.store == nil {
		manager.store = NewKeyspaceTrackingStore(session, keyspace, manager.table)
	}
	if manager.executor == nil {
		manager.executor = NewSessionExecutor(session, manager.agreementTimeout)
	}

	return &manager, nil
}

// MigrationManager orchestrates a migration run: it reads the tracking store,
// computes the pending set and applies it in ascending version order through
// the schema agreement executor. Concurrent runs from other application
// instances are serialized solely by the tracking store's conditional write;
// the manager holds no cross-process lock.
type MigrationManager struct {
	session  *gocql.Session
	keyspace string
	table    string

	store    TrackingStore
	executor StatementExecutor

	logger           logrus.FieldLogger
	applierID        uuid.UUID
	agreementTimeout time.Duration

	mutex sync.Mutex
}

// ApplierID identifies this engine instance in the applied_by column of
// tracking rows it wins.
func (m *MigrationManager) ApplierID() uuid.UUID {
	return m.applierID
}
