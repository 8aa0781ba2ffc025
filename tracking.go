package cql_migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/Maksumys/cql-migrator/internal/repository"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// AppliedRecord is one row of the tracking table: a version that has been
// applied to the cluster, by whom, and when.
type AppliedRecord struct {
	Version     int64
	Description string
	AppliedAt   time.Time
	Checksum    string
	AppliedBy   uuid.UUID
}

// TrackingStore is the persistent record, inside the target cluster, of which
// versions have been applied. Its conditional write is the sole serialization
// point between concurrently migrating application instances.
type TrackingStore interface {
	// AppliedVersions returns the set of recorded versions. Fails with an
	// error matching ErrConnectivity when the cluster is unreachable and
	// with ErrTrackingStoreMissing when the tracking table does not exist.
	AppliedVersions(ctx context.Context) (map[int64]struct{}, error)

	// RecordApplied writes a tracking row only if the version is absent.
	// Must be called only after the migration's statements have reached
	// cluster-wide agreement. Returns false when another applier already
	// recorded the version.
	RecordApplied(ctx context.Context, record AppliedRecord) (bool, error)
}

// KeyspaceTrackingStore is the gocql-backed TrackingStore for one keyspace.
type KeyspaceTrackingStore struct {
	session  *gocql.Session
	keyspace string
	table    string
}

// NewKeyspaceTrackingStore wraps an already-connected session. The store
// never dials or closes the session.
func NewKeyspaceTrackingStore(session *gocql.Session, keyspace, table string) *KeyspaceTrackingStore {
	if table == "" {
		table = DefaultTrackingTable
	}
	return &KeyspaceTrackingStore{
		session:  session,
		keyspace: keyspace,
		table:    table,
	}
}

func (s *KeyspaceTrackingStore) AppliedVersions(ctx context.Context) (map[int64]struct{}, error) {
	exists, err := repository.HasTrackingTable(ctx, s.session, s.keyspace, s.table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrTrackingStoreMissing, s.keyspace, s.table)
	}

	applied, err := repository.SelectAppliedVersions(ctx, s.session, s.keyspace, s.table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return applied, nil
}

func (s *KeyspaceTrackingStore) RecordApplied(ctx context.Context, record AppliedRecord) (bool, error) {
	return repository.InsertAppliedIfAbsent(
		ctx,
		s.session,
		s.keyspace,
		s.table,
		record.Version,
		record.Description,
		record.AppliedAt,
		record.Checksum,
		gocql.UUID(record.AppliedBy),
	)
}
