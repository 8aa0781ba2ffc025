// Package repository holds the CQL for the schema migrations tracking table.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// HasTrackingTable probes system_schema for the tracking table.
func HasTrackingTable(ctx context.Context, session *gocql.Session, keyspace, table string) (bool, error) {
	iter := session.Query(
		`SELECT table_name FROM system_schema.tables WHERE keyspace_name = ? AND table_name = ?`,
		keyspace, table,
	).WithContext(ctx).Iter()

	var name string
	found := iter.Scan(&name)

	if err := iter.Close(); err != nil {
		return false, err
	}
	return found, nil
}

// SelectAppliedVersions reads every recorded version from the tracking table.
func SelectAppliedVersions(ctx context.Context, session *gocql.Session, keyspace, table string) (map[int64]struct{}, error) {
	iter := session.Query(
		fmt.Sprintf(`SELECT version FROM %s.%s`, keyspace, table),
	).WithContext(ctx).Iter()

	applied := make(map[int64]struct{})
	var version int64
	for iter.Scan(&version) {
		applied[version] = struct{}{}
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return applied, nil
}

// InsertAppliedIfAbsent writes a tracking row with a lightweight transaction.
// Returns false when the row already exists, meaning another applier recorded
// the version first.
func InsertAppliedIfAbsent(
	ctx context.Context,
	session *gocql.Session,
	keyspace, table string,
	version int64,
	description string,
	appliedAt time.Time,
	checksum string,
	appliedBy gocql.UUID,
) (bool, error) {
	query := session.Query(
		fmt.Sprintf(
			`INSERT INTO %s.%s (version, description, applied_at, checksum, applied_by) VALUES (?, ?, ?, ?, ?) IF NOT EXISTS`,
			keyspace, table,
		),
		version, description, appliedAt, checksum, appliedBy,
	).WithContext(ctx)

	previous := make(map[string]interface{})
	applied, err := query.MapScanCAS(previous)
	if err != nil {
		return false, err
	}
	return applied, nil
}
