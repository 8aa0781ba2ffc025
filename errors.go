package cql_migrator

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity indicates the cluster could not be reached. The run is
	// aborted; retry policy belongs to the hosting application.
	ErrConnectivity = errors.New("cassandra cluster unreachable")

	// ErrTrackingStoreMissing indicates the tracking table does not exist.
	// The bootstrap migration (version 1) creates it.
	ErrTrackingStoreMissing = errors.New("schema migrations tracking table not found")

	// ErrAgreementTimeout indicates a statement was accepted by the
	// coordinator but the cluster did not reconverge on a single schema
	// version within the configured timeout. The statement's effect is
	// unknown and must not be recorded as applied.
	ErrAgreementTimeout = errors.New("cluster schema agreement not reached")

	// ErrInvalidMigration indicates a migration failed registration-time
	// validation.
	ErrInvalidMigration = errors.New("invalid migration")
)

// DuplicateVersionError reports two registered migrations sharing a version.
// Raised while constructing a registry, before any cluster interaction.
type DuplicateVersionError struct {
	Version int64
}

func (e *DuplicateVersionError) Error() string {
	return fmt.Sprintf("duplicate migration version %d", e.Version)
}

// ExecutionError reports a statement rejected by the coordinator (syntax
// error, conflict). The statement did not apply.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("statement execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// PartialMigrationError reports a migration that stopped partway through:
// either a statement failed after earlier statements had already reached
// agreement, or every statement applied but the tracking row could not be
// written. DDL cannot be rolled back, so remediation is manual.
type PartialMigrationError struct {
	Version int64

	// Statement is the 1-based index of the statement that failed. Zero
	// means the schema change itself succeeded and only the tracking write
	// failed.
	Statement int

	// LastSucceeded counts the statements that reached agreement before the
	// failure.
	LastSucceeded int

	Err error
}

func (e *PartialMigrationError) Error() string {
	if e.Statement == 0 {
		return fmt.Sprintf(
			"migration %d applied but not recorded: tracking write failed after schema agreement, verify and insert the tracking row manually: %v",
			e.Version, e.Err,
		)
	}
	return fmt.Sprintf(
		"migration %d partially applied: statement %d failed after %d statement(s) reached agreement: %v",
		e.Version, e.Statement, e.LastSucceeded, e.Err,
	)
}

func (e *PartialMigrationError) Unwrap() error { return e.Err }

// MigrationFailure is returned by Migrate when a pending migration fails.
// Subsequent pending migrations are never attempted.
type MigrationFailure struct {
	// Version is the migration that failed.
	Version int64

	// LastApplied is the highest version successfully applied in this run,
	// zero when the run failed on its first pending migration.
	LastApplied int64

	Err error
}

func (e *MigrationFailure) Error() string {
	return fmt.Sprintf("migration run failed at version %d (last applied: %d): %v", e.Version, e.LastApplied, e.Err)
}

func (e *MigrationFailure) Unwrap() error { return e.Err }
