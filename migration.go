package cql_migrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
)

// DefaultTrackingTable is the table that records applied migration versions
// inside the target keyspace.
const DefaultTrackingTable = "schema_migrations"

// BootstrapVersion is reserved for the migration that creates the tracking
// table. The registry guarantees it sorts first.
const BootstrapVersion int64 = 1

// Migration is a single versioned unit of schema change. Exactly one of
// Statements or UpF must be set.
//
// Statements are issued one at a time, each waiting for cluster-wide schema
// agreement before the next is sent. UpF receives the live session directly
// and agreement is awaited once after it returns; prefer Statements for plain
// DDL so that a partial failure can report the exact statement index.
type Migration struct {
	// Version is a positive integer, unique within a registry. Migrations are
	// applied in ascending Version order.
	Version     int64
	Description string

	// Statements holds the CQL to execute, in order.
	Statements []string

	// UpF is an alternative to Statements for changes that cannot be
	// expressed as static CQL.
	UpF func(ctx context.Context, session *gocql.Session) error

	// CheckSum overrides the checksum stored with the tracking row. When nil
	// the checksum is derived from Statements (empty for UpF migrations).
	CheckSum func() string
}

func (m Migration) validate() error {
	if m.Version <= 0 {
		return fmt.Errorf("%w: version %d must be a positive integer", ErrInvalidMigration, m.Version)
	}
	if len(m.Statements) == 0 && m.UpF == nil {
		return fmt.Errorf("%w: version %d has neither Statements nor UpF", ErrInvalidMigration, m.Version)
	}
	if len(m.Statements) > 0 && m.UpF != nil {
		return fmt.Errorf("%w: version %d has both Statements and UpF", ErrInvalidMigration, m.Version)
	}
	return nil
}

func (m Migration) checksum() string {
	if m.CheckSum != nil {
		return m.CheckSum()
	}
	if len(m.Statements) == 0 {
		return ""
	}
	h := sha256.New()
	for _, stmt := range m.Statements {
		h.Write([]byte(strings.TrimSpace(stmt)))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewBootstrapMigration returns the reserved version-1 migration that creates
// the tracking table in the given keyspace. Registries applied against an
// empty cluster must contain it.
func NewBootstrapMigration(keyspace string) Migration {
	return Migration{
		Version:     BootstrapVersion,
		Description: "create schema migrations tracking table",
		Statements: []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
				version bigint PRIMARY KEY,
				description text,
				applied_at timestamp,
				checksum text,
				applied_by uuid
			)`, keyspace, DefaultTrackingTable),
		},
	}
}
