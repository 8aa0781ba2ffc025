package cql_migrator

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigrationResources_SortsByVersion(t *testing.T) {
	resources, err := NewMigrationResources(
		Migration{Version: 3, Description: "add title index", Statements: []string{"CREATE INDEX ON app.books (title)"}},
		Migration{Version: 1, Description: "bootstrap", Statements: []string{"CREATE TABLE app.schema_migrations (version bigint PRIMARY KEY)"}},
		Migration{Version: 2, Description: "books", Statements: []string{"CREATE TABLE app.books (id uuid PRIMARY KEY)"}},
	)
	require.NoError(t, err)

	migrations := resources.Migrations()
	require.Len(t, migrations, 3)
	assert.Equal(t, int64(1), migrations[0].Version)
	assert.Equal(t, int64(2), migrations[1].Version)
	assert.Equal(t, int64(3), migrations[2].Version)
	assert.True(t, resources.ContainsBootstrap())
}

func TestNewMigrationResources_DuplicateVersion(t *testing.T) {
	_, err := NewMigrationResources(
		Migration{Version: 2, Statements: []string{"CREATE TABLE app.books (id uuid PRIMARY KEY)"}},
		Migration{Version: 2, Statements: []string{"CREATE TABLE app.authors (id uuid PRIMARY KEY)"}},
	)

	var dup *DuplicateVersionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, int64(2), dup.Version)
}

func TestNewMigrationResources_RejectsInvalidMigrations(t *testing.T) {
	tests := []struct {
		name      string
		migration Migration
	}{
		{
			name:      "non-positive version",
			migration: Migration{Version: 0, Statements: []string{"CREATE TABLE app.books (id uuid PRIMARY KEY)"}},
		},
		{
			name:      "no action",
			migration: Migration{Version: 2},
		},
		{
			name: "both actions",
			migration: Migration{
				Version:    2,
				Statements: []string{"CREATE TABLE app.books (id uuid PRIMARY KEY)"},
				UpF: func(ctx context.Context, session *gocql.Session) error {
					return nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMigrationResources(tt.migration)
			assert.ErrorIs(t, err, ErrInvalidMigration)
		})
	}
}

func TestLoadMigrationResources(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/v2__create_books.cql": &fstest.MapFile{Data: []byte(
			"-- books catalog\n" +
				"CREATE TABLE app.books (id uuid PRIMARY KEY, title text);\n" +
				"CREATE INDEX ON app.books (title);\n",
		)},
		"migrations/v1__create_tracking_table.cql": &fstest.MapFile{Data: []byte(
			"CREATE TABLE IF NOT EXISTS app.schema_migrations (version bigint PRIMARY KEY, description text, applied_at timestamp, checksum text, applied_by uuid);\n",
		)},
		"migrations/README.md": &fstest.MapFile{Data: []byte("ignored")},
	}

	resources, err := LoadMigrationResources(fsys, "migrations")
	require.NoError(t, err)

	migrations := resources.Migrations()
	require.Len(t, migrations, 2)

	assert.Equal(t, int64(1), migrations[0].Version)
	assert.Equal(t, "create tracking table", migrations[0].Description)
	require.Len(t, migrations[0].Statements, 1)

	assert.Equal(t, int64(2), migrations[1].Version)
	assert.Equal(t, "create books", migrations[1].Description)
	require.Len(t, migrations[1].Statements, 2)
	assert.Equal(t, "CREATE TABLE app.books (id uuid PRIMARY KEY, title text)", migrations[1].Statements[0])
	assert.Equal(t, "CREATE INDEX ON app.books (title)", migrations[1].Statements[1])
}

func TestLoadMigrationResources_RejectsBadFilename(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/create_books.cql": &fstest.MapFile{Data: []byte("CREATE TABLE app.books (id uuid PRIMARY KEY);")},
	}

	_, err := LoadMigrationResources(fsys, "migrations")
	assert.ErrorIs(t, err, ErrInvalidMigration)
}

func TestLoadMigrationResources_RejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/v2__books.cql":   &fstest.MapFile{Data: []byte("CREATE TABLE app.books (id uuid PRIMARY KEY);")},
		"migrations/v2__authors.cql": &fstest.MapFile{Data: []byte("CREATE TABLE app.authors (id uuid PRIMARY KEY);")},
	}

	_, err := LoadMigrationResources(fsys, "migrations")

	var dup *DuplicateVersionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, int64(2), dup.Version)
}

func TestLoadMigrationResources_RejectsEmptyFile(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/v2__books.cql": &fstest.MapFile{Data: []byte("-- nothing here\n")},
	}

	_, err := LoadMigrationResources(fsys, "migrations")
	assert.ErrorIs(t, err, ErrInvalidMigration)
}

func TestLoadMigrationResources_MissingDirectory(t *testing.T) {
	_, err := LoadMigrationResources(fstest.MapFS{}, "migrations")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidMigration))
}
