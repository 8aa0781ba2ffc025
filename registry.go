package cql_migrator

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MigrationResources is an immutable, version-ordered collection of
// migrations. Construct one per run with NewMigrationResources or
// LoadMigrationResources; both fail fast on duplicate versions, before any
// cluster interaction.
type MigrationResources struct {
	migrations []Migration
}

// NewMigrationResources builds a registry from an explicit list. Input order
// is irrelevant; migrations are sorted ascending by version.
func NewMigrationResources(migrations ...Migration) (MigrationResources, error) {
	seen := make(map[int64]struct{}, len(migrations))
	sorted := make([]Migration, 0, len(migrations))

	for _, m := range migrations {
		if err := m.validate(); err != nil {
			return MigrationResources{}, err
		}
		if _, ok := seen[m.Version]; ok {
			return MigrationResources{}, &DuplicateVersionError{Version: m.Version}
		}
		seen[m.Version] = struct{}{}
		sorted = append(sorted, m)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	return MigrationResources{migrations: sorted}, nil
}

// Migrations returns the registered migrations in ascending version order.
func (r MigrationResources) Migrations() []Migration {
	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)
	return out
}

// Len returns the number of registered migrations.
func (r MigrationResources) Len() int {
	return len(r.migrations)
}

// ContainsBootstrap reports whether the reserved tracking-table migration is
// registered.
func (r MigrationResources) ContainsBootstrap() bool {
	for _, m := range r.migrations {
		if m.Version == BootstrapVersion {
			return true
		}
	}
	return false
}

// Pattern matches: v{version}__{description}.cql
// Version must be numeric, description may contain letters, digits,
// underscores and hyphens. Underscores become spaces in the description.
var migrationFilePattern = regexp.MustCompile(`^v(\d+)__([a-zA-Z0-9_-]+)\.cql$`)

// LoadMigrationResources scans dir inside fsys for migration files named
// v{version}__{description}.cql and builds a registry from them. Statements
// inside a file are separated by semicolons; lines starting with "--" are
// comments.
func LoadMigrationResources(fsys fs.FS, dir string) (MigrationResources, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return MigrationResources{}, fmt.Errorf("read migrations directory %s: %w", dir, err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cql") {
			continue
		}

		migration, err := parseMigrationFile(fsys, dir, entry.Name())
		if err != nil {
			return MigrationResources{}, err
		}
		migrations = append(migrations, migration)
	}

	return NewMigrationResources(migrations...)
}

func parseMigrationFile(fsys fs.FS, dir, name string) (Migration, error) {
	matches := migrationFilePattern.FindStringSubmatch(name)
	if matches == nil {
		return Migration{}, fmt.Errorf("%w: file %s does not match v{version}__{description}.cql", ErrInvalidMigration, name)
	}

	version, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return Migration{}, fmt.Errorf("%w: file %s: %v", ErrInvalidMigration, name, err)
	}

	body, err := fs.ReadFile(fsys, path.Join(dir, name))
	if err != nil {
		return Migration{}, fmt.Errorf("read migration file %s: %w", name, err)
	}

	statements := splitStatements(string(body))
	if len(statements) == 0 {
		return Migration{}, fmt.Errorf("%w: file %s contains no statements", ErrInvalidMigration, name)
	}

	return Migration{
		Version:     version,
		Description: strings.ReplaceAll(matches[2], "_", " "),
		Statements:  statements,
	}, nil
}

func splitStatements(body string) []string {
	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var statements []string
	for _, raw := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(raw); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
