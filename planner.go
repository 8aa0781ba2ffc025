package cql_migrator

import (
	"container/list"
)

type migrationsPlan struct {
	migrationsToRun *list.List
}

func newMigrationsPlan() migrationsPlan {
	return migrationsPlan{
		migrationsToRun: list.New(),
	}
}

func (p migrationsPlan) IsEmpty() bool {
	return p.migrationsToRun.Len() == 0
}

func (p migrationsPlan) PopFirst() Migration {
	first := p.migrationsToRun.Front()
	p.migrationsToRun.Remove(first)
	return first.Value.(Migration)
}

type migratePlanner struct {
	resources MigrationResources
	applied   map[int64]struct{}
}

// MakePlan returns the pending migrations in ascending version order: every
// registered migration whose version is not in the applied set. The registry
// is already sorted, so the plan preserves its order.
func (p *migratePlanner) MakePlan() migrationsPlan {
	plan := newMigrationsPlan()
	for _, migration := range p.resources.migrations {
		if _, ok := p.applied[migration.Version]; ok {
			continue
		}
		plan.migrationsToRun.PushBack(migration)
	}
	return plan
}
