package cql_migrator

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// MigrationReport lists the versions applied by one run, in application
// order. A second run against an unchanged cluster yields an empty report.
type MigrationReport struct {
	Applied []int64
}

type runState string

const (
	stateLoading   runState = "loading_state"
	stateComputing runState = "computing_pending"
	stateApplying  runState = "applying"
	stateDone      runState = "done"
	stateFailed    runState = "failed"
)

// Migrate applies every pending migration from the registry, strictly in
// ascending version order, one at a time. Each migration's statements reach
// cluster-wide schema agreement before the next is issued, and a tracking row
// is written (conditionally, so racing appliers serialize) after each success.
//
// On any failure the run stops immediately: the returned report lists the
// versions applied so far and the error is a *MigrationFailure naming the
// failing version. No failed migration is retried within a run.
//
// The context is honored between migrations and between statements, never
// mid-statement.
func (m *MigrationManager) Migrate(ctx context.Context, resources MigrationResources) (MigrationReport, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	logger := m.logger.WithField("keyspace", m.keyspace)
	logger.WithField("state", stateLoading).Info("preparing migrations execution")

	applied, err := m.loadApplied(ctx, resources)
	if err != nil {
		logger.WithField("state", stateFailed).Error(err.Error())
		return MigrationReport{}, err
	}

	logger.WithField("state", stateComputing).Info("computing pending migrations")
	planner := migratePlanner{resources: resources, applied: applied}
	plan := planner.MakePlan()

	if plan.IsEmpty() {
		logger.WithField("state", stateDone).Info("no pending migrations, schema is up to date")
		return MigrationReport{}, nil
	}

	report := MigrationReport{}
	var lastApplied int64

	for !plan.IsEmpty() {
		migration := plan.PopFirst()

		if err := ctx.Err(); err != nil {
			logger.WithField("state", stateFailed).Error("migration run aborted by caller")
			return report, &MigrationFailure{Version: migration.Version, LastApplied: lastApplied, Err: err}
		}

		logger.WithFields(logrus.Fields{
			"state":       stateApplying,
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("executing migration")

		if err := m.executeMigration(ctx, migration); err != nil {
			logger.WithField("state", stateFailed).Error(err.Error())
			return report, &MigrationFailure{Version: migration.Version, LastApplied: lastApplied, Err: err}
		}

		recorded, err := m.store.RecordApplied(ctx, AppliedRecord{
			Version:     migration.Version,
			Description: migration.Description,
			AppliedAt:   time.Now().UTC(),
			Checksum:    migration.checksum(),
			AppliedBy:   m.applierID,
		})
		if err != nil {
			// The schema change reached agreement but the tracking write did
			// not land. Retrying it blindly is unsafe, surface for manual
			// remediation.
			partial := &PartialMigrationError{
				Version:       migration.Version,
				LastSucceeded: len(migration.Statements),
				Err:           err,
			}
			logger.WithField("state", stateFailed).Error(partial.Error())
			return report, &MigrationFailure{Version: migration.Version, LastApplied: lastApplied, Err: partial}
		}

		lastApplied = migration.Version

		if !recorded {
			logger.WithFields(logrus.Fields{
				"state":   stateApplying,
				"version": migration.Version,
			}).Warn("version already recorded by another applier, skipping")
			continue
		}

		report.Applied = append(report.Applied, migration.Version)
	}

	logger.WithField("state", stateDone).Info("migrations completed, cluster schema is up to date")
	return report, nil
}

// Pending returns the migrations Migrate would apply, in order, without
// applying them.
func (m *MigrationManager) Pending(ctx context.Context, resources MigrationResources) ([]Migration, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	applied, err := m.loadApplied(ctx, resources)
	if err != nil {
		return nil, err
	}

	planner := migratePlanner{resources: resources, applied: applied}
	plan := planner.MakePlan()

	pending := make([]Migration, 0, resources.Len())
	for !plan.IsEmpty() {
		pending = append(pending, plan.PopFirst())
	}
	return pending, nil
}

// loadApplied reads the applied set from the tracking store. A missing
// tracking table is tolerated only when the registry carries the bootstrap
// migration that will create it.
func (m *MigrationManager) loadApplied(ctx context.Context, resources MigrationResources) (map[int64]struct{}, error) {
	applied, err := m.store.AppliedVersions(ctx)
	if err != nil {
		if errors.Is(err, ErrTrackingStoreMissing) && resources.ContainsBootstrap() {
			m.logger.WithField("keyspace", m.keyspace).Info("tracking table not found, bootstrap migration pending")
			return map[int64]struct{}{}, nil
		}
		return nil, err
	}
	return applied, nil
}

func (m *MigrationManager) executeMigration(ctx context.Context, migration Migration) error {
	if migration.UpF != nil {
		if err := migration.UpF(ctx, m.session); err != nil {
			return &ExecutionError{Err: err}
		}
		return m.executor.AwaitAgreement(ctx)
	}

	for i, statement := range migration.Statements {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return &PartialMigrationError{
					Version:       migration.Version,
					Statement:     i + 1,
					LastSucceeded: i,
					Err:           err,
				}
			}
		}

		if err := m.executor.ExecuteWithAgreement(ctx, statement); err != nil {
			if i == 0 {
				// Nothing applied yet, the failure is not partial.
				return err
			}
			return &PartialMigrationError{
				Version:       migration.Version,
				Statement:     i + 1,
				LastSucceeded: i,
				Err:           err,
			}
		}
	}
	return nil
}
