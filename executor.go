package cql_migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// DefaultAgreementTimeout bounds the wait for cluster-wide schema agreement
// after each DDL statement.
const DefaultAgreementTimeout = time.Minute

// StatementExecutor issues schema-changing statements and blocks until every
// reachable node reports the same schema version.
type StatementExecutor interface {
	// ExecuteWithAgreement runs one statement, then waits for cluster-wide
	// schema agreement. An *ExecutionError means the coordinator rejected
	// the statement and it did not apply. An error matching
	// ErrAgreementTimeout means the statement was accepted but the cluster
	// never reconverged; its effect is unknown and it is unsafe to retry
	// blindly.
	ExecuteWithAgreement(ctx context.Context, statement string) error

	// AwaitAgreement waits for cluster-wide schema agreement without issuing
	// a statement. Used after a func-based migration has run against the
	// session directly.
	AwaitAgreement(ctx context.Context) error
}

// SessionExecutor is the gocql-backed StatementExecutor.
type SessionExecutor struct {
	session          *gocql.Session
	agreementTimeout time.Duration
}

// NewSessionExecutor wraps an already-connected session. The executor never
// dials or closes the session.
func NewSessionExecutor(session *gocql.Session, agreementTimeout time.Duration) *SessionExecutor {
	if agreementTimeout <= 0 {
		agreementTimeout = DefaultAgreementTimeout
	}
	return &SessionExecutor{
		session:          session,
		agreementTimeout: agreementTimeout,
	}
}

func (e *SessionExecutor) ExecuteWithAgreement(ctx context.Context, statement string) error {
	if err := e.session.Query(statement).WithContext(ctx).Exec(); err != nil {
		return &ExecutionError{Statement: statement, Err: err}
	}
	return e.AwaitAgreement(ctx)
}

func (e *SessionExecutor) AwaitAgreement(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, e.agreementTimeout)
	defer cancel()

	if err := e.session.AwaitSchemaAgreement(waitCtx); err != nil {
		return fmt.Errorf("%w within %s: %v", ErrAgreementTimeout, e.agreementTimeout, err)
	}
	return nil
}
