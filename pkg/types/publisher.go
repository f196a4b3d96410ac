package types

import "context"

// Publisher registers gold tables for querying. Each run opens its own
// session; nothing a session publishes is visible until Commit.
type Publisher interface {
	// Begin opens the publish session for one pipeline run.
	Begin(ctx context.Context, runID string) (PublishSession, error)
}

// PublishSession is the per-run publish context. It is not safe for
// concurrent use.
type PublishSession interface {
	// Publish registers data under tableName, replacing any table of that
	// name once the session commits.
	Publish(tableName string, data Dataset) error

	// Commit makes every table published in the session visible at once.
	Commit() error

	// Rollback discards the session. Calling it after Commit is a no-op.
	Rollback() error
}
