// Package pg wires PostgreSQL access through github.com/jackc/pgx/v5.
//
// Connect builds a pgxpool.Pool from Config (PG_* environment variables) and
// retries the initial ping. Migrate applies goose migrations from an fs.FS,
// WithTx wraps a unit of work in Begin/Commit with a deferred Rollback, and
// Healthcheck adapts the pool to a readiness probe.
//
// Error helpers classify driver errors without importing pgconn at call sites:
//
//	if pg.IsDuplicateKeyError(err) {
//	    return ErrAlreadyExists
//	}
package pg
