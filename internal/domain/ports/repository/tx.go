package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within a
// database transaction, passing the underlying transaction handle via `tx`.
//
// RATIONALE
// - Keeps use-case interfaces clean (no transaction types leaking out).
// - Allows repository methods that accept a Tx to detect a live transaction
//   (implementation-side) and run guarded UPDATE ... RETURNING / tx-bound Exec
//   as needed. The admin activation path relies on this to run the bulk-expire
//   and the subsequent insert atomically.
// - Repositories MUST gracefully accept nil Tx (non-transactional path).
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
