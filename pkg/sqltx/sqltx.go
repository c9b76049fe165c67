// Package sqltx carries an in-flight *sql.Tx through a context.Context
// so that storage.Store and eventstream.Stream calls made from inside
// the same Store.WithinTransaction participate in one transaction,
// even though they live in separate packages over the same database.
package sqltx

import (
	"context"
	"database/sql"
)

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type key struct{}

// With attaches tx to ctx.
func With(ctx context.Context, tx Executor) context.Context {
	return context.WithValue(ctx, key{}, tx)
}

// From returns the Executor carried by ctx, if any.
func From(ctx context.Context) (Executor, bool) {
	tx, ok := ctx.Value(key{}).(Executor)
	return tx, ok
}

// Pick returns the transaction in ctx if present, else fallback.
func Pick(ctx context.Context, fallback Executor) Executor {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return fallback
}
