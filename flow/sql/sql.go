// Package sql provides stream adapters for database operations using
// database/sql. A query stream is the canonical inner stream for the
// switch-latest combinator: each change of an upstream selection derives
// a fresh query, and superseded queries are cancelled mid-iteration,
// releasing their row cursors.
package sql

import (
	"context"
	"database/sql"

	"github.com/lguimbarda/switchflow/flow/core"
)

// Scanner is a function that scans a row into a value.
type Scanner[T any] func(*sql.Rows) (T, error)

// Query creates a Stream that executes a query and emits one value per
// row. The scanner function converts each row to the output type. Rows
// are iterated under the emit context: cancelling the stream's consumer
// aborts iteration and closes the row cursor.
//
// Query errors and row errors are emitted as error Results; under
// combine.SwitchMap they terminate the whole pipeline, per that
// combinator's contract.
func Query[T any](db *sql.DB, query string, scanner Scanner[T], args ...any) core.Stream[T] {
	return QueryBuffered(db, query, scanner, core.DefaultBufferSize, args...)
}

// QueryBuffered creates a Query stream with a specified buffer size.
func QueryBuffered[T any](db *sql.DB, query string, scanner Scanner[T], bufferSize int, args ...any) core.Stream[T] {
	return core.Emit(func(ctx context.Context) <-chan core.Result[T] {
		out := make(chan core.Result[T], bufferSize)
		go func() {
			defer close(out)
			rows, err := db.QueryContext(ctx, query, args...)
			if err != nil {
				select {
				case <-ctx.Done():
				case out <- core.Err[T](err):
				}
				return
			}
			defer rows.Close()
			for rows.Next() {
				value, err := scanner(rows)
				if err != nil {
					select {
					case <-ctx.Done():
						return
					case out <- core.Err[T](err):
					}
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- core.Ok(value):
				}
			}
			if err := rows.Err(); err != nil {
				select {
				case <-ctx.Done():
				case out <- core.Err[T](err):
				}
			}
		}()
		return out
	})
}

// QueryRow creates a Stream that executes a query expecting a single row.
func QueryRow[T any](db *sql.DB, query string, scanner func(*sql.Row) (T, error), args ...any) core.Stream[T] {
	return core.Emit(func(ctx context.Context) <-chan core.Result[T] {
		out := make(chan core.Result[T], 1)
		go func() {
			defer close(out)
			row := db.QueryRowContext(ctx, query, args...)
			value, err := scanner(row)
			if err != nil {
				select {
				case <-ctx.Done():
				case out <- core.Err[T](err):
				}
				return
			}
			select {
			case <-ctx.Done():
			case out <- core.Ok(value):
			}
		}()
		return out
	})
}

// ExecResult contains the result of an exec operation.
type ExecResult struct {
	LastInsertId int64
	RowsAffected int64
}

// Exec creates a Stream that executes a statement and emits the result.
func Exec(db *sql.DB, query string, args ...any) core.Stream[ExecResult] {
	return core.Emit(func(ctx context.Context) <-chan core.Result[ExecResult] {
		out := make(chan core.Result[ExecResult], 1)
		go func() {
			defer close(out)
			res, err := db.ExecContext(ctx, query, args...)
			if err != nil {
				select {
				case <-ctx.Done():
				case out <- core.Err[ExecResult](err):
				}
				return
			}
			var execRes ExecResult
			// Not every driver supports these; best effort.
			if id, err := res.LastInsertId(); err == nil {
				execRes.LastInsertId = id
			}
			if n, err := res.RowsAffected(); err == nil {
				execRes.RowsAffected = n
			}
			select {
			case <-ctx.Done():
			case out <- core.Ok(execRes):
			}
		}()
		return out
	})
}
