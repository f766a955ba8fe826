// Package xpgx adds squirrel-aware helpers on top of pgx.
package xpgx

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a Querier that can open transactions.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Execx runs a squirrel statement and returns the number of affected rows.
func Execx(ctx context.Context, q Querier, query sq.Sqlizer) (int64, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ToSql: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Getx returns exactly one row mapped by `db` tags. pgx.ErrNoRows when there is none.
func Getx[T any](ctx context.Context, q Querier, query sq.Sqlizer) (*T, error) {
	rows, err := queryx(ctx, q, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
}

// Selectx returns all rows mapped by `db` tags.
func Selectx[T any](ctx context.Context, q Querier, query sq.Sqlizer) ([]*T, error) {
	rows, err := queryx(ctx, q, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
}

// InTx runs fn inside a transaction that is committed when fn returns nil.
func InTx(ctx context.Context, pool Pool, fn func(tx Querier) error) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

func queryx(ctx context.Context, q Querier, query sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ToSql: %w", err)
	}
	return q.Query(ctx, sql, args...)
}
