package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/ougirez/volstat/internal/pkg/store/xpgx"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, q xpgx.Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
