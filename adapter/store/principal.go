package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RichardKnop/ragchat/pkg/authz"
)

func (a *Adapter) SavePrincipal(ctx context.Context, principal authz.Principal) error {
	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQuery(ctx, tx, insertPrincipalQuery{principal}); err != nil {
			return fmt.Errorf("exec query failed: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	return nil
}

type insertPrincipalQuery struct {
	authz.Principal
}

func (q insertPrincipalQuery) SQL() (string, []any) {
	query := `
		insert into "principal" (
			"id"
		)
		values (?)
		on conflict("id") do update set
			"updated"=strftime('%Y-%m-%dT%H:%M:%fZ')
	`
	args := []any{
		q.UserID(),
	}

	return query, args
}
