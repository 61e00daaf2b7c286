package postgres

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/omni/retryables-monitor/db"
)

// psql builds queries with the $n placeholders postgres expects.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type basePostgresRepo struct {
	table string
	db    *db.DB
}

func newBasePostgresRepo(table string, db *db.DB) *basePostgresRepo {
	return &basePostgresRepo{
		table: table,
		db:    db,
	}
}
