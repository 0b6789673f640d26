package repository

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
)

// dialect builds the dynamic statements (partial updates); fixed queries are
// written out by hand.
var dialect = goqu.Dialect("postgres")

func columns(names ...string) []interface{} {
	out := make([]interface{}, len(names))
	for i, name := range names {
		out[i] = goqu.C(name)
	}
	return out
}
