// Package source discovers migration units and yields them as a
// deterministic, name-ordered collection. Discovery never touches the
// database; the ordering produced here is the sole ordering authority
// for migrate and rollback sequencing.
package source

import (
	"context"

	"github.com/strata-db/strata/migration"
)

const DefaultMigrationsFolder = "./migrations"

type Source interface {
	Discover(ctx context.Context) (migration.Migrations, error)
}
