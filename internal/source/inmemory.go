package source

import (
	"context"

	"github.com/pkg/errors"

	"github.com/strata-db/strata/migration"
)

// InMemorySource serves statically constructed units, for migrations
// compiled into the binary and for tests.
type InMemorySource struct {
	migrations migration.Migrations
}

var _ Source = (*InMemorySource)(nil)

func NewInMemorySource(units ...*migration.Migration) (*InMemorySource, error) {
	seen := make(map[string]struct{}, len(units))
	result := make(migration.Migrations, 0, len(units))

	for _, m := range units {
		if err := m.Validate(); err != nil {
			return nil, err
		}

		if _, ok := seen[m.Name]; ok {
			return nil, errors.Wrapf(migration.ErrDuplicateName, "%s", m.Name)
		}
		seen[m.Name] = struct{}{}

		result = append(result, m)
	}

	result.Sort()

	return &InMemorySource{migrations: result}, nil
}

func (s *InMemorySource) Discover(_ context.Context) (migration.Migrations, error) {
	return s.migrations, nil
}
