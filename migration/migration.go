package migration

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/strata-db/strata/schema"
)

// NamePattern is the chronological file naming convention, e.g.
// 2026_02_24_100000_CreateUsers. The engine orders migrations by plain
// string comparison, so the fixed-width date prefix keeps lexical and
// chronological order aligned.
const NamePattern = `^\d{4}_\d{2}_\d{2}_\d{6}_[A-Za-z]\w*$`

const nameTimeLayout = "2006_01_02_150405"

var nameRegexp = regexp.MustCompile(NamePattern)

type (
	// StepFunc performs one direction of a schema change against the
	// injected builder.
	StepFunc func(ctx context.Context, s *schema.Builder) error

	ClockFunc func() time.Time

	// Migration is a single versioned, reversible schema change. It is
	// constructed fresh on every discovery and never mutated afterwards.
	Migration struct {
		Name        string
		Description string
		Apply       StepFunc
		Reverse     StepFunc
	}

	// Record is the persisted proof that a migration has been applied,
	// grouped with the rest of its batch.
	Record struct {
		Name      string    `db:"name"`
		Batch     int       `db:"batch"`
		AppliedAt time.Time `db:"applied_at"`
	}

	// Status is one row of the discovered-vs-applied left join. Batch and
	// AppliedAt are only meaningful when Applied is true.
	Status struct {
		Name        string
		Description string
		Applied     bool
		Batch       int
		AppliedAt   time.Time
	}
)

// Validate checks the unit against the migration contract: a well formed
// name and both directions plus a description present.
func (m *Migration) Validate() error {
	if err := ValidateName(m.Name); err != nil {
		return err
	}

	if m.Apply == nil {
		return errors.Wrapf(ErrInvalidDefinition, "migration [%s] has no apply routine", m.Name)
	}

	if m.Reverse == nil {
		return errors.Wrapf(ErrInvalidDefinition, "migration [%s] has no reverse routine", m.Name)
	}

	if m.Description == "" {
		return errors.Wrapf(ErrInvalidDefinition, "migration [%s] has no description", m.Name)
	}

	return nil
}

func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return errors.Wrapf(ErrInvalidDefinition, "invalid migration name [%s]", name)
	}

	return nil
}

// GenerateName produces a new migration name from the current clock time
// and a CamelCase suffix, following the chronological prefix convention.
func GenerateName(cf ClockFunc, suffix string) string {
	return cf().Format(nameTimeLayout) + "_" + suffix
}

type Migrations []*Migration

func (m Migrations) Len() int {
	return len(m)
}

func (m Migrations) Less(i, j int) bool {
	return m[i].Name < m[j].Name
}

func (m Migrations) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

func (m Migrations) Sort() {
	sort.Sort(m)
}

func (m Migrations) Keys() (result []string) {
	for i := range m {
		result = append(result, m[i].Name)
	}
	return result
}

// Find resolves a name against the discovered set.
func (m Migrations) Find(name string) (*Migration, bool) {
	for i := range m {
		if m[i].Name == name {
			return m[i], true
		}
	}

	return nil, false
}
