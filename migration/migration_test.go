package migration

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/schema"
)

func noop(_ context.Context, _ *schema.Builder) error {
	return nil
}

func unit(name string) *Migration {
	return &Migration{
		Name:        name,
		Description: "test unit",
		Apply:       noop,
		Reverse:     noop,
	}
}

func Test_MigrationsSortByName(t *testing.T) {
	ms := Migrations{
		unit("2026_02_24_100001_CreateBeta"),
		unit("2026_02_24_100000_CreateAlpha"),
		unit("2025_12_01_090000_CreateUsers"),
	}

	ms.Sort()

	assert.Equal(t, []string{
		"2025_12_01_090000_CreateUsers",
		"2026_02_24_100000_CreateAlpha",
		"2026_02_24_100001_CreateBeta",
	}, ms.Keys())
}

func Test_Find(t *testing.T) {
	ms := Migrations{
		unit("2026_02_24_100000_CreateAlpha"),
		unit("2026_02_24_100001_CreateBeta"),
	}

	m, ok := ms.Find("2026_02_24_100001_CreateBeta")
	require.True(t, ok)
	assert.Equal(t, "2026_02_24_100001_CreateBeta", m.Name)

	_, ok = ms.Find("2026_02_24_100002_CreateGamma")
	assert.False(t, ok)
}

func Test_ValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("2026_02_24_100000_CreateAlpha"))
	assert.NoError(t, ValidateName("2020_01_01_000000_x"))

	invalid := []string{
		"",
		"CreateAlpha",
		"2026_02_24_CreateAlpha",
		"2026_02_24_100000_",
		"20260224100000_CreateAlpha",
	}

	for _, name := range invalid {
		err := ValidateName(name)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidDefinition), name)
	}
}

func Test_Validate_RequiresFullContract(t *testing.T) {
	m := unit("2026_02_24_100000_CreateAlpha")
	require.NoError(t, m.Validate())

	missingApply := unit("2026_02_24_100000_CreateAlpha")
	missingApply.Apply = nil
	assert.True(t, errors.Is(missingApply.Validate(), ErrInvalidDefinition))

	missingReverse := unit("2026_02_24_100000_CreateAlpha")
	missingReverse.Reverse = nil
	assert.True(t, errors.Is(missingReverse.Validate(), ErrInvalidDefinition))

	missingDescription := unit("2026_02_24_100000_CreateAlpha")
	missingDescription.Description = ""
	assert.True(t, errors.Is(missingDescription.Validate(), ErrInvalidDefinition))
}

func Test_GenerateName(t *testing.T) {
	clock := func() time.Time {
		return time.Date(2026, 2, 24, 10, 0, 0, 0, time.UTC)
	}

	name := GenerateName(clock, "CreateUsers")

	assert.Equal(t, "2026_02_24_100000_CreateUsers", name)
	assert.NoError(t, ValidateName(name))
}

func Test_ExecutionError_WrapsCause(t *testing.T) {
	cause := errors.New("syntax error near CREATE")
	err := &ExecutionError{Name: "2026_02_24_100000_CreateAlpha", Op: OpApply, Err: cause}

	assert.Contains(t, err.Error(), "2026_02_24_100000_CreateAlpha")
	assert.Contains(t, err.Error(), OpApply)
	assert.True(t, errors.Is(err, cause))
}
