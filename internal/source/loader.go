package source

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/strata-db/strata/migration"
	"github.com/strata-db/strata/schema"
)

// Symbols exposes the schema package to interpreted migration scripts, so
// that a script's import of it resolves against the host binary's types
// and the extracted functions type-assert cleanly.
var Symbols = interp.Exports{
	"github.com/strata-db/strata/schema/schema": {
		"Builder":    reflect.ValueOf((*schema.Builder)(nil)),
		"Table":      reflect.ValueOf((*schema.Table)(nil)),
		"Column":     reflect.ValueOf((*schema.Column)(nil)),
		"ForeignKey": reflect.ValueOf((*schema.ForeignKey)(nil)),
		"Expression": reflect.ValueOf((*schema.Expression)(nil)),
	},
}

// loadScript evaluates one migration script and binds its Apply, Reverse
// and Description symbols into a migration unit. The script must declare
// package migration.
func loadScript(name, path string, src []byte) (*migration.Migration, error) {
	i := interp.New(interp.Options{})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrapf(err, "could not initialize interpreter for %s", path)
	}

	if err := i.Use(Symbols); err != nil {
		return nil, errors.Wrapf(err, "could not initialize interpreter for %s", path)
	}

	if _, err := i.Eval(string(src)); err != nil {
		return nil, errors.Wrapf(migration.ErrInvalidDefinition, "%s: %s", path, err)
	}

	apply, err := extractStep(i, "migration.Apply", path)
	if err != nil {
		return nil, err
	}

	reverse, err := extractStep(i, "migration.Reverse", path)
	if err != nil {
		return nil, err
	}

	description, err := extractDescription(i, path)
	if err != nil {
		return nil, err
	}

	m := &migration.Migration{
		Name:        name,
		Description: description,
		Apply:       apply,
		Reverse:     reverse,
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "file %s", path)
	}

	return m, nil
}

func extractStep(i *interp.Interpreter, symbol, path string) (migration.StepFunc, error) {
	v, err := i.Eval(symbol)
	if err != nil {
		return nil, errors.Wrapf(migration.ErrInvalidDefinition, "%s does not declare %s", path, symbol)
	}

	fn, ok := v.Interface().(func(context.Context, *schema.Builder) error)
	if !ok {
		return nil, errors.Wrapf(migration.ErrInvalidDefinition, "%s declares %s with the wrong signature", path, symbol)
	}

	return fn, nil
}

func extractDescription(i *interp.Interpreter, path string) (string, error) {
	v, err := i.Eval("migration.Description")
	if err != nil {
		return "", errors.Wrapf(migration.ErrInvalidDefinition, "%s does not declare migration.Description", path)
	}

	fn, ok := v.Interface().(func() string)
	if !ok {
		return "", errors.Wrapf(migration.ErrInvalidDefinition, "%s declares migration.Description with the wrong signature", path)
	}

	return fn(), nil
}
