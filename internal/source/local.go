package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/pkg/errors"

	"github.com/strata-db/strata/internal/logger"
	"github.com/strata-db/strata/migration"
)

const scriptExtension = ".go"

// ScriptSource discovers migration units as interpreted Go script files,
// one unit per YYYY_MM_DD_HHMMSS_Name.go file, across one or more search
// directories. The filesystem is abstracted so tests run on an in-memory
// one.
type ScriptSource struct {
	fs   vfs.FileSystem
	dirs []string
	lg   logger.Logger
}

var _ Source = (*ScriptSource)(nil)

// NewScriptSource validates every configured directory up front: a
// missing directory is a configuration fault, not a discovery-time one.
func NewScriptSource(fs vfs.FileSystem, dirs []string, lg logger.Logger) (*ScriptSource, error) {
	if fs == nil {
		fs = osfs.New()
	}

	if lg == nil {
		lg = &logger.NullLogger{}
	}

	if len(dirs) == 0 {
		return nil, errors.Wrap(migration.ErrDirectoryNotFound, "no migration directories configured")
	}

	for _, dir := range dirs {
		info, err := fs.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, errors.Wrapf(migration.ErrDirectoryNotFound, "%s", dir)
		}
	}

	return &ScriptSource{fs: fs, dirs: dirs, lg: lg}, nil
}

func (s *ScriptSource) Discover(ctx context.Context) (migration.Migrations, error) {
	seen := make(map[string]string)
	var result migration.Migrations

	for _, dir := range s.dirs {
		files, err := vfs.ReadDir(s.fs, dir)
		if err != nil {
			return nil, errors.Wrapf(migration.ErrDirectoryNotFound, "%s", dir)
		}

		for i := range files {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			if files[i].IsDir() || !strings.HasSuffix(files[i].Name(), scriptExtension) {
				continue
			}

			path := filepath.Join(dir, files[i].Name())
			name := strings.TrimSuffix(files[i].Name(), scriptExtension)

			if err := migration.ValidateName(name); err != nil {
				return nil, errors.Wrapf(err, "file %s", path)
			}

			if prev, ok := seen[name]; ok {
				return nil, errors.Wrapf(migration.ErrDuplicateName, "%s found in %s and %s", name, prev, path)
			}
			seen[name] = path

			src, err := vfs.ReadFile(s.fs, path)
			if err != nil {
				return nil, errors.Wrapf(err, "could not read migration file %s", path)
			}

			m, err := loadScript(name, path, src)
			if err != nil {
				s.lg.Error(err)
				return nil, err
			}

			s.lg.Debugf("discovered %s (%s)", m.Name, m.Description)
			result = append(result, m)
		}
	}

	result.Sort()

	return result, nil
}

// Create scaffolds a new migration script in the first configured
// directory and returns its path.
func (s *ScriptSource) Create(cf migration.ClockFunc, suffix string) (string, error) {
	name := migration.GenerateName(cf, suffix)
	if err := migration.ValidateName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dirs[0], name+scriptExtension)
	if _, err := s.fs.Stat(path); err == nil {
		return "", errors.Wrapf(migration.ErrDuplicateName, "%s", path)
	}

	contents := fmt.Sprintf(scriptStub, suffix)
	if err := vfs.WriteFile(s.fs, path, []byte(contents), 0o644); err != nil {
		return "", errors.Wrapf(err, "could not create migration file %s", path)
	}

	return path, nil
}

const scriptStub = `package migration

import (
	"context"

	"github.com/strata-db/strata/schema"
)

func Description() string {
	return "%s"
}

func Apply(ctx context.Context, s *schema.Builder) error {
	return nil
}

func Reverse(ctx context.Context, s *schema.Builder) error {
	return nil
}
`
