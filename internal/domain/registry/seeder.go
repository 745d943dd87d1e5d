package registry

import (
	"errors"
	"io/fs"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Seeder loads additional provider definitions from a directory
type Seeder struct {
	catalog *Catalog
	dir     string
	logger  *zap.Logger
}

// NewSeeder creates a seeder for dir
func NewSeeder(catalog *Catalog, dir string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{catalog: catalog, dir: dir, logger: logger}
}

// Seed loads every *.yaml and *.yml file below the directory. Broken files are
// logged and skipped. A missing directory is not an error.
func (s *Seeder) Seed() (loaded, failed int, err error) {
	if s.dir == "" {
		return 0, 0, nil
	}
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("provider directory not found", zap.String("dir", s.dir))
		return 0, 0, nil
	}

	fsys := os.DirFS(s.dir)
	matches, err := doublestar.Glob(fsys, "**/*.{yaml,yml}")
	if err != nil {
		return 0, 0, err
	}

	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			s.logger.Warn("failed to read provider file", zap.String("file", name), zap.Error(err))
			failed++
			continue
		}

		n, err := s.catalog.Load(data)
		loaded += n
		if err != nil {
			s.logger.Warn("failed to load provider file", zap.String("file", name), zap.Error(err))
			failed++
			continue
		}
		s.logger.Debug("loaded provider file", zap.String("file", name), zap.Int("providers", n))
	}

	s.logger.Info("provider seeding complete", zap.Int("loaded", loaded), zap.Int("failed", failed))
	return loaded, failed, nil
}
