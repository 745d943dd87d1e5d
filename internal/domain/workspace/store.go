package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/shared/types"
)

// ErrCorrupt is returned when neither the workspace file nor its backup can be decoded
var ErrCorrupt = errors.New("workspace config is corrupt")

const (
	backupSuffix = ".bak.gz"
	filePerm     = 0o644
)

// storedConfig mirrors types.WorkspaceConfig with optional fields so that
// values missing from disk are taken from the defaults.
type storedConfig struct {
	Files      []types.FileRef `json:"files"`
	ActiveFile *int            `json:"activeFile"`
	Layout     types.Layout    `json:"layout"`
	Revision   string          `json:"revision,omitempty"`
}

func (s storedConfig) merge(defaults types.WorkspaceConfig) types.WorkspaceConfig {
	cfg := defaults
	if s.Files != nil {
		cfg.Files = s.Files
	}
	if s.ActiveFile != nil {
		cfg.ActiveFile = *s.ActiveFile
	}
	if s.Layout != nil {
		cfg.Layout = s.Layout
	}
	cfg.Revision = s.Revision
	return cfg
}

// FileStore stores the workspace config in a single JSON file
type FileStore struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewFileStore creates a store writing to path
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the workspace file location
func (s *FileStore) Path() string { return s.path }

// BackupPath returns the location of the gzip backup
func (s *FileStore) BackupPath() string { return s.path + backupSuffix }

// Save writes cfg under a fresh revision. The config it replaces becomes the backup.
func (s *FileStore) Save(ctx context.Context, cfg types.WorkspaceConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.Revision = id.NewRevisionID().String()
	if cfg.Files == nil {
		cfg.Files = []types.FileRef{}
	}
	if cfg.Layout == nil {
		cfg.Layout = types.Layout{}
	}

	data, err := sonic.ConfigStd.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workspace: %w", err)
	}

	if err := s.backup(); err != nil {
		// The new config is still written; only the fallback is stale
		s.logger.Warn("failed to back up workspace", zap.String("path", s.path), zap.Error(err))
	}

	if err := atomicWrite(s.path, data); err != nil {
		return err
	}

	s.logger.Debug("workspace written", zap.String("path", s.path), zap.String("revision", cfg.Revision))
	return nil
}

// Restore reads the stored config, filling missing fields from defaults. A
// missing file yields defaults; an unreadable one falls back to the backup.
func (s *FileStore) Restore(ctx context.Context, defaults types.WorkspaceConfig) (types.WorkspaceConfig, error) {
	if err := ctx.Err(); err != nil {
		return defaults, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return defaults, fmt.Errorf("failed to read workspace: %w", err)
	}

	stored, decodeErr := decode(data)
	if decodeErr == nil {
		return stored.merge(defaults), nil
	}

	s.logger.Warn("workspace unreadable, trying backup", zap.String("path", s.path), zap.Error(decodeErr))

	stored, err = s.readBackup()
	if err != nil {
		return defaults, fmt.Errorf("%w: %v", ErrCorrupt, decodeErr)
	}

	s.logger.Info("workspace restored from backup", zap.String("revision", stored.Revision))
	return stored.merge(defaults), nil
}

// backup compresses the current config, if it is valid, into the backup file
func (s *FileStore) backup() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := decode(data); err != nil {
		// Never replace a good backup with a corrupt config
		return nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return fmt.Errorf("failed to compress backup: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to compress backup: %w", err)
	}

	return atomicWrite(s.BackupPath(), buf.Bytes())
}

func (s *FileStore) readBackup() (storedConfig, error) {
	file, err := os.Open(s.BackupPath())
	if err != nil {
		return storedConfig{}, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return storedConfig{}, fmt.Errorf("failed to open backup: %w", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return storedConfig{}, fmt.Errorf("failed to read backup: %w", err)
	}
	return decode(data)
}

func decode(data []byte) (storedConfig, error) {
	var stored storedConfig
	if err := sonic.ConfigStd.Unmarshal(data, &stored); err != nil {
		return storedConfig{}, err
	}
	return stored, nil
}

// atomicWrite writes data to path using a temp file and rename
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".workspace-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	tmp = nil
	return nil
}
