package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Store persists a Configuration as a JSON document. A corrupt or unreadable
// file is moved into the backup directory and replaced with the defaults, so
// the daemon always starts with a usable configuration.
type Store struct {
	log       *zap.Logger
	dir       string
	path      string
	backupDir string
}

// NewStore creates a store rooted at dir (created on demand).
func NewStore(dir string, log *zap.Logger) *Store {
	return &Store{
		log:       log,
		dir:       dir,
		path:      filepath.Join(dir, "profiles.json"),
		backupDir: filepath.Join(dir, "Backups"),
	}
}

// Path returns the profiles.json location, for file watching.
func (s *Store) Path() string { return s.path }

// Load reads the configuration, regenerating defaults when the file is
// missing or unparseable. Corrupt files are backed up first, never destroyed.
func (s *Store) Load() (*Configuration, error) {
	if err := s.ensureDirs(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.log.Info("profile store not found, writing defaults", zap.String("path", s.path))
		cfg := Default()
		if err := s.Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile store: %w", err)
	}

	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.Version == 0 {
		if err != nil {
			s.log.Warn("profile store is corrupt, backing up and regenerating", zap.Error(err))
		} else {
			s.log.Warn("profile store has no schema version, regenerating")
		}
		s.backupCorrupt()
		def := Default()
		if err := s.Save(def); err != nil {
			return nil, err
		}
		return def, nil
	}

	s.log.Info("loaded profile store",
		zap.Int("profiles", len(cfg.Profiles)),
		zap.Int("version", cfg.Version))
	return &cfg, nil
}

// Save writes the configuration atomically (tmp file + rename) and keeps a
// rolling backup of the previous revision.
func (s *Store) Save(cfg *Configuration) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if err := s.ensureDirs(); err != nil {
		return err
	}

	cfg.LastModified = time.Now()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write profile store: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		backup := filepath.Join(s.backupDir, "profiles.backup.json")
		if prev, err := os.ReadFile(s.path); err == nil {
			_ = os.WriteFile(backup, prev, 0644)
		}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace profile store: %w", err)
	}
	return nil
}

// Export writes the configuration to an arbitrary path.
func (s *Store) Export(cfg *Configuration, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Import reads and validates a configuration from an arbitrary path.
func (s *Store) Import(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Version == 0 || len(cfg.Profiles) == 0 {
		return nil, fmt.Errorf("%s is not a valid profile configuration", path)
	}
	for _, p := range cfg.Profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid profile in %s: %w", path, err)
		}
	}
	return &cfg, nil
}

func (s *Store) ensureDirs() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	return nil
}

func (s *Store) backupCorrupt() {
	name := fmt.Sprintf("profiles.corrupt.%s.json", time.Now().Format("2006-01-02-15.04.05"))
	dst := filepath.Join(s.backupDir, name)
	if err := os.Rename(s.path, dst); err != nil {
		s.log.Warn("failed to move corrupt profile store", zap.Error(err))
		return
	}
	s.log.Info("moved corrupt profile store aside", zap.String("backup", dst))
}
