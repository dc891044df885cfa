package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pawbook/internal/config"

	"github.com/rs/zerolog"
)

// Снапшоты называются pawbook_backup_<метка времени>.db, чистка трогает
// только файлы с этим префиксом.
const backupPrefix = "pawbook_backup_"

// BackupService periodically snapshots the sqlite file into cfg.StoragePath
// and prunes snapshots older than the retention window.
type BackupService struct {
	dbPath string
	cfg    config.BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{dbPath: dbPath, cfg: cfg, logger: logger}
}

// Start blocks until ctx is cancelled, taking one snapshot immediately and
// then one per interval. Callers run it in its own goroutine.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Debug().Msg("backup: disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("dir", s.cfg.StoragePath).Msg("backup: started")

	if err := s.Snapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("backup: initial snapshot failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("backup: stopped")
			return
		case <-ticker.C:
			if err := s.Snapshot(ctx); err != nil {
				s.logger.Error().Err(err).Msg("backup: snapshot failed")
			}
			s.Prune()
		}
	}
}

// interval parses cfg.Schedule as a Go duration, defaulting to daily.
func (s *BackupService) interval() time.Duration {
	if s.cfg.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.cfg.Schedule)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule", s.cfg.Schedule).Msg("backup: bad schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

// Snapshot writes a consistent copy of the database into the storage dir.
// VACUUM INTO works against a live database; the raw file copy is a fallback
// for sqlite builds without it and is only safe when nothing is writing.
func (s *BackupService) Snapshot(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + time.Now().Format("20060102T150405") + ".db"
	dest := filepath.Join(s.cfg.StoragePath, name)

	src, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("open source database: %w", err)
	}
	defer src.Close()

	if _, err := src.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		s.logger.Warn().Err(err).Msg("backup: vacuum into failed, copying file")
		if err := copyFile(s.dbPath, dest); err != nil {
			return fmt.Errorf("copy database file: %w", err)
		}
	}

	s.logger.Info().Str("file", name).Msg("backup: snapshot written")
	return nil
}

func copyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	_, err = io.Copy(dest, src)
	return err
}

// Prune removes snapshots older than RetentionDays. Files that do not carry
// the backup prefix are left alone.
func (s *BackupService) Prune() {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("backup: read backup dir")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", entry.Name()).Msg("backup: pruning old snapshot")
			os.Remove(filepath.Join(s.cfg.StoragePath, entry.Name()))
		}
	}
}
