// Package backup provides file backup and restoration capabilities.
// It keeps a timestamped copy of the plugin configuration before it is
// rewritten in place, and restores it when the write fails.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"nightlyprep/internal/errors"
)

// Manager handles file backup and restoration operations.
type Manager struct {
	fs  afero.Fs
	now func() time.Time
}

// NewBackupManager creates a Manager working on fs.
func NewBackupManager(fs afero.Fs) *Manager {
	return &Manager{
		fs:  fs,
		now: time.Now,
	}
}

// BackupFile creates a timestamped backup copy of the specified file and
// returns its path. The copy keeps the source file mode.
func (bm *Manager) BackupFile(filePath string) (string, error) {
	backupPath := bm.generateBackupPath(filePath)

	srcInfo, err := bm.fs.Stat(filePath)
	if err != nil {
		return "", errors.NewBackupError(filePath, "failed to stat source file", err)
	}

	if err := bm.copyFile(filePath, backupPath, srcInfo.Mode().Perm()); err != nil {
		_ = bm.fs.Remove(backupPath)
		return "", errors.NewBackupError(backupPath, "failed to copy file content", err)
	}

	return backupPath, nil
}

// RestoreFile overwrites the original file with contents from the backup.
func (bm *Manager) RestoreFile(originalPath, backupPath string) error {
	if backupPath == "" {
		return nil
	}

	backupInfo, err := bm.fs.Stat(backupPath)
	if err != nil {
		return errors.NewBackupError(backupPath, "backup file not found", err)
	}

	if err := bm.copyFile(backupPath, originalPath, backupInfo.Mode().Perm()); err != nil {
		return errors.NewBackupError(originalPath, "failed to restore file content", err)
	}

	return nil
}

// CleanupBackup removes the backup file.
func (bm *Manager) CleanupBackup(backupPath string) error {
	if backupPath == "" {
		return nil
	}

	err := bm.fs.Remove(backupPath)
	if err != nil && !os.IsNotExist(err) {
		return errors.NewBackupError(backupPath, "failed to remove backup file", err)
	}

	return nil
}

func (bm *Manager) copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := bm.fs.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := bm.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	return bm.fs.Chmod(dst, mode)
}

func (bm *Manager) generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	timestamp := bm.now().Format("20060102_150405")

	return filepath.Join(dir, fmt.Sprintf("%s.%s.bak", base, timestamp))
}
