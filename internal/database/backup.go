package database

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// BackupSuffix is appended to the database path to name the backup copy.
const BackupSuffix = ".pre-import-backup"

var ErrBackupFailed = errors.New("failed to create database backup")

// CreateBackup copies the file at path to path+BackupSuffix, replacing any
// previous backup. The copy keeps the source's permissions and mtime.
func CreateBackup(path string) (string, error) {
	backupPath := path + BackupSuffix

	if err := copyFile(path, backupPath); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	return backupPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
