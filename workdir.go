package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// NewWorkDir creates the private working directory for job under root,
// creating root first if needed. The directory name includes the
// process ID so concurrent runs sharing root never collide, and it is
// an error for it to exist already.
func NewWorkDir(root, job string) (string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	dir := filepath.Join(root,
		fmt.Sprintf("%s.%d", filepath.Base(job), os.Getpid()))
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Cleanup removes dir unless keep is set
func Cleanup(dir string, keep bool) {
	if keep {
		logger.Info("keeping working directory", zap.String("dir", dir))
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("failed to remove working directory",
			zap.String("dir", dir), zap.Error(err))
	}
}
