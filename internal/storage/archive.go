package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Archive keeps an on-disk copy of generated documents under a base
// directory, one subfolder per payroll run. The database remains the
// source of truth; the archive exists so accountants can reach payslips
// and exports without going through the API.
type Archive struct {
	baseDir string
	logger  *zap.Logger
}

// NewArchive creates an Archive rooted at baseDir
func NewArchive(baseDir string, logger *zap.Logger) *Archive {
	return &Archive{baseDir: baseDir, logger: logger}
}

// Store writes content to <baseDir>/<runID>/<fileName>, creating the run
// folder if needed. Existing files are overwritten; generated documents
// are deterministic so an overwrite never changes content.
func (a *Archive) Store(runID, fileName string, content []byte) error {
	fullPath := filepath.Join(a.baseDir, sanitizeSegment(runID), sanitizeSegment(fileName))

	if err := a.validatePath(fullPath); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		a.logger.Error("Failed to create archive folder",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return fmt.Errorf("failed to create archive folder: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		a.logger.Error("Failed to write archive file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to write archive file: %w", err)
	}

	a.logger.Debug("Archived document",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return nil
}

// Exists reports whether a document is already archived
func (a *Archive) Exists(runID, fileName string) bool {
	fullPath := filepath.Join(a.baseDir, sanitizeSegment(runID), sanitizeSegment(fileName))
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

// validatePath checks that the resolved path stays within baseDir
func (a *Archive) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(a.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes archive directory: %s", fullPath)
	}
	return nil
}

// sanitizeSegment strips path separators and traversal sequences from a
// single path segment
func sanitizeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "..", "")
	segment = strings.ReplaceAll(segment, "/", "_")
	segment = strings.ReplaceAll(segment, "\\", "_")
	return segment
}
