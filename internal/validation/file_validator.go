package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator checks step inputs and outputs before work starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputDirectory checks that dir exists and returns how many
// regular files match pattern. Zero matches is not an error.
func (v *FileValidator) ValidateInputDirectory(dir, pattern string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	if pattern == "" {
		return 0, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, fmt.Errorf("failed to check for files: %w", err)
	}

	count := 0
	for _, m := range matches {
		if st, err := os.Stat(m); err == nil && !st.IsDir() {
			count++
		}
	}

	if count == 0 {
		v.logger.Warn("No files matching pattern found",
			slog.String("directory", dir),
			slog.String("pattern", pattern))
	} else {
		v.logger.Debug("Input directory validated",
			slog.String("directory", dir),
			slog.Int("files_found", count))
	}
	return count, nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return nil
}

// ValidateFile checks that path is an existing readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	f.Close()
	return nil
}

// ValidateWorkbook checks that path is a usable .xlsx workbook
func (v *FileValidator) ValidateWorkbook(path string) error {
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" {
		return fmt.Errorf("file %s is not an xlsx workbook (extension: %s)", path, ext)
	}

	return v.ValidateFile(path)
}
