package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"avdeck/internal/config"
	apperrors "avdeck/internal/errors"
)

// Preflight checks a manifest's local inputs and the output directory
// before a build starts, so that every missing file is reported at once
type Preflight struct {
	logger *slog.Logger
}

// NewPreflight creates a preflight checker
func NewPreflight(logger *slog.Logger) *Preflight {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preflight{
		logger: logger.With(slog.String("component", "preflight")),
	}
}

// Run validates every local source of m and the output directory.
// Spreadsheet API sources are checked when they are read.
func (p *Preflight) Run(m *config.Manifest, outDir string) error {
	var errs []error
	if err := p.ValidateSources(m); err != nil {
		errs = append(errs, err)
	}
	if outDir != "" {
		if err := p.ValidateOutputDirectory(outDir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateSources checks the file behind each xlsx and csv source
func (p *Preflight) ValidateSources(m *config.Manifest) error {
	var errs []error
	for _, id := range m.SourceIDs() {
		spec, _ := m.Source(id)

		var err error
		switch spec.Kind {
		case config.SourceXLSX:
			err = p.ValidateWorkbook(spec.Path)
		case config.SourceCSV:
			err = p.ValidateFile(spec.Path)
		default:
			continue
		}
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				appErr.WithContext("source_id", id)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateOutputDirectory ensures the directory exists, creating it, and is writable
func (p *Preflight) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		p.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		p.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	p.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is an existing, readable regular file
func (p *Preflight) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		p.logger.Error("Source file not found",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewSourceNotFoundError(path, err)
	}
	if info.IsDir() {
		return apperrors.NewSourceNotFoundError(path, fmt.Errorf("%s is a directory", path))
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewSourceNotFoundError(path, err)
	}
	file.Close()

	p.logger.Debug("Source file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks a workbook source: it must exist, carry an Excel
// extension and not be an Office lock file
func (p *Preflight) ValidateWorkbook(path string) error {
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewSourceNotFoundError(path, errors.New("path names a temporary Excel lock file"))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return apperrors.NewAppValidationError(fmt.Sprintf("source %s is not an Excel workbook (extension %q)", path, ext)).
			WithContext("source", path)
	}

	return p.ValidateFile(path)
}
