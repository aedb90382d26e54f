package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir         string
	DataDir         string
	ReportsDir      string
	LogsDir         string
	ManifestFile    string
	CredentialsFile string
}

// ExecutableDir returns the directory of the running binary with symlinks resolved
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// NewPaths resolves every configured path against baseDir. Absolute entries are kept.
func NewPaths(baseDir string, cfg PathsConfig) *Paths {
	return &Paths{
		BaseDir:         baseDir,
		DataDir:         resolve(baseDir, cfg.DataDir, DefaultDataDir),
		ReportsDir:      resolve(baseDir, cfg.ReportsDir, DefaultReportsDir),
		LogsDir:         resolve(baseDir, cfg.LogsDir, DefaultLogsDir),
		ManifestFile:    resolve(baseDir, cfg.ManifestFile, DefaultManifestFile),
		CredentialsFile: resolve(baseDir, cfg.Credentials, DefaultCredentialsFile),
	}
}

func resolve(baseDir, configured, fallback string) string {
	if configured == "" {
		configured = fallback
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(baseDir, configured)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ReportsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetReportPath returns the path for an exported dataset
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("manifest", p.ManifestFile),
			slog.String("credentials", p.CredentialsFile),
			slog.Bool("manifest_exists", FileExists(p.ManifestFile)),
		))
}
