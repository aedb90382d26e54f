package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
)

// EncodeJSON writes the dataset payload of t to w
func EncodeJSON(w io.Writer, t *dataprocessing.Table) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Dataset(t))
}

// WriteJSON writes the dataset payload of t to filePath
func WriteJSON(filePath string, t *dataprocessing.Table) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", filePath), err)
	}
	defer file.Close()

	if err := EncodeJSON(file, t); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to encode %s", t.Name), err)
	}

	slog.Info("Wrote JSON dataset",
		slog.String("file_path", filePath),
		slog.String("dataset", t.Name),
		slog.Int("rows", t.Len()))

	return nil
}
