package exporter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"baselinebuilder/internal/baseline"
	"baselinebuilder/internal/config"
	"baselinebuilder/internal/infrastructure"
	"baselinebuilder/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for an export format other than csv or xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Exporter renders a baseline in a download format.
type Exporter struct {
	bom    bool
	logger *slog.Logger
}

// New creates an Exporter from the export configuration.
func New(cfg config.ExportConfig, logger *slog.Logger) *Exporter {
	return &Exporter{
		bom:    cfg.BOM,
		logger: infrastructure.WithComponent(logger, "exporter"),
	}
}

// Filename returns the download name of b in format.
func Filename(b *domain.Baseline, format domain.ExportFormat) string {
	return baseline.Filename(b.UnitCode, b.DiscountPercent, b.GeneratedAt, format)
}

// Write renders b to w.
func (e *Exporter) Write(w io.Writer, b *domain.Baseline, format domain.ExportFormat) error {
	switch format {
	case domain.ExportFormatCSV:
		return WriteCSV(w, WriteOptions{
			Headers:   Columns,
			Records:   Records(b.Rows),
			BOMPrefix: e.bom,
		})
	case domain.ExportFormatXLSX:
		return WriteXLSX(w, b.Rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteFile renders b into dir under its download name and returns the
// full path. dir is created if missing.
func (e *Exporter) WriteFile(dir string, b *domain.Baseline, format domain.ExportFormat) (string, error) {
	if !format.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, Filename(b, format))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := e.Write(file, b, format); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	e.logger.Info("baseline written",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("rows", len(b.Rows)))
	return path, nil
}
