package seasons

import (
	"context"
	"fmt"
	"path/filepath"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"baselinebuilder/internal/config"
	"baselinebuilder/internal/dataprocessing"
)

// Source yields the raw season table. ID identifies the source in the cache and
// in error messages.
type Source interface {
	ID() string
	Fetch(ctx context.Context) (*dataprocessing.Table, error)
}

// SheetsSource reads the season table from a Google Sheet with the Sheets v4
// values API.
type SheetsSource struct {
	service *sheets.Service
	sheetID string
	rng     string
}

// NewSheetsSource authenticates with the service account file or API key in cfg.
// Extra options are appended last and win over the derived ones.
func NewSheetsSource(ctx context.Context, cfg config.SheetsConfig, opts ...option.ClientOption) (*SheetsSource, error) {
	if !cfg.HasSheet() {
		return nil, fmt.Errorf("sheets source: no sheet id configured")
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsSource{service: service, sheetID: cfg.SheetID, rng: cfg.Range}, nil
}

func (s *SheetsSource) ID() string {
	return "sheets:" + s.sheetID + "/" + s.rng
}

// Fetch reads the configured range. Cells are stringified with their formatted
// value; short rows are padded to the header width.
func (s *SheetsSource) Fetch(ctx context.Context) (*dataprocessing.Table, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.sheetID, s.rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return dataprocessing.NewTable(stringifyRows(resp.Values))
}

func stringifyRows(values [][]interface{}) [][]string {
	if len(values) == 0 {
		return nil
	}
	width := len(values[0])
	records := make([][]string, len(values))
	for i, row := range values {
		n := len(row)
		if n < width {
			n = width
		}
		rec := make([]string, n)
		for j, cell := range row {
			if cell != nil {
				rec[j] = fmt.Sprint(cell)
			}
		}
		records[i] = rec
	}
	return records
}

// FileSource reads the season table from a local CSV or XLSX file.
type FileSource struct {
	Path string
}

func (s FileSource) ID() string {
	abs, err := filepath.Abs(s.Path)
	if err != nil {
		abs = s.Path
	}
	return "file:" + abs
}

func (s FileSource) Fetch(ctx context.Context) (*dataprocessing.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dataprocessing.ReadFile(s.Path)
}

// NewSource picks the sheet when one is configured and the local file otherwise.
func NewSource(ctx context.Context, sheetsCfg config.SheetsConfig, seasonsCfg config.SeasonsConfig) (Source, error) {
	if sheetsCfg.HasSheet() {
		return NewSheetsSource(ctx, sheetsCfg)
	}
	if seasonsCfg.File != "" {
		return FileSource{Path: seasonsCfg.File}, nil
	}
	return nil, ErrNoSource
}
