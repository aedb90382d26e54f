package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Source kinds
const (
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
	SourceGSheet = "gsheet"
)

const dateLayout = "2006-01-02"

// Manifest declares the deck's sources and parameters
type Manifest struct {
	Name       string                `yaml:"name" validate:"required"`
	Parameters DeckParameters        `yaml:"parameters"`
	Sources    map[string]SourceSpec `yaml:"sources" validate:"required,min=1,dive"`

	dir string
}

// DeckParameters are the analysis knobs shared by the deck steps
type DeckParameters struct {
	ReferenceCurrency string `yaml:"reference_currency" validate:"omitempty,len=3,uppercase"`
	AnalysisYear      int    `yaml:"analysis_year" validate:"required,gte=1900,lte=2100"`
	WindowStart       string `yaml:"window_start" validate:"omitempty,datetime=2006-01-02"`
	WindowEnd         string `yaml:"window_end" validate:"omitempty,datetime=2006-01-02"`
	TopN              int    `yaml:"top_n" validate:"gte=0"`
}

// SourceSpec describes one tabular input
type SourceSpec struct {
	Kind          string   `yaml:"kind" validate:"required,oneof=xlsx csv gsheet"`
	Path          string   `yaml:"path" validate:"required_unless=Kind gsheet"`
	SpreadsheetID string   `yaml:"spreadsheet_id" validate:"required_if=Kind gsheet"`
	Sheet         string   `yaml:"sheet" validate:"required_if=Kind xlsx"`
	Range         string   `yaml:"range" validate:"required_if=Kind gsheet"`
	SkipRows      int      `yaml:"skip_rows" validate:"gte=0"`
	Delimiter     string   `yaml:"delimiter" validate:"omitempty,len=1"`
	Header        *bool    `yaml:"header"`
	Columns       []string `yaml:"columns"`
}

// HasHeader reports whether the first row of the source carries column names.
// Sources declare a header unless stated otherwise.
func (s SourceSpec) HasHeader() bool {
	return s.Header == nil || *s.Header
}

// DelimiterRune returns the field separator for delimited sources
func (s SourceSpec) DelimiterRune() rune {
	if s.Delimiter == "" {
		return ','
	}
	return []rune(s.Delimiter)[0]
}

// LoadManifest reads, validates and path-resolves a deck manifest.
// Relative source paths resolve against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes and validates a manifest document
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks struct constraints and the date window ordering
func (m *Manifest) Validate() error {
	if err := validator.New().Struct(m); err != nil {
		return err
	}

	from, to, ok := m.Parameters.Window()
	if ok && to.Before(from) {
		return fmt.Errorf("window_end %s precedes window_start %s", m.Parameters.WindowEnd, m.Parameters.WindowStart)
	}
	return nil
}

// Source returns the named source with its path resolved
func (m *Manifest) Source(id string) (SourceSpec, bool) {
	src, ok := m.Sources[id]
	if !ok {
		return SourceSpec{}, false
	}
	if src.Path != "" && !filepath.IsAbs(src.Path) && m.dir != "" {
		src.Path = filepath.Join(m.dir, src.Path)
	}
	return src, true
}

// SourceIDs returns the declared source ids in sorted order
func (m *Manifest) SourceIDs() []string {
	ids := make([]string, 0, len(m.Sources))
	for id := range m.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Window returns the marker date window. ok is false when either bound is unset.
func (p DeckParameters) Window() (from, to time.Time, ok bool) {
	if p.WindowStart == "" || p.WindowEnd == "" {
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(dateLayout, p.WindowStart)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse(dateLayout, p.WindowEnd)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Currency returns the manifest's reference currency or the fallback
func (p DeckParameters) Currency(fallback string) string {
	if p.ReferenceCurrency != "" {
		return p.ReferenceCurrency
	}
	return fallback
}
