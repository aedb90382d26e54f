package rates

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"avdeck/internal/config"
	"avdeck/internal/dataprocessing"
	apperrors "avdeck/internal/errors"
)

// rateFile is the on-disk layout. JSON files use the same keys.
type rateFile struct {
	Base  string             `yaml:"base" json:"base"`
	Date  string             `yaml:"date" json:"date"`
	Rates map[string]float64 `yaml:"rates" json:"rates"`
}

// LoadRatesFile reads a fixed rate table from a YAML or JSON file
func LoadRatesFile(path string) (dataprocessing.ExchangeRates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dataprocessing.ExchangeRates{}, apperrors.NewSourceNotFoundError(path, err)
	}
	return ParseRates(data)
}

// ParseRates decodes a rate table. YAML is a superset of JSON so both parse.
func ParseRates(data []byte) (dataprocessing.ExchangeRates, error) {
	var f rateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return dataprocessing.ExchangeRates{}, apperrors.NewConfigError("failed to parse rates file", err)
	}

	base := strings.ToUpper(strings.TrimSpace(f.Base))
	if len(base) != 3 {
		return dataprocessing.ExchangeRates{}, apperrors.NewConfigError(fmt.Sprintf("rates file has invalid base %q", f.Base), nil)
	}
	for code, r := range f.Rates {
		if r <= 0 {
			return dataprocessing.ExchangeRates{}, apperrors.NewConfigError(fmt.Sprintf("rate for %s must be positive, got %v", code, r), nil)
		}
	}
	return normalize(base, f.Rates), nil
}

// Static serves a fixed table
type Static dataprocessing.ExchangeRates

// Rates implements Source. The base must be the table's reference currency.
func (s Static) Rates(_ context.Context, base string) (dataprocessing.ExchangeRates, error) {
	if !strings.EqualFold(strings.TrimSpace(base), s.Reference) {
		return dataprocessing.ExchangeRates{}, apperrors.NewConfigError(
			fmt.Sprintf("rate table is quoted against %s, requested %s", s.Reference, base), nil)
	}
	return dataprocessing.ExchangeRates(s), nil
}

// NewSource returns a file-backed source when a rates file is configured and
// an HTTP client otherwise.
func NewSource(cfg config.RatesConfig, opts ...Option) (Source, error) {
	if cfg.File != "" {
		table, err := LoadRatesFile(cfg.File)
		if err != nil {
			return nil, err
		}
		return Static(table), nil
	}
	return NewClient(cfg, opts...), nil
}
