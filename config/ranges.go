package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/freshcart/pricing-admin/pricing"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type rangesFile struct {
	Ranges []struct {
		Label string          `yaml:"label"`
		Min   decimal.Decimal `yaml:"min"`
		Max   decimal.Decimal `yaml:"max"`
	} `yaml:"ranges"`
}

// LoadRangePresets reads the default admin price bands from a YAML file.
// A missing file yields no presets.
func LoadRangePresets(path string) ([]pricing.PriceRange, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseRangePresets(raw)
}

func ParseRangePresets(raw []byte) ([]pricing.PriceRange, error) {
	var f rangesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse ranges: %w", err)
	}

	out := make([]pricing.PriceRange, 0, len(f.Ranges))
	for i, r := range f.Ranges {
		pr := pricing.PriceRange{
			MinValue: r.Min,
			MaxValue: r.Max,
			Label:    r.Label,
		}
		if err := pricing.Validate(pr.MinValue, pr.MaxValue, decimal.Zero, pricing.ContextMarkup); err != nil {
			return nil, fmt.Errorf("range %d (%s): %w", i, r.Label, err)
		}
		out = append(out, pr)
	}
	return out, nil
}
